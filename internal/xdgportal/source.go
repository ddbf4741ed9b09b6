package xdgportal

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/pkg/errors"

	"go2tv.app/screengrab/media"
)

// Source serves the screenshot file written by the portal as a single
// packet.
type Source struct {
	path    string
	data    []byte
	logger  *slog.Logger
	streams []*media.Stream
	sent    bool
	closed  bool
}

func newSource(path string, logger *slog.Logger) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read portal screenshot")
	}
	return &Source{path: path, data: data, logger: logger}, nil
}

func (s *Source) Probe(ctx context.Context) ([]*media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(s.data))
	if err != nil {
		return nil, errors.Wrapf(err, "probe %s", s.path)
	}
	s.streams = []*media.Stream{{
		Index:       0,
		Type:        media.TypeVideo,
		Codec:       format,
		PixelFormat: pixelFormatName(cfg.ColorModel),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}}
	return s.streams, nil
}

func (s *Source) ReadPacket() (*media.Packet, error) {
	if s.closed {
		return nil, errors.New("portal source is closed")
	}
	if s.streams == nil {
		return nil, errors.New("portal: ReadPacket before Probe")
	}
	if s.sent {
		return nil, io.EOF
	}
	s.sent = true
	return media.NewPacket(0, s.data, nil), nil
}

// Close drops the file contents. The file itself belongs to the user's
// screenshot directory and is left in place.
func (s *Source) Close() error {
	s.closed = true
	s.data = nil
	return nil
}

func filePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "portal uri %q", uri)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", errors.Errorf("portal uri %q is not a local file", uri)
	}
	return u.Path, nil
}

func pixelFormatName(m color.Model) string {
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "rgba"
	case color.RGBA64Model, color.NRGBA64Model:
		return "rgba64"
	case color.GrayModel:
		return "gray"
	case color.Gray16Model:
		return "gray16"
	default:
		return ""
	}
}
