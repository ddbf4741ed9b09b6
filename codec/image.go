package codec

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"go2tv.app/screengrab/media"
)

var (
	// BMP decodes the bitmap packets produced by gdigrab.
	BMP = New("bmp", func(stream *media.Stream) (Decoder, error) {
		return newImageDecoder("bmp", bmp.Decode), nil
	})

	// PNG decodes whole PNG files, one per packet.
	PNG = New("png", func(stream *media.Stream) (Decoder, error) {
		return newImageDecoder("png", png.Decode), nil
	})
)

// imageDecoder handles intra-only codecs where every packet is one
// self-contained image file.
type imageDecoder struct {
	name   string
	decode func(io.Reader) (image.Image, error)

	pending  *Frame
	draining bool
	closed   bool
}

func newImageDecoder(name string, decode func(io.Reader) (image.Image, error)) *imageDecoder {
	return &imageDecoder{name: name, decode: decode}
}

func (d *imageDecoder) SendPacket(pkt *media.Packet) error {
	if d.closed {
		return ErrClosed
	}
	if pkt == nil {
		d.draining = true
		return nil
	}
	if d.draining {
		return errors.Wrapf(ErrEOF, "%s: packet sent after drain", d.name)
	}
	if d.pending != nil {
		return ErrAgain
	}

	img, err := d.decode(bytes.NewReader(pkt.Data))
	if err != nil {
		return errors.Wrapf(err, "%s: decode packet of %d bytes", d.name, len(pkt.Data))
	}
	b := img.Bounds()
	if b.Empty() {
		return errors.Wrapf(ErrInvalidParams, "%s: decoded image is empty", d.name)
	}
	d.pending = &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Image:  img,
	}
	return nil
}

func (d *imageDecoder) ReceiveFrame() (*Frame, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.pending == nil {
		if d.draining {
			return nil, ErrEOF
		}
		return nil, ErrAgain
	}
	f := d.pending
	d.pending = nil
	return f, nil
}

func (d *imageDecoder) Close() error {
	d.closed = true
	d.pending = nil
	return nil
}
