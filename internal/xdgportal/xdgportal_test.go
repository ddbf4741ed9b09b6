package xdgportal

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/screengrab/internal/debuglog"
	"go2tv.app/screengrab/media"
)

func writePNG(t *testing.T, w, h int) (string, []byte) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "Screenshot.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path, buf.Bytes()
}

func TestSourceSinglePacket(t *testing.T) {
	path, data := writePNG(t, 6, 4)

	src, err := newSource(path, debuglog.Discard())
	require.NoError(t, err)

	_, err = src.ReadPacket()
	assert.Error(t, err, "reading before probe")

	streams, err := src.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, media.Stream{
		Index: 0, Type: media.TypeVideo, Codec: "png", PixelFormat: "rgba", Width: 6, Height: 4,
	}, *streams[0])

	pkt, err := src.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, 0, pkt.StreamIndex)
	assert.Equal(t, data, pkt.Data)
	pkt.Release()

	_, err = src.ReadPacket()
	assert.Equal(t, io.EOF, err)

	require.NoError(t, src.Close())
	_, err = src.ReadPacket()
	assert.Error(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "screenshot file is kept")
}

func TestSourceProbeGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	src, err := newSource(path, debuglog.Discard())
	require.NoError(t, err)
	_, err = src.Probe(context.Background())
	assert.Error(t, err)
}

func TestNewSourceMissingFile(t *testing.T) {
	_, err := newSource(filepath.Join(t.TempDir(), "gone.png"), debuglog.Discard())
	assert.Error(t, err)
}

func TestFilePath(t *testing.T) {
	p, err := filePath("file:///home/user/Pictures/Screenshot%20from%202026.png")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/Pictures/Screenshot from 2026.png", p)

	_, err = filePath("https://example.com/a.png")
	assert.Error(t, err)
	_, err = filePath("file://")
	assert.Error(t, err)
}

func TestScreenshotOptions(t *testing.T) {
	opts, err := screenshotOptions(map[string]string{"interactive": "true", "modal": "0", "framerate": "30"})
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, true, opts["interactive"].Value())
	assert.Equal(t, false, opts["modal"].Value())

	_, err = screenshotOptions(map[string]string{"modal": "maybe"})
	assert.Error(t, err)
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "xdg-portal", Screenshot.Name())
	assert.Equal(t, "", Screenshot.DefaultPath())
}
