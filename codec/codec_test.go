package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"go2tv.app/screengrab/media"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 20), B: 0x80, A: 0xff})
		}
	}
	return img
}

func TestRegistry(t *testing.T) {
	RegisterBuiltins()

	for _, name := range []string{"bmp", "png", "rawvideo"} {
		c, ok := Find(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := Find("h264")
	assert.False(t, ok)
	assert.Subset(t, Names(), []string{"bmp", "png", "rawvideo"})

	Register(nil)
	Register(New("", nil))
	_, ok = Find("")
	assert.False(t, ok)
}

func TestNewDecoderNilStream(t *testing.T) {
	_, err := PNG.NewDecoder(nil)
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestPNGDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(4, 3)))

	dec, err := PNG.NewDecoder(&media.Stream{Codec: "png"})
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.ReceiveFrame()
	assert.Equal(t, ErrAgain, err)

	require.NoError(t, dec.SendPacket(media.NewPacket(0, buf.Bytes(), nil)))
	frame, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Width)
	assert.Equal(t, 3, frame.Height)
	require.NotNil(t, frame.Image)

	r, g, b, _ := frame.Image.At(2, 1).RGBA()
	assert.Equal(t, uint32(20), r>>8)
	assert.Equal(t, uint32(20), g>>8)
	assert.Equal(t, uint32(0x80), b>>8)

	_, err = dec.ReceiveFrame()
	assert.Equal(t, ErrAgain, err)

	require.NoError(t, dec.SendPacket(nil))
	_, err = dec.ReceiveFrame()
	assert.Equal(t, ErrEOF, err)
}

func TestBMPDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(5, 2)))

	dec, err := BMP.NewDecoder(&media.Stream{Codec: "bmp"})
	require.NoError(t, err)
	defer dec.Close()

	require.NoError(t, dec.SendPacket(media.NewPacket(0, buf.Bytes(), nil)))
	err = dec.SendPacket(media.NewPacket(0, buf.Bytes(), nil))
	assert.Equal(t, ErrAgain, err, "second packet before drain")

	frame, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, 5, frame.Width)
	assert.Equal(t, 2, frame.Height)
}

func TestImageDecoderCorruptPacket(t *testing.T) {
	dec, err := PNG.NewDecoder(&media.Stream{Codec: "png"})
	require.NoError(t, err)

	err = dec.SendPacket(media.NewPacket(0, []byte("not a png"), nil))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrAgain))

	require.NoError(t, dec.Close())
	assert.Equal(t, ErrClosed, dec.SendPacket(media.NewPacket(0, nil, nil)))
	_, err = dec.ReceiveFrame()
	assert.Equal(t, ErrClosed, err)
}

func TestRawVideoDecoder(t *testing.T) {
	stream := &media.Stream{Codec: "rawvideo", PixelFormat: "bgr0", Width: 3, Height: 2}
	dec, err := RawVideo.NewDecoder(stream)
	require.NoError(t, err)
	defer dec.Close()

	data := make([]byte, 3*4*2)
	for i := range data {
		data[i] = byte(i)
	}
	pkt := media.NewPacket(0, data, nil)
	require.NoError(t, dec.SendPacket(pkt))
	pkt.Release()

	frame, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, PixelFormatBGR0, frame.PixelFormat)
	assert.Equal(t, []int{12}, frame.Strides)
	require.Len(t, frame.Planes, 1)
	assert.Equal(t, byte(13), frame.Planes[0][13], "plane outlives the packet")
}

func TestRawVideoDecoderPaddedLines(t *testing.T) {
	dec, err := RawVideo.NewDecoder(&media.Stream{PixelFormat: "rgb24", Width: 3, Height: 2})
	require.NoError(t, err)

	require.NoError(t, dec.SendPacket(media.NewPacket(0, make([]byte, 16*2), nil)))
	frame, err := dec.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, []int{16}, frame.Strides)
}

func TestRawVideoDecoderRejects(t *testing.T) {
	_, err := RawVideo.NewDecoder(&media.Stream{PixelFormat: "bgr0"})
	assert.True(t, errors.Is(err, ErrInvalidParams))

	_, err = RawVideo.NewDecoder(&media.Stream{PixelFormat: "yuv420p", Width: 2, Height: 2})
	assert.True(t, errors.Is(err, ErrUnsupportedPixelFormat))

	dec, err := RawVideo.NewDecoder(&media.Stream{PixelFormat: "bgra", Width: 2, Height: 2})
	require.NoError(t, err)
	err = dec.SendPacket(media.NewPacket(0, make([]byte, 15), nil))
	assert.True(t, errors.Is(err, ErrPacketSize))
}

func TestLayoutOf(t *testing.T) {
	l, ok := LayoutOf("BGR0")
	require.True(t, ok)
	assert.Equal(t, 4, l.BytesPerPixel)
	assert.Equal(t, 2, l.R)
	assert.Equal(t, 40, l.MinStride(10))

	l, ok = LayoutOf(PixelFormatUYVY422)
	require.True(t, ok)
	assert.True(t, l.Packed422)
	assert.Equal(t, 8, l.MinStride(3))

	_, ok = LayoutOf("nv12")
	assert.False(t, ok)
}
