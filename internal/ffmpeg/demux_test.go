package ffmpeg

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/screengrab/codec"
	"go2tv.app/screengrab/media"
)

func fakeBMP(size int, fill byte) []byte {
	b := bytes.Repeat([]byte{fill}, size)
	b[0], b[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(b[2:6], uint32(size))
	return b
}

func TestBMPDemuxer(t *testing.T) {
	first := fakeBMP(60, 1)
	second := fakeBMP(70, 2)
	r := bytes.NewReader(append(append([]byte{}, first...), second...))

	var d bmpDemuxer
	got, err := d.next(r, nil)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = d.next(r, got[:0])
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = d.next(r, nil)
	assert.Equal(t, io.EOF, err)
}

func TestBMPDemuxerErrors(t *testing.T) {
	var d bmpDemuxer

	_, err := d.next(bytes.NewReader(bytes.Repeat([]byte{'x'}, 64)), nil)
	assert.True(t, errors.Is(err, ErrCorruptPacket))

	small := fakeBMP(60, 0)
	binary.LittleEndian.PutUint32(small[2:6], 20)
	_, err = d.next(bytes.NewReader(small), nil)
	assert.True(t, errors.Is(err, ErrCorruptPacket))

	truncated := fakeBMP(80, 0)[:40]
	_, err = d.next(bytes.NewReader(truncated), nil)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestRawDemuxer(t *testing.T) {
	d := rawDemuxer{frameSize: 4}
	r := bytes.NewReader([]byte{1, 2, 3, 4, 5, 6})

	got, err := d.next(r, make([]byte, 0, 16))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	_, err = d.next(r, nil)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestNewDemuxer(t *testing.T) {
	d, err := newDemuxer(&media.Stream{Codec: "bmp"})
	require.NoError(t, err)
	assert.IsType(t, bmpDemuxer{}, d)

	d, err = newDemuxer(&media.Stream{Codec: "rawvideo", PixelFormat: "bgr0", Width: 640, Height: 480})
	require.NoError(t, err)
	assert.Equal(t, rawDemuxer{frameSize: 640 * 480 * 4}, d)

	d, err = newDemuxer(&media.Stream{Codec: "rawvideo", PixelFormat: "uyvy422", Width: 3, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, rawDemuxer{frameSize: 16}, d)

	_, err = newDemuxer(&media.Stream{Codec: "rawvideo", PixelFormat: "nv12", Width: 2, Height: 2})
	assert.True(t, errors.Is(err, codec.ErrUnsupportedPixelFormat))

	_, err = newDemuxer(&media.Stream{Codec: "rawvideo", PixelFormat: "bgr0"})
	assert.Error(t, err)

	_, err = newDemuxer(&media.Stream{Codec: "h264"})
	assert.True(t, errors.Is(err, ErrNoDemuxer))
}
