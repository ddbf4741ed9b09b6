package ffmpeg

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"go2tv.app/screengrab/codec"
	"go2tv.app/screengrab/media"
)

const (
	bmpFileHeaderLen = 14
	bmpMinFileLen    = bmpFileHeaderLen + 40
	maxPacketSize    = 1 << 30
)

var (
	ErrCorruptPacket = errors.New("corrupt packet in ffmpeg output")
	ErrNoDemuxer     = errors.New("no demuxer for stream codec")
)

// demuxer cuts the copied elementary stream on ffmpeg's stdout back into
// packets. buf is a reusable scratch buffer.
type demuxer interface {
	next(r io.Reader, buf []byte) ([]byte, error)
}

// bmpDemuxer splits the image2pipe output of gdigrab. Every packet is a
// complete BMP file whose length is stored in the file header.
type bmpDemuxer struct{}

func (bmpDemuxer) next(r io.Reader, buf []byte) ([]byte, error) {
	var hdr [bmpFileHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if hdr[0] != 'B' || hdr[1] != 'M' {
		return nil, errors.Wrapf(ErrCorruptPacket, "bmp signature %q", hdr[:2])
	}
	size := int(binary.LittleEndian.Uint32(hdr[2:6]))
	if size < bmpMinFileLen || size > maxPacketSize {
		return nil, errors.Wrapf(ErrCorruptPacket, "bmp file size %d", size)
	}

	buf = grow(buf, size)
	copy(buf, hdr[:])
	if _, err := io.ReadFull(r, buf[bmpFileHeaderLen:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// rawDemuxer splits rawvideo output into fixed-size frames. ffmpeg writes
// rawvideo lines without padding.
type rawDemuxer struct {
	frameSize int
}

func (d rawDemuxer) next(r io.Reader, buf []byte) ([]byte, error) {
	buf = grow(buf, d.frameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// newDemuxer picks the packet splitter for the copied stream st.
func newDemuxer(st *media.Stream) (demuxer, error) {
	switch st.Codec {
	case "bmp":
		return bmpDemuxer{}, nil
	case "rawvideo":
		layout, ok := codec.LayoutOf(codec.PixelFormat(st.PixelFormat))
		if !ok {
			return nil, errors.Wrapf(codec.ErrUnsupportedPixelFormat, "rawvideo %q", st.PixelFormat)
		}
		if st.Width <= 0 || st.Height <= 0 {
			return nil, errors.Errorf("rawvideo stream without geometry (%dx%d)", st.Width, st.Height)
		}
		size := layout.MinStride(st.Width) * st.Height
		if size > maxPacketSize {
			return nil, errors.Errorf("rawvideo frame of %d bytes is too large", size)
		}
		return rawDemuxer{frameSize: size}, nil
	default:
		return nil, errors.Wrapf(ErrNoDemuxer, "codec %q", st.Codec)
	}
}
