package codec

import (
	"github.com/pkg/errors"

	"go2tv.app/screengrab/media"
)

// RawVideo decodes uncompressed packed frames such as the bgr0 output of
// x11grab. Each packet carries exactly one frame.
var RawVideo = New("rawvideo", newRawVideoDecoder)

type rawVideoDecoder struct {
	width     int
	height    int
	format    PixelFormat
	minStride int

	pending  *Frame
	draining bool
	closed   bool
}

func newRawVideoDecoder(stream *media.Stream) (Decoder, error) {
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, errors.Wrapf(ErrInvalidParams, "rawvideo: geometry %dx%d", stream.Width, stream.Height)
	}
	format := PixelFormat(stream.PixelFormat)
	layout, ok := LayoutOf(format)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedPixelFormat, "rawvideo: %q", stream.PixelFormat)
	}
	return &rawVideoDecoder{
		width:     stream.Width,
		height:    stream.Height,
		format:    format,
		minStride: layout.MinStride(stream.Width),
	}, nil
}

// FrameSize is the packet size of one tightly packed frame.
func (d *rawVideoDecoder) FrameSize() int {
	return d.minStride * d.height
}

func (d *rawVideoDecoder) SendPacket(pkt *media.Packet) error {
	if d.closed {
		return ErrClosed
	}
	if pkt == nil {
		d.draining = true
		return nil
	}
	if d.draining {
		return errors.Wrap(ErrEOF, "rawvideo: packet sent after drain")
	}
	if d.pending != nil {
		return ErrAgain
	}

	// Host-registered inputs may pad every line, so accept any stride that
	// divides the packet evenly and holds at least one full line. The ffmpeg
	// demuxer always cuts tightly packed frames.
	n := len(pkt.Data)
	if n < d.FrameSize() || n%d.height != 0 {
		return errors.Wrapf(ErrPacketSize, "rawvideo: got %d bytes, want %d for %dx%d %s",
			n, d.FrameSize(), d.width, d.height, d.format)
	}
	stride := n / d.height

	// The packet buffer goes back to the source after this call.
	plane := make([]byte, n)
	copy(plane, pkt.Data)

	d.pending = &Frame{
		Width:       d.width,
		Height:      d.height,
		PixelFormat: d.format,
		Planes:      [][]byte{plane},
		Strides:     []int{stride},
	}
	return nil
}

func (d *rawVideoDecoder) ReceiveFrame() (*Frame, error) {
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

func (d *rawVideoDecoder) Close() error {
	d.closed = true
	d.pending = nil
	return nil
}
