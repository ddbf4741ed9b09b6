package capture

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go2tv.app/screengrab/codec"
	"go2tv.app/screengrab/internal/debuglog"
	"go2tv.app/screengrab/media"
)

// counters tracks every resource the pipeline acquires from the fakes.
type counters struct {
	opened          int
	closed          int
	decodersOpened  int
	decodersClosed  int
	packetsRead     int
	packetsReleased int
	framesOut       int
}

type fakeFormat struct {
	name    string
	c       *counters
	openErr error
	source  func() *fakeSource
	lastReq media.OpenRequest
	// openDelay stalls Open; openedAt is when the last Open began.
	openDelay time.Duration
	openedAt  time.Time
}

func (f *fakeFormat) Name() string        { return f.name }
func (f *fakeFormat) DefaultPath() string { return "fake-desktop" }

func (f *fakeFormat) Open(ctx context.Context, req media.OpenRequest) (media.Source, error) {
	f.lastReq = req
	f.openedAt = time.Now()
	time.Sleep(f.openDelay)
	if f.openErr != nil {
		return nil, f.openErr
	}
	src := f.source()
	src.c = f.c
	f.c.opened++
	return src, nil
}

type fakeSource struct {
	c        *counters
	streams  []*media.Stream
	probeErr error
	// packets are served in order; a packet with a nil Data slice is
	// replaced by readErr.
	packets []*media.Packet
	readErr error

	probeDeadline time.Time
}

func (s *fakeSource) Probe(ctx context.Context) ([]*media.Stream, error) {
	s.probeDeadline, _ = ctx.Deadline()
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	return s.streams, nil
}

func (s *fakeSource) ReadPacket() (*media.Packet, error) {
	if len(s.packets) == 0 {
		return nil, io.EOF
	}
	p := s.packets[0]
	s.packets = s.packets[1:]
	if p.Data == nil {
		return nil, s.readErr
	}
	s.c.packetsRead++
	c := s.c
	return media.NewPacket(p.StreamIndex, p.Data, func() { c.packetsReleased++ }), nil
}

func (s *fakeSource) Close() error {
	s.c.closed++
	return nil
}

// step scripts the decoder's answer to one packet.
type step struct {
	sendErr error
	recvErr error
	frame   *codec.Frame
}

type fakeDecoder struct {
	c     *counters
	steps []step
	cur   *step
}

func (d *fakeDecoder) SendPacket(pkt *media.Packet) error {
	if len(d.steps) == 0 {
		d.cur = &step{recvErr: codec.ErrAgain}
		return nil
	}
	d.cur = &d.steps[0]
	d.steps = d.steps[1:]
	return d.cur.sendErr
}

func (d *fakeDecoder) ReceiveFrame() (*codec.Frame, error) {
	if d.cur == nil || d.cur.frame == nil {
		if d.cur != nil && d.cur.recvErr != nil {
			return nil, d.cur.recvErr
		}
		return nil, codec.ErrAgain
	}
	f := d.cur.frame
	d.cur = nil
	d.c.framesOut++
	return f, nil
}

func (d *fakeDecoder) Close() error {
	d.c.decodersClosed++
	return nil
}

func fakeCodec(name string, c *counters, initErr error, steps ...step) codec.Codec {
	return codec.New(name, func(stream *media.Stream) (codec.Decoder, error) {
		if initErr != nil {
			return nil, initErr
		}
		c.decodersOpened++
		return &fakeDecoder{c: c, steps: append([]step(nil), steps...)}, nil
	})
}

func rgbFrame(w, h int) *codec.Frame {
	return &codec.Frame{
		Width:       w,
		Height:      h,
		PixelFormat: codec.PixelFormatRGB24,
		Planes:      [][]byte{make([]byte, w*h*3)},
		Strides:     []int{w * 3},
	}
}

func packets(n int) []*media.Packet {
	out := make([]*media.Packet, n)
	for i := range out {
		out[i] = &media.Packet{StreamIndex: 0, Data: []byte{byte(i)}}
	}
	return out
}

var errInjected = errors.New("injected failure")

// fixture registers a fake format and codec under names unique to t.
type fixture struct {
	c      counters
	format *fakeFormat
	codec  string
}

func newFixture(t *testing.T, src func(fx *fixture) *fakeSource, steps ...step) *fixture {
	t.Helper()
	ensureBackendRegistered()

	name := "fake-" + strings.ReplaceAll(t.Name(), "/", "-")
	fx := &fixture{codec: name + "-codec"}
	fx.format = &fakeFormat{name: name, c: &fx.c}
	fx.format.source = func() *fakeSource { return src(fx) }
	RegisterInputFormat(fx.format)
	codec.Register(fakeCodec(fx.codec, &fx.c, nil, steps...))
	return fx
}

func (fx *fixture) options() *Options {
	return &Options{InputFormat: fx.format.name, Logger: debuglog.Discard()}
}

func (fx *fixture) videoStream() []*media.Stream {
	return []*media.Stream{{Index: 0, Type: media.TypeVideo, Codec: fx.codec, Width: 640, Height: 480}}
}
