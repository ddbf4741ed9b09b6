// Package codec turns compressed capture packets into decoded frames.
//
// Decoders follow a send/receive contract: every packet goes in through
// SendPacket and decoded frames come out of ReceiveFrame. ReceiveFrame
// returns ErrAgain when the decoder needs more input and ErrEOF once a
// flushed decoder (SendPacket(nil)) has nothing left.
package codec

import (
	"image"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go2tv.app/screengrab/media"
)

var (
	ErrAgain  = errors.New("decoder needs more input")
	ErrEOF    = errors.New("decoder reached end of stream")
	ErrClosed = errors.New("decoder is closed")

	ErrInvalidParams          = errors.New("invalid decoder parameters")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrPacketSize             = errors.New("packet size does not match frame geometry")
)

// Frame is one decoded picture. Image codecs fill Image; raw codecs fill
// Planes and Strides in PixelFormat.
type Frame struct {
	Width       int
	Height      int
	PixelFormat PixelFormat
	Planes      [][]byte
	Strides     []int
	Image       image.Image
}

// Decoder is an opened decoder instance bound to one stream.
type Decoder interface {
	// SendPacket submits one packet. A nil packet starts draining.
	SendPacket(pkt *media.Packet) error
	// ReceiveFrame returns the next decoded frame, ErrAgain or ErrEOF.
	ReceiveFrame() (*Frame, error)
	Close() error
}

// Codec creates decoders for one codec identifier.
type Codec interface {
	Name() string
	// NewDecoder transfers the stream parameters into a fresh decoder.
	NewDecoder(stream *media.Stream) (Decoder, error)
}

type funcCodec struct {
	name string
	fn   func(stream *media.Stream) (Decoder, error)
}

func (c *funcCodec) Name() string { return c.name }

func (c *funcCodec) NewDecoder(stream *media.Stream) (Decoder, error) {
	if stream == nil {
		return nil, errors.Wrap(ErrInvalidParams, "nil stream")
	}
	return c.fn(stream)
}

// New returns a Codec named name that opens decoders with fn.
func New(name string, fn func(stream *media.Stream) (Decoder, error)) Codec {
	return &funcCodec{name: name, fn: fn}
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Codec)
)

// Register makes c available to Find under c.Name(). A later registration
// with the same name replaces the earlier one.
func Register(c Codec) {
	if c == nil || c.Name() == "" {
		return
	}
	registryMu.Lock()
	registry[c.Name()] = c
	registryMu.Unlock()
}

// Find looks up a codec by identifier.
func Find(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// Names lists the registered codec identifiers in sorted order.
func Names() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()
	sort.Strings(names)
	return names
}

// RegisterBuiltins registers the bmp, png and rawvideo decoders.
func RegisterBuiltins() {
	Register(BMP)
	Register(PNG)
	Register(RawVideo)
}
