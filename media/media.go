// Package media holds the types shared between capture backends and decoders.
package media

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrBackendUnavailable is returned by a backend when the platform does not
// expose the requested capture facility.
var ErrBackendUnavailable = errors.New("capture backend is not available on this system")

// Type is the kind of data carried by a stream.
type Type string

const (
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeData     Type = "data"
	TypeSubtitle Type = "subtitle"
	TypeUnknown  Type = "unknown"
)

// Stream describes one channel of an opened capture source.
type Stream struct {
	Index       int
	Type        Type
	Codec       string
	PixelFormat string
	Width       int
	Height      int
	FrameRate   float64
}

// Source is an opened capture input. Probe must be called before ReadPacket.
type Source interface {
	// Probe reads enough of the input to describe its streams.
	Probe(ctx context.Context) ([]*Stream, error)
	// ReadPacket blocks until the next packet is available. It returns
	// io.EOF when the input is exhausted.
	ReadPacket() (*Packet, error)
	Close() error
}

// OpenRequest is what an input format needs to open a device.
type OpenRequest struct {
	Path    string
	Options map[string]string

	// Program is the helper executable for subprocess backends. Empty
	// selects the backend default.
	Program string
	// Timeout bounds how long Open waits for the device to come up.
	Timeout time.Duration
	Logger  *slog.Logger
}
