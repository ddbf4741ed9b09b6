package capture

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the stage that produced it.
type Kind int

const (
	BackendUnavailable Kind = iota + 1
	OpenFailed
	ProbeFailed
	UnsupportedCodec
	DecoderInitFailed
	DecodeFailed
	NoFrameProduced
	AllocationFailed
)

func (k Kind) String() string {
	switch k {
	case BackendUnavailable:
		return "backend unavailable"
	case OpenFailed:
		return "open failed"
	case ProbeFailed:
		return "probe failed"
	case UnsupportedCodec:
		return "unsupported codec"
	case DecoderInitFailed:
		return "decoder init failed"
	case DecodeFailed:
		return "decode failed"
	case NoFrameProduced:
		return "no frame produced"
	case AllocationFailed:
		return "allocation failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the terminal failure of a capture. errors.Is matches it against
// the Err* sentinels by Kind.
type Error struct {
	Kind Kind
	Err  error
}

var (
	ErrBackendUnavailable = &Error{Kind: BackendUnavailable}
	ErrOpenFailed         = &Error{Kind: OpenFailed}
	ErrProbeFailed        = &Error{Kind: ProbeFailed}
	ErrUnsupportedCodec   = &Error{Kind: UnsupportedCodec}
	ErrDecoderInitFailed  = &Error{Kind: DecoderInitFailed}
	ErrDecodeFailed       = &Error{Kind: DecodeFailed}
	ErrNoFrameProduced    = &Error{Kind: NoFrameProduced}
	ErrAllocationFailed   = &Error{Kind: AllocationFailed}
)

// ErrInvalidOptions is wrapped into OpenFailed errors for bad Options.
var ErrInvalidOptions = errors.New("invalid screen capture options")

func (e *Error) Error() string {
	if e.Err == nil {
		return "capture: " + e.Kind.String()
	}
	return "capture: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the failure kind carried by err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
