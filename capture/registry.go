package capture

import (
	"context"
	"sort"
	"sync"

	"go2tv.app/screengrab/codec"
	"go2tv.app/screengrab/internal/ffmpeg"
	"go2tv.app/screengrab/internal/xdgportal"
	"go2tv.app/screengrab/media"
)

// InputFormat opens a named screen capture device.
type InputFormat interface {
	Name() string
	// DefaultPath is opened when Options.Path is empty.
	DefaultPath() string
	// Open starts the device. Errors wrapping media.ErrBackendUnavailable
	// mean the platform lacks the facility altogether.
	Open(ctx context.Context, req media.OpenRequest) (media.Source, error)
}

var (
	formatsMu sync.RWMutex
	formats   = make(map[string]InputFormat)

	registerOnce sync.Once
)

// RegisterInputFormat makes f available under f.Name(), replacing any
// format already registered with that name.
func RegisterInputFormat(f InputFormat) {
	if f == nil || f.Name() == "" {
		return
	}
	formatsMu.Lock()
	formats[f.Name()] = f
	formatsMu.Unlock()
}

// InputFormats lists the registered input format names.
func InputFormats() []string {
	ensureBackendRegistered()

	formatsMu.RLock()
	defer formatsMu.RUnlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func findInputFormat(name string) (InputFormat, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	f, ok := formats[name]
	return f, ok
}

// registerBuiltin keeps formats registered by the host before first use.
func registerBuiltin(f InputFormat) {
	formatsMu.Lock()
	if _, ok := formats[f.Name()]; !ok {
		formats[f.Name()] = f
	}
	formatsMu.Unlock()
}

// ensureBackendRegistered installs the built-in input formats and codecs
// once per process.
func ensureBackendRegistered() {
	registerOnce.Do(func() {
		for _, f := range ffmpeg.Formats() {
			registerBuiltin(f)
		}
		registerBuiltin(xdgportal.Screenshot)
		codec.RegisterBuiltins()
	})
}
