package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go2tv.app/screengrab/media"
)

// Source is an opened and probed capture input. It holds the OS capture
// resource until Close.
type Source struct {
	// Format is the input format name, e.g. "gdigrab".
	Format string
	Path   string
	// Options are the device options negotiated at open.
	Options map[string]string
	Streams []*media.Stream

	handle media.Source
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenSource resolves the input format, opens its device and probes the
// streams. The returned Source must be closed.
func OpenSource(ctx context.Context, options *Options) (*Source, error) {
	ensureBackendRegistered()

	o, err := validateOptions(options)
	if err != nil {
		return nil, newError(OpenFailed, err)
	}
	logger := o.Logger

	if o.InputFormat == "" {
		return nil, errorf(BackendUnavailable, "no default screen input format on this platform")
	}
	format, ok := findInputFormat(o.InputFormat)
	if !ok {
		return nil, errorf(BackendUnavailable, "input format %q is not registered", o.InputFormat)
	}

	path := o.Path
	if path == "" {
		path = format.DefaultPath()
	}
	negotiated := negotiateOptions(format.Name(), path, o)
	logger.Debug("opening capture source", "format", format.Name(), "path", path, "options", negotiated)

	// Open and Probe share one ProbeTimeout budget.
	deadline := time.Now().Add(o.ProbeTimeout)

	handle, err := format.Open(ctx, media.OpenRequest{
		Path:    path,
		Options: negotiated,
		Program: o.FFmpegPath,
		Timeout: o.ProbeTimeout,
		Logger:  logger,
	})
	if err != nil {
		if errors.Is(err, media.ErrBackendUnavailable) {
			return nil, newError(BackendUnavailable, err)
		}
		return nil, newError(OpenFailed, err)
	}

	cleanup := true
	defer func() {
		if cleanup {
			_ = handle.Close()
		}
	}()

	probeCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	streams, err := handle.Probe(probeCtx)
	if err != nil {
		return nil, newError(ProbeFailed, err)
	}
	if len(streams) == 0 {
		return nil, errorf(ProbeFailed, "%s reported no streams", format.Name())
	}

	cleanup = false
	return &Source{
		Format:  format.Name(),
		Path:    path,
		Options: negotiated,
		Streams: streams,
		handle:  handle,
		logger:  logger,
	}, nil
}

// Close releases the capture resource. It is safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.handle.Close()
		s.logger.Debug("capture source closed", "format", s.Format, "err", s.closeErr)
	})
	return s.closeErr
}
