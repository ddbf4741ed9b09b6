package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go2tv.app/screengrab/internal/debuglog"
)

const (
	defaultFrameRate    = 30
	defaultProbeTimeout = 5 * time.Second
)

// validateOptions returns a normalized copy of options with defaults
// filled in.
func validateOptions(options *Options) (*Options, error) {
	o := Options{}
	if options != nil {
		o = *options
	}
	if o.FrameRate < 0 {
		return nil, fmt.Errorf("%w: FrameRate must be >= 0", ErrInvalidOptions)
	}
	if o.ProbeTimeout < 0 {
		return nil, fmt.Errorf("%w: ProbeTimeout must be >= 0", ErrInvalidOptions)
	}
	if o.StreamPolicy != FirstStream && o.StreamPolicy != FirstVideoStream {
		return nil, fmt.Errorf("%w: unknown StreamPolicy %d", ErrInvalidOptions, int(o.StreamPolicy))
	}
	for k := range o.DeviceOptions {
		if strings.TrimSpace(k) == "" || strings.HasPrefix(k, "-") {
			return nil, fmt.Errorf("%w: bad device option name %q", ErrInvalidOptions, k)
		}
	}

	if o.FrameRate == 0 {
		o.FrameRate = defaultFrameRate
	}
	if o.ProbeTimeout == 0 {
		o.ProbeTimeout = defaultProbeTimeout
	}
	o.InputFormat = strings.TrimSpace(o.InputFormat)
	if o.InputFormat == "" {
		o.InputFormat = defaultInputFormat()
	}
	if o.Logger == nil {
		o.Logger = debuglog.Logger()
	}
	return &o, nil
}

// negotiateOptions builds the device option set: the frame-rate hint,
// platform defaults, then the caller's DeviceOptions on top.
func negotiateOptions(format, path string, o *Options) map[string]string {
	negotiated := map[string]string{
		"framerate": strconv.Itoa(o.FrameRate),
	}
	for k, v := range platformOptions(format, path, o) {
		negotiated[k] = v
	}
	for k, v := range o.DeviceOptions {
		negotiated[k] = v
	}
	return negotiated
}
