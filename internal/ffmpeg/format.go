// Package ffmpeg drives libavdevice screen grabbers through the ffmpeg
// executable and hands their packets back unmodified (stream copy).
package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"go2tv.app/screengrab/media"
)

const DefaultProgram = "ffmpeg"

// Format is one ffmpeg input device usable as a screen source.
type Format struct {
	Device string
	// Path opened when the request does not name one. PathEnv, when set
	// in the environment, takes precedence.
	Path    string
	PathEnv string
	// Muxer carries the copied stream over stdout.
	Muxer   string
	Options map[string]string
}

var (
	// GDIGrab captures the Windows desktop as BMP packets.
	GDIGrab = &Format{Device: "gdigrab", Path: "desktop", Muxer: "image2pipe"}
	// X11Grab captures an X11 display as rawvideo.
	X11Grab = &Format{Device: "x11grab", Path: ":0.0", PathEnv: "DISPLAY", Muxer: "rawvideo"}
	// AVFoundation captures the first macOS screen. bgr0 keeps the stream
	// in a packed layout.
	AVFoundation = &Format{
		Device: "avfoundation",
		Path:   "Capture screen 0:none",
		Muxer:  "rawvideo",
		Options: map[string]string{
			"pixel_format":   "bgr0",
			"capture_cursor": "1",
		},
	}
	// FBDev reads the Linux framebuffer console.
	FBDev = &Format{Device: "fbdev", Path: "/dev/fb0", Muxer: "rawvideo"}
)

// Formats lists every built-in ffmpeg input format.
func Formats() []*Format {
	return []*Format{GDIGrab, X11Grab, AVFoundation, FBDev}
}

func (f *Format) Name() string { return f.Device }

func (f *Format) DefaultPath() string {
	if f.PathEnv != "" {
		if v := strings.TrimSpace(os.Getenv(f.PathEnv)); v != "" {
			return v
		}
	}
	return f.Path
}

// Open starts ffmpeg on the device and waits until the input is open.
func (f *Format) Open(ctx context.Context, req media.OpenRequest) (media.Source, error) {
	program := req.Program
	if strings.TrimSpace(program) == "" {
		program = DefaultProgram
	}
	if _, err := exec.LookPath(program); err != nil {
		return nil, errors.Wrapf(media.ErrBackendUnavailable, "ffmpeg lookup %q: %v", program, err)
	}

	devices, err := ListDevices(ctx, program)
	if err != nil {
		return nil, errors.Wrapf(media.ErrBackendUnavailable, "%v", err)
	}
	if info, ok := devices[f.Device]; !ok || !info.Demux {
		return nil, errors.Wrapf(media.ErrBackendUnavailable, "ffmpeg build has no %s input device", f.Device)
	}

	path := req.Path
	if path == "" {
		path = f.DefaultPath()
	}
	src, err := start(ctx, program, f.args(path, req.Options), req)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (f *Format) args(path string, options map[string]string) []string {
	merged := make(map[string]string, len(f.Options)+len(options))
	for k, v := range f.Options {
		merged[k] = v
	}
	for k, v := range options {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-nostats",
		"-loglevel", "info",
		"-f", f.Device,
	}
	for _, k := range keys {
		args = append(args, "-"+k, merged[k])
	}
	return append(args,
		"-i", path,
		"-map", "0:v:0",
		"-c", "copy",
		"-f", f.Muxer,
		"pipe:1",
	)
}
