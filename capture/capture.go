// Package capture grabs one still frame from the desktop and returns it as
// packed RGB24.
//
// A capture runs four stages in order: OpenSource acquires and probes the
// platform input, SelectVideoStream picks a stream and its codec,
// DecodeOneFrame pumps packets until the decoder yields a frame, and
// ExtractRGB converts that frame into a tightly sized RGB buffer. Screenshot
// runs all of them and releases every resource on the way out.
package capture

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"time"
)

// StreamPolicy decides which probed stream is decoded.
type StreamPolicy int

const (
	// FirstStream takes stream 0 whatever its type.
	FirstStream StreamPolicy = iota
	// FirstVideoStream takes the first stream of type video.
	FirstVideoStream
)

func (p StreamPolicy) String() string {
	switch p {
	case FirstStream:
		return "first"
	case FirstVideoStream:
		return "first-video"
	default:
		return "unknown"
	}
}

// Options configures a capture. The zero value captures the platform
// default screen.
type Options struct {
	// InputFormat names the registered input format. Empty selects the
	// platform default (gdigrab, x11grab, xdg-portal or avfoundation).
	InputFormat string
	// Path is the device path. Empty selects the format's default.
	Path string
	// FrameRate is negotiated as the "framerate" device option. Default 30.
	FrameRate int
	// DeviceOptions are passed to the device verbatim and win over
	// negotiated values.
	DeviceOptions map[string]string
	// FFmpegPath is the ffmpeg executable. Default "ffmpeg" from PATH.
	FFmpegPath string
	// ProbeTimeout bounds device open and stream probing. Default 5s.
	ProbeTimeout time.Duration
	StreamPolicy StreamPolicy
	Logger       *slog.Logger
}

// Image is a packed RGB24 picture: 3 bytes per pixel, rows top to bottom,
// no padding.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// Stride is the byte length of one row.
func (img *Image) Stride() int { return img.Width * 3 }

// RGBA copies the picture into an *image.RGBA.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		src := img.Pix[y*img.Stride() : (y+1)*img.Stride()]
		dst := out.Pix[y*out.Stride : y*out.Stride+img.Width*4]
		for x := 0; x < img.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return out
}

// At returns the color of pixel (x, y).
func (img *Image) At(x, y int) color.RGBA {
	i := y*img.Stride() + x*3
	return color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: 0xff}
}

// Screenshot captures one frame with options (nil for defaults). It
// returns either an image or an *Error, never both.
func Screenshot(ctx context.Context, options *Options) (*Image, error) {
	options, err := validateOptions(options)
	if err != nil {
		return nil, newError(OpenFailed, err)
	}
	logger := options.Logger

	img, err := runPipeline(ctx, options)
	if err != nil {
		kind, _ := KindOf(err)
		logger.Warn("screenshot failed", "kind", kind.String(), "err", err)
		return nil, err
	}
	logger.Debug("screenshot captured", "width", img.Width, "height", img.Height, "bytes", len(img.Pix))
	return img, nil
}

func runPipeline(ctx context.Context, options *Options) (*Image, error) {
	src, err := OpenSource(ctx, options)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	stream, c, err := SelectVideoStream(src, options.StreamPolicy)
	if err != nil {
		return nil, err
	}

	frame, err := DecodeOneFrame(src, stream, c)
	if err != nil {
		return nil, err
	}
	return ExtractRGB(frame)
}
