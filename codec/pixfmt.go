package codec

import "strings"

// PixelFormat names a raw pixel layout using ffmpeg's pix_fmt spelling.
type PixelFormat string

const (
	PixelFormatBGRA    PixelFormat = "bgra"
	PixelFormatBGR0    PixelFormat = "bgr0"
	PixelFormatRGBA    PixelFormat = "rgba"
	PixelFormatRGB0    PixelFormat = "rgb0"
	PixelFormatARGB    PixelFormat = "argb"
	PixelFormat0RGB    PixelFormat = "0rgb"
	PixelFormatABGR    PixelFormat = "abgr"
	PixelFormat0BGR    PixelFormat = "0bgr"
	PixelFormatRGB24   PixelFormat = "rgb24"
	PixelFormatBGR24   PixelFormat = "bgr24"
	PixelFormatYUYV422 PixelFormat = "yuyv422"
	PixelFormatUYVY422 PixelFormat = "uyvy422"
)

// Layout describes where the color components of a packed format live.
// RGB layouts use R, G and B as byte offsets inside one pixel. 4:2:2 layouts
// describe a two-pixel macropixel of four bytes.
type Layout struct {
	BytesPerPixel int
	R, G, B       int

	Packed422 bool
	Y0, U     int
	Y1, V     int
}

// MinStride is the smallest valid line size in bytes for width pixels.
func (l Layout) MinStride(width int) int {
	if l.Packed422 {
		return (width + 1) / 2 * 4
	}
	return width * l.BytesPerPixel
}

var layouts = map[PixelFormat]Layout{
	PixelFormatBGRA:    {BytesPerPixel: 4, R: 2, G: 1, B: 0},
	PixelFormatBGR0:    {BytesPerPixel: 4, R: 2, G: 1, B: 0},
	PixelFormatRGBA:    {BytesPerPixel: 4, R: 0, G: 1, B: 2},
	PixelFormatRGB0:    {BytesPerPixel: 4, R: 0, G: 1, B: 2},
	PixelFormatARGB:    {BytesPerPixel: 4, R: 1, G: 2, B: 3},
	PixelFormat0RGB:    {BytesPerPixel: 4, R: 1, G: 2, B: 3},
	PixelFormatABGR:    {BytesPerPixel: 4, R: 3, G: 2, B: 1},
	PixelFormat0BGR:    {BytesPerPixel: 4, R: 3, G: 2, B: 1},
	PixelFormatRGB24:   {BytesPerPixel: 3, R: 0, G: 1, B: 2},
	PixelFormatBGR24:   {BytesPerPixel: 3, R: 2, G: 1, B: 0},
	PixelFormatYUYV422: {BytesPerPixel: 2, Packed422: true, Y0: 0, U: 1, Y1: 2, V: 3},
	PixelFormatUYVY422: {BytesPerPixel: 2, Packed422: true, U: 0, Y0: 1, V: 2, Y1: 3},
}

// LayoutOf returns the packed layout of pf.
func LayoutOf(pf PixelFormat) (Layout, bool) {
	l, ok := layouts[PixelFormat(strings.ToLower(string(pf)))]
	return l, ok
}
