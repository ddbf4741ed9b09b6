package capture

import (
	"image"
	"image/color"
	"math"

	"go2tv.app/screengrab/codec"
)

// maxImageBytes caps the RGB buffer of a single frame at 1 GiB.
const maxImageBytes = 1 << 30

// ExtractRGB converts frame into a freshly allocated RGB24 image owned by
// the caller. Alpha, where the source carries any, is composited over
// black.
func ExtractRGB(frame *codec.Frame) (*Image, error) {
	if frame == nil {
		return nil, errorf(DecodeFailed, "no frame to extract")
	}
	size, err := rgbSize(frame.Width, frame.Height)
	if err != nil {
		return nil, err
	}

	if frame.Image != nil {
		b := frame.Image.Bounds()
		if b.Dx() != frame.Width || b.Dy() != frame.Height {
			return nil, errorf(DecodeFailed, "frame is %dx%d but its image is %dx%d",
				frame.Width, frame.Height, b.Dx(), b.Dy())
		}
		img := &Image{Width: frame.Width, Height: frame.Height, Pix: make([]byte, size)}
		fromImage(img, frame.Image)
		return img, nil
	}

	layout, ok := codec.LayoutOf(frame.PixelFormat)
	if !ok {
		return nil, errorf(DecodeFailed, "cannot convert pixel format %q", frame.PixelFormat)
	}
	if len(frame.Planes) == 0 || len(frame.Strides) == 0 {
		return nil, errorf(DecodeFailed, "%s frame has no planes", frame.PixelFormat)
	}
	plane, stride := frame.Planes[0], frame.Strides[0]
	minStride := layout.MinStride(frame.Width)
	if stride < minStride || len(plane) < stride*(frame.Height-1)+minStride {
		return nil, errorf(DecodeFailed, "%s plane of %d bytes with stride %d is too small for %dx%d",
			frame.PixelFormat, len(plane), stride, frame.Width, frame.Height)
	}

	img := &Image{Width: frame.Width, Height: frame.Height, Pix: make([]byte, size)}
	if layout.Packed422 {
		fromPacked422(img, plane, stride, layout)
	} else {
		fromPackedRGB(img, plane, stride, layout)
	}
	return img, nil
}

func rgbSize(width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, errorf(AllocationFailed, "invalid frame geometry %dx%d", width, height)
	}
	if width > math.MaxInt/3/height {
		return 0, errorf(AllocationFailed, "frame %dx%d overflows", width, height)
	}
	size := width * height * 3
	if size > maxImageBytes {
		return 0, errorf(AllocationFailed, "frame %dx%d needs %d bytes, limit is %d", width, height, size, maxImageBytes)
	}
	return size, nil
}

// fromPackedRGB copies packed RGB pixels. Screen grabbers leave the fourth
// byte of 32-bit layouts undefined, so it is never read as alpha.
func fromPackedRGB(img *Image, plane []byte, stride int, l codec.Layout) {
	bpp := l.BytesPerPixel
	for y := 0; y < img.Height; y++ {
		src := plane[y*stride:]
		dst := img.Pix[y*img.Stride():]
		for x := 0; x < img.Width; x++ {
			p := src[x*bpp:]
			dst[x*3] = p[l.R]
			dst[x*3+1] = p[l.G]
			dst[x*3+2] = p[l.B]
		}
	}
}

func fromPacked422(img *Image, plane []byte, stride int, l codec.Layout) {
	for y := 0; y < img.Height; y++ {
		src := plane[y*stride:]
		dst := img.Pix[y*img.Stride():]
		for x := 0; x < img.Width; x += 2 {
			m := src[x*2:]
			cb, cr := m[l.U], m[l.V]
			r, g, b := color.YCbCrToRGB(m[l.Y0], cb, cr)
			dst[x*3], dst[x*3+1], dst[x*3+2] = r, g, b
			if x+1 < img.Width {
				r, g, b = color.YCbCrToRGB(m[l.Y1], cb, cr)
				dst[x*3+3], dst[x*3+4], dst[x*3+5] = r, g, b
			}
		}
	}
}

func fromImage(img *Image, src image.Image) {
	b := src.Bounds()
	switch s := src.(type) {
	case *image.RGBA:
		// Premultiplied values already are the color over black.
		for y := 0; y < img.Height; y++ {
			row := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := img.Pix[y*img.Stride():]
			for x := 0; x < img.Width; x++ {
				dst[x*3] = row[x*4]
				dst[x*3+1] = row[x*4+1]
				dst[x*3+2] = row[x*4+2]
			}
		}
	case *image.NRGBA:
		for y := 0; y < img.Height; y++ {
			row := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := img.Pix[y*img.Stride():]
			for x := 0; x < img.Width; x++ {
				a := uint32(row[x*4+3])
				dst[x*3] = overBlack(row[x*4], a)
				dst[x*3+1] = overBlack(row[x*4+1], a)
				dst[x*3+2] = overBlack(row[x*4+2], a)
			}
		}
	case *image.YCbCr:
		for y := 0; y < img.Height; y++ {
			dst := img.Pix[y*img.Stride():]
			for x := 0; x < img.Width; x++ {
				yi := s.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := s.COffset(b.Min.X+x, b.Min.Y+y)
				dst[x*3], dst[x*3+1], dst[x*3+2] = color.YCbCrToRGB(s.Y[yi], s.Cb[ci], s.Cr[ci])
			}
		}
	case *image.Gray:
		for y := 0; y < img.Height; y++ {
			row := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := img.Pix[y*img.Stride():]
			for x := 0; x < img.Width; x++ {
				dst[x*3], dst[x*3+1], dst[x*3+2] = row[x], row[x], row[x]
			}
		}
	default:
		for y := 0; y < img.Height; y++ {
			dst := img.Pix[y*img.Stride():]
			for x := 0; x < img.Width; x++ {
				r, g, bb, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				dst[x*3] = uint8(r >> 8)
				dst[x*3+1] = uint8(g >> 8)
				dst[x*3+2] = uint8(bb >> 8)
			}
		}
	}
}

func overBlack(c uint8, a uint32) uint8 {
	return uint8((uint32(c)*a + 127) / 255)
}
