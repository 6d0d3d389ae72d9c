package scan

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// Source is anything that can be drawn onto an offscreen raster surface:
// a loaded still image or a playing video.
type Source interface {
	// Size returns the natural (or current frame) dimensions.
	Size() (width, height int)
	// DrawTo draws the source at the origin of dst.
	DrawTo(dst *image.RGBA) error
}

// StillImage adapts a decoded image to Source
type StillImage struct {
	Image image.Image
}

func (s StillImage) Size() (int, int) {
	if s.Image == nil {
		return 0, 0
	}
	b := s.Image.Bounds()
	return b.Dx(), b.Dy()
}

func (s StillImage) DrawTo(dst *image.RGBA) error {
	if s.Image == nil {
		return errors.New("no image")
	}
	draw.Draw(dst, dst.Bounds(), s.Image, s.Image.Bounds().Min, draw.Src)
	return nil
}

// Extract rasterises src into a pixel buffer of exactly its natural size.
// No scaling is applied.
func Extract(src Source) (*PixelBuffer, error) {
	if src == nil {
		return nil, &ExtractionError{}
	}

	width, height := src.Size()
	if width <= 0 || height <= 0 {
		return nil, &ExtractionError{Width: width, Height: height}
	}

	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := src.DrawTo(surface); err != nil {
		return nil, &ExtractionError{Width: width, Height: height, Cause: err}
	}

	return &PixelBuffer{
		Pix:    surface.Pix,
		Width:  width,
		Height: height,
	}, nil
}

// bufferToImage wraps a validated buffer as an image without copying
func bufferToImage(buf *PixelBuffer) (*image.RGBA, error) {
	if buf == nil {
		return nil, &DecodeError{Message: "nil pixel buffer"}
	}
	if buf.Width <= 0 || buf.Height <= 0 {
		return nil, &DecodeError{Message: "non-positive buffer dimensions"}
	}
	if !pixLenMatches(len(buf.Pix), buf.Width, buf.Height) {
		return nil, &DecodeError{Message: "pixel data length does not match dimensions"}
	}

	return &image.RGBA{
		Pix:    buf.Pix,
		Stride: buf.Width * 4,
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}, nil
}

// pixLenMatches reports whether n == width*height*4 without overflowing.
// Both dimensions must already be positive.
func pixLenMatches(n, width, height int) bool {
	if n%4 != 0 {
		return false
	}
	px := n / 4
	if width > px/height {
		return false
	}
	return width*height == px
}
