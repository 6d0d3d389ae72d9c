package scan

import (
	"errors"
)

// ErrInvalidROI is returned when a region does not fit inside the buffer
var ErrInvalidROI = errors.New("invalid ROI")

// ROI represents a region of interest for focused scanning
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CenterROI returns a centred region covering fraction of each dimension.
// Fractions outside (0,1) fall back to 0.7.
func CenterROI(width, height int, fraction float64) ROI {
	if fraction <= 0 || fraction >= 1 {
		fraction = 0.7
	}

	w := int(float64(width) * fraction)
	h := int(float64(height) * fraction)
	return ROI{
		X:      (width - w) / 2,
		Y:      (height - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Crop copies roi out of buf into a new buffer
func (buf *PixelBuffer) Crop(roi ROI) (*PixelBuffer, error) {
	if buf == nil {
		return nil, ErrInvalidROI
	}
	if roi.X < 0 || roi.Y < 0 || roi.Width <= 0 || roi.Height <= 0 ||
		roi.X > buf.Width || roi.Y > buf.Height ||
		roi.Width > buf.Width-roi.X || roi.Height > buf.Height-roi.Y {
		return nil, ErrInvalidROI
	}
	if buf.Width <= 0 || buf.Height <= 0 || !pixLenMatches(len(buf.Pix), buf.Width, buf.Height) {
		return nil, &DecodeError{Message: "pixel data does not match dimensions"}
	}

	out := &PixelBuffer{
		Pix:    make([]byte, roi.Width*roi.Height*4),
		Width:  roi.Width,
		Height: roi.Height,
	}
	rowBytes := roi.Width * 4
	for y := 0; y < roi.Height; y++ {
		src := ((roi.Y+y)*buf.Width + roi.X) * 4
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], buf.Pix[src:src+rowBytes])
	}
	return out, nil
}
