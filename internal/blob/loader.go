package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered decoders for image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds decoded uploads when no limit is configured
const DefaultMaxPixels = 40_000_000

var (
	// ErrNotImage is returned when the content is not an image type
	ErrNotImage = errors.New("content is not an image")
	// ErrTooManyPixels is returned when the declared dimensions exceed the limit
	ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")
)

// LoadError is returned when a file cannot be loaded as an image
type LoadError struct {
	URL   string
	MIME  string
	Cause error
}

func (e *LoadError) Error() string {
	if e.MIME != "" {
		return fmt.Sprintf("failed to load %s (%s): %v", e.URL, e.MIME, e.Cause)
	}
	return fmt.Sprintf("failed to load %s: %v", e.URL, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Loader turns a URL into a decoded image
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// ImageLoader loads images from a Registry
type ImageLoader struct {
	registry  *Registry
	maxPixels int
}

// NewImageLoader creates a loader backed by registry that refuses images
// larger than maxPixels. Zero or less means DefaultMaxPixels.
func NewImageLoader(registry *Registry, maxPixels int) *ImageLoader {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &ImageLoader{registry: registry, maxPixels: maxPixels}
}

// Load resolves url and decodes it. Content is sniffed before decoding so
// non-image files fail without touching the image decoders.
func (l *ImageLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{URL: url, Cause: err}
	}

	f, err := l.registry.Resolve(url)
	if err != nil {
		return nil, &LoadError{URL: url, Cause: err}
	}
	if len(f.Data) == 0 {
		return nil, &LoadError{URL: url, Cause: errors.New("empty file")}
	}

	mt := mimetype.Detect(f.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, &LoadError{URL: url, MIME: mt.String(), Cause: ErrNotImage}
	}

	// header only, so oversized images are refused before any pixel allocation
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return nil, &LoadError{URL: url, MIME: mt.String(), Cause: err}
	}
	if cfg.Width > 0 && cfg.Height > l.maxPixels/cfg.Width {
		return nil, &LoadError{
			URL:   url,
			MIME:  mt.String(),
			Cause: fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, &LoadError{URL: url, MIME: mt.String(), Cause: err}
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &LoadError{URL: url, MIME: mt.String(), Cause: errors.New("image has no pixels")}
	}

	return img, nil
}
