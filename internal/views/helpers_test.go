package views

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"go-qr-webapp/internal/blob"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func qrImage(t *testing.T, text string) image.Image {
	t.Helper()
	code, err := qrcode.New(text, qrcode.Medium)
	require.NoError(t, err)
	return code.Image(256)
}

func blankImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func pngFile(t *testing.T, name string, img image.Image) *blob.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &blob.File{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

// gatedLoader holds every load until gate is closed
type gatedLoader struct {
	gate  chan struct{}
	inner blob.Loader
}

func (l *gatedLoader) Load(ctx context.Context, url string) (image.Image, error) {
	<-l.gate
	return l.inner.Load(ctx, url)
}

// staticLoader ignores the URL and returns img
type staticLoader struct {
	img image.Image
}

func (l staticLoader) Load(context.Context, string) (image.Image, error) {
	return l.img, nil
}

// panicImage blows up when its pixels are read
type panicImage struct{}

func (panicImage) ColorModel() color.Model {
	return color.RGBAModel
}

func (panicImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, 8, 8)
}

func (panicImage) At(int, int) color.Color {
	panic("pixel read failed")
}
