package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"go-qr-webapp/internal/config"
	"go-qr-webapp/internal/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func roundTrip(t *testing.T, img image.Image) scan.Result {
	t.Helper()
	return scan.NewDecoder(true).ScanSource(scan.StillImage{Image: img}, scan.SourceImage)
}

func TestGenerate_RoundTrip(t *testing.T) {
	engines := []string{config.EngineSkip2, config.EngineBoombuler}
	sizes := []int{100, 200, 600}
	cases := []struct {
		name       string
		text       string
		foreground string
		background string
	}{
		{"dark on light", "HELLO", "#1a237e", "#fff8e1"},
		{"light on dark", "HELLO", "#ffffff", "#000000"},
		{"utf-8", "héllo 日本語", "#000000", "#ffffff"},
	}

	for _, engine := range engines {
		svc := NewQRService(config.GeneratorConfig{Engine: engine})
		for _, tc := range cases {
			for _, size := range sizes {
				res, err := svc.Generate(GenerationRequest{
					Text:       tc.text,
					SizePx:     size,
					Foreground: tc.foreground,
					Background: tc.background,
				})
				require.NoError(t, err, "%s/%s/%d", engine, tc.name, size)

				img := decodePNG(t, res.PNG)
				assert.Equal(t, size, img.Bounds().Dx(), "%s/%s/%d", engine, tc.name, size)
				assert.Equal(t, size, img.Bounds().Dy(), "%s/%s/%d", engine, tc.name, size)

				result := roundTrip(t, img)
				require.True(t, result.Found(), "%s/%s/%d: %v", engine, tc.name, size, result.Err)
				assert.Equal(t, tc.text, result.Payload)
			}
		}
	}
}

func TestGenerate_Colours(t *testing.T) {
	svc := NewQRService(config.GeneratorConfig{})
	res, err := svc.Generate(GenerationRequest{Text: "colour", SizePx: 200, Foreground: "#f00", Background: "#00ff00"})
	require.NoError(t, err)

	img := decodePNG(t, res.PNG)
	// corner sits in the quiet zone
	assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, color.NRGBAModel.Convert(img.At(0, 0)))

	var sawForeground bool
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !sawForeground; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.NRGBAModel.Convert(img.At(x, y)) == (color.NRGBA{R: 0xff, A: 0xff}) {
				sawForeground = true
				break
			}
		}
	}
	assert.True(t, sawForeground)
}

func TestGenerate_Result(t *testing.T) {
	svc := NewQRService(config.GeneratorConfig{})
	res, err := svc.Generate(GenerationRequest{Text: "https://example.com", SizePx: 300})
	require.NoError(t, err)

	assert.Equal(t, "custom-qr-code.png", res.Filename)
	assert.Equal(t, 300, res.SizePx)
	require.True(t, strings.HasPrefix(res.DataURL, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(res.DataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, res.PNG, raw)
}

func TestGenerate_Caption(t *testing.T) {
	svc := NewQRService(config.GeneratorConfig{})
	res, err := svc.Generate(GenerationRequest{Text: "HELLO", SizePx: 200, Caption: "scan me"})
	require.NoError(t, err)

	img := decodePNG(t, res.PNG)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200+captionBand, img.Bounds().Dy())

	result := roundTrip(t, img)
	require.True(t, result.Found())
	assert.Equal(t, "HELLO", result.Payload)
}

func TestGenerate_Rejects(t *testing.T) {
	svc := NewQRService(config.GeneratorConfig{})

	cases := map[string]GenerationRequest{
		"size 50":    {Text: "HELLO", SizePx: 50},
		"size 700":   {Text: "HELLO", SizePx: 700},
		"empty text": {Text: "", SizePx: 200},
		"bad fg":     {Text: "HELLO", SizePx: 200, Foreground: "red"},
		"bad bg":     {Text: "HELLO", SizePx: 200, Background: "#12345"},
		"too long":   {Text: strings.Repeat("x", 5000), SizePx: 200},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Generate(req)
			assert.Nil(t, res)
			var encErr *EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.True(t, IsEncodeError(err))
		})
	}
}

func TestGenerate_TooDenseForSize(t *testing.T) {
	svc := NewQRService(config.GeneratorConfig{Engine: config.EngineBoombuler})
	_, err := svc.Generate(GenerationRequest{Text: strings.Repeat("a", 1000), SizePx: 100})
	assert.True(t, IsEncodeError(err))
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#abc")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, c)

	c, err = ParseHexColor(" #1A2b3C ")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, c)

	for _, bad := range []string{"", "abc", "#ab", "#ggg", "#1234567"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPDFService_RenderQR(t *testing.T) {
	svc := NewQRService(config.GeneratorConfig{})
	res, err := svc.Generate(GenerationRequest{Text: "HELLO", SizePx: 200})
	require.NoError(t, err)

	pdf, err := NewPDFService("").RenderQR(res)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = NewPDFService("A4").RenderQR(nil)
	assert.Error(t, err)
}
