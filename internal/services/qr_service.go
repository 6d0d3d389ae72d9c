package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"go-qr-webapp/internal/config"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// quietZoneModules is the blank border required around a QR symbol
	quietZoneModules = 4
	// captionBand is the extra height added below the code for a caption
	captionBand = 24
)

// GenerationRequest describes a QR image to encode
type GenerationRequest struct {
	Text       string `json:"text"`
	SizePx     int    `json:"size"`
	Foreground string `json:"fg"`
	Background string `json:"bg"`
	Caption    string `json:"caption,omitempty"`
}

// GenerationResult is a rendered QR image
type GenerationResult struct {
	PNG      []byte `json:"-"`
	DataURL  string `json:"data_url"`
	Filename string `json:"filename"`
	SizePx   int    `json:"size"`
	Text     string `json:"text"`
}

// EncodeError reports invalid generation input or an encoder failure
type EncodeError struct {
	Field   string
	Message string
	Cause   error
}

func (e *EncodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encode %s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("encode: %s: %v", e.Message, e.Cause)
	}
	return "encode: " + e.Message
}

func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// QRService renders QR codes with the configured engine
type QRService struct {
	engine   string
	filename string
}

func NewQRService(cfg config.GeneratorConfig) *QRService {
	engine := cfg.Engine
	if engine == "" {
		engine = config.EngineSkip2
	}
	filename := cfg.Filename
	if filename == "" {
		filename = "custom-qr-code"
	}
	return &QRService{engine: engine, filename: filename}
}

// Engine returns the active encoder name
func (s *QRService) Engine() string {
	return s.engine
}

// Filename returns the download name for ext, e.g. "png"
func (s *QRService) Filename(ext string) string {
	return s.filename + "." + ext
}

// Generate encodes req.Text into a square PNG of req.SizePx pixels.
// Sizes outside [MinQRSize, MaxQRSize] are rejected.
func (s *QRService) Generate(req GenerationRequest) (*GenerationResult, error) {
	if req.Text == "" {
		return nil, &EncodeError{Field: "text", Message: "must not be empty"}
	}
	if req.SizePx < config.MinQRSize || req.SizePx > config.MaxQRSize {
		return nil, &EncodeError{
			Field:   "size",
			Message: fmt.Sprintf("%d outside [%d,%d]", req.SizePx, config.MinQRSize, config.MaxQRSize),
		}
	}

	fg, err := ParseHexColor(defaultString(req.Foreground, "#000000"))
	if err != nil {
		return nil, &EncodeError{Field: "fg", Message: err.Error()}
	}
	bg, err := ParseHexColor(defaultString(req.Background, "#ffffff"))
	if err != nil {
		return nil, &EncodeError{Field: "bg", Message: err.Error()}
	}

	var img image.Image
	switch s.engine {
	case config.EngineBoombuler:
		img, err = renderBoombuler(req.Text, req.SizePx, fg, bg)
	default:
		img, err = renderSkip2(req.Text, req.SizePx, fg, bg)
	}
	if err != nil {
		return nil, err
	}

	if req.Caption != "" {
		img = addCaption(img, req.Caption, fg, bg)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &EncodeError{Message: "failed to encode PNG", Cause: err}
	}

	return &GenerationResult{
		PNG:      buf.Bytes(),
		DataURL:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Filename: s.Filename("png"),
		SizePx:   req.SizePx,
		Text:     req.Text,
	}, nil
}

func renderSkip2(text string, size int, fg, bg color.Color) (image.Image, error) {
	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, &EncodeError{Message: "failed to create QR code", Cause: err}
	}
	code.ForegroundColor = fg
	code.BackgroundColor = bg

	// Image silently grows when size cannot fit one pixel per module
	img := code.Image(size)
	if img.Bounds().Dx() != size {
		return nil, &EncodeError{
			Field:   "size",
			Message: fmt.Sprintf("%dpx is too small for this content", size),
		}
	}
	return img, nil
}

func renderBoombuler(text string, size int, fg, bg color.Color) (image.Image, error) {
	code, err := qr.Encode(text, qr.M, qr.Auto)
	if err != nil {
		return nil, &EncodeError{Message: "failed to create QR code", Cause: err}
	}

	modules := code.Bounds().Dx()
	scale := size / (modules + 2*quietZoneModules)
	if scale < 1 {
		return nil, &EncodeError{
			Field:   "size",
			Message: fmt.Sprintf("%dpx is too small for this content", size),
		}
	}

	scaled, err := barcode.Scale(code, modules*scale, modules*scale)
	if err != nil {
		return nil, &EncodeError{Message: "failed to scale QR code", Cause: err}
	}

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	offset := (size - modules*scale) / 2
	sb := scaled.Bounds()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			if isDark(scaled.At(x, y)) {
				out.Set(offset+x-sb.Min.X, offset+y-sb.Min.Y, fg)
			}
		}
	}
	return out, nil
}

func isDark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y < 128
}

// addCaption draws text centred in a band below img
func addCaption(img image.Image, caption string, fg, bg color.Color) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionBand))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(fg),
		Face: face,
	}

	// trim to what fits on one line
	maxRunes := b.Dx() / face.Advance
	if r := []rune(caption); len(r) > maxRunes {
		caption = string(r[:maxRunes])
	}

	width := d.MeasureString(caption).Ceil()
	x := (b.Dx() - width) / 2
	if x < 0 {
		x = 0
	}
	y := b.Dy() + (captionBand+face.Ascent-face.Descent)/2
	d.Dot = fixed.P(x, y)
	d.DrawString(caption)
	return out
}

// ParseHexColor parses #rgb or #rrggbb into an opaque colour
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("colour %q must start with #", s)
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.NRGBA{}, fmt.Errorf("colour %q must be #rgb or #rrggbb", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q is not hex", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// IsEncodeError reports whether err is an *EncodeError
func IsEncodeError(err error) bool {
	var encErr *EncodeError
	return errors.As(err, &encErr)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
