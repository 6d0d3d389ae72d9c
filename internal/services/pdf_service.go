package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFService lays out generated QR codes on a printable page
type PDFService struct {
	paperSize string
	now       func() time.Time
}

func NewPDFService(paperSize string) *PDFService {
	if paperSize == "" {
		paperSize = "A4"
	}
	return &PDFService{paperSize: paperSize, now: time.Now}
}

// RenderQR places result centred near the top of a single page, with its
// encoded text printed below
func (s *PDFService) RenderQR(result *GenerationResult) ([]byte, error) {
	if result == nil || len(result.PNG) == 0 {
		return nil, fmt.Errorf("no generated QR code to render")
	}

	pdf := gofpdf.New("P", "mm", s.paperSize, "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetCreator("go-qr-webapp", true)
	pdf.SetTitle("QR Code", true)
	pdf.SetCreationDate(s.now())
	pdf.AddPage()

	name := fmt.Sprintf("qr-%d", result.SizePx)
	info := pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(result.PNG))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to register QR image: %w", err)
	}

	pageW, _ := pdf.GetPageSize()
	left, top, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	// 1px = 0.25mm keeps a 600px code inside an A4 column
	w := float64(result.SizePx) * 0.25
	if w > usable {
		w = usable
	}
	h := w * info.Height() / info.Width()
	x := left + (usable-w)/2
	pdf.ImageOptions(name, x, top, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetY(top + h + 8)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.MultiCell(0, 5, tr(result.Text), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF with gofpdf: %w", err)
	}
	return buf.Bytes(), nil
}
