package views

import (
	"errors"
	"sync"

	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/services"
)

// ErrNothingGenerated is returned when no code has been generated yet
var ErrNothingGenerated = errors.New("no QR code generated yet")

// Generator holds the last successfully generated QR code
type Generator struct {
	mu   sync.Mutex
	qr   *services.QRService
	pdf  *services.PDFService
	log  *logger.StructuredLogger
	last *services.GenerationResult
}

func NewGenerator(qr *services.QRService, pdf *services.PDFService, log *logger.StructuredLogger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{qr: qr, pdf: pdf, log: log.Component("generator")}
}

// Generate renders req. On failure the previous result is kept.
func (g *Generator) Generate(req services.GenerationRequest) (*services.GenerationResult, error) {
	res, err := g.qr.Generate(req)
	if err != nil {
		g.log.Error("Failed to generate QR code", err, map[string]interface{}{
			"size":   req.SizePx,
			"engine": g.qr.Engine(),
		})
		return nil, err
	}

	g.mu.Lock()
	g.last = res
	g.mu.Unlock()

	g.log.LogScanEvent("QR code generated", "generate", map[string]interface{}{
		"size":   res.SizePx,
		"bytes":  len(res.PNG),
		"engine": g.qr.Engine(),
	})
	return res, nil
}

// Result returns the last good result, or nil
func (g *Generator) Result() *services.GenerationResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// PNG returns the last image and its download name
func (g *Generator) PNG() ([]byte, string, error) {
	res := g.Result()
	if res == nil {
		return nil, "", ErrNothingGenerated
	}
	return res.PNG, res.Filename, nil
}

// PDF renders the last image onto a printable page
func (g *Generator) PDF() ([]byte, string, error) {
	res := g.Result()
	if res == nil {
		return nil, "", ErrNothingGenerated
	}
	data, err := g.pdf.RenderQR(res)
	if err != nil {
		g.log.Error("Failed to render PDF", err)
		return nil, "", err
	}
	return data, g.qr.Filename("pdf"), nil
}

// Dispose forgets the last result
func (g *Generator) Dispose() {
	g.mu.Lock()
	g.last = nil
	g.mu.Unlock()
}
