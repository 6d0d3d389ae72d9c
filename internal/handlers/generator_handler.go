package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go-qr-webapp/internal/config"
	"go-qr-webapp/internal/services"
	"go-qr-webapp/internal/views"

	"github.com/gin-gonic/gin"
)

// GeneratorHandler drives the QR generation view
type GeneratorHandler struct {
	app      *views.App
	defaults config.GeneratorConfig
}

func NewGeneratorHandler(app *views.App, defaults config.GeneratorConfig) *GeneratorHandler {
	return &GeneratorHandler{app: app, defaults: defaults}
}

// Generate renders a QR code. Omitted size and colours take the configured
// defaults.
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req services.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}
	if req.SizePx == 0 {
		req.SizePx = h.defaults.DefaultSize
	}
	if req.Foreground == "" {
		req.Foreground = h.defaults.Foreground
	}
	if req.Background == "" {
		req.Background = h.defaults.Background
	}

	h.app.Switch(views.ViewGenerate)
	res, err := h.app.Generator.Generate(req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GeneratorHandler) Result(c *gin.Context) {
	res := h.app.Generator.Result()
	if res == nil {
		respondError(c, views.ErrNothingGenerated, nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Download sends the last code as an attachment, png by default
func (h *GeneratorHandler) Download(c *gin.Context) {
	var (
		data        []byte
		name        string
		contentType string
		err         error
	)

	switch strings.ToLower(c.DefaultQuery("format", "png")) {
	case "png":
		data, name, err = h.app.Generator.PNG()
		contentType = "image/png"
	case "pdf":
		data, name, err = h.app.Generator.PDF()
		contentType = "application/pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be png or pdf", "code": "INVALID_FORMAT"})
		return
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}
