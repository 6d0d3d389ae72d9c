package routes

import (
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"go-qr-webapp/internal/clock"
	"go-qr-webapp/internal/handlers"
	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/scan"

	"github.com/gin-gonic/gin"
)

// DecodeRequest carries one RGBA frame captured by the browser
type DecodeRequest struct {
	ImageData string    `json:"imageData"` // base64 RGBA, 4 bytes per pixel
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	ROI       *scan.ROI `json:"roi,omitempty"`
}

// DecodeResult mirrors the result object returned by the WASM decoder
type DecodeResult struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// DecodeResponse is the server-side decode answer
type DecodeResponse struct {
	Success        bool          `json:"success"`
	Result         *DecodeResult `json:"result,omitempty"`
	NotFound       bool          `json:"notFound,omitempty"`
	Error          string        `json:"error,omitempty"`
	ProcessingTime int64         `json:"processingTime"` // milliseconds
	Timestamp      int64         `json:"timestamp"`
	ServerDecode   bool          `json:"serverDecode"`
}

// ScanFallbackHandler decodes frames for browsers that cannot run the WASM decoder
type ScanFallbackHandler struct {
	decoder  *scan.Decoder
	enabled  bool
	clock    clock.Clock
	recorder handlers.ScanRecorder
	log      *logger.StructuredLogger
}

func NewScanFallbackHandler(decoder *scan.Decoder, enabled bool, recorder handlers.ScanRecorder, log *logger.StructuredLogger) *ScanFallbackHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ScanFallbackHandler{
		decoder:  decoder,
		enabled:  enabled,
		clock:    clock.Real{},
		recorder: handlers.OrNopRecorder(recorder),
		log:      log.Component("scan_fallback"),
	}
}

func (h *ScanFallbackHandler) IsEnabled() bool {
	return h.enabled
}

// DecodeFallback handles server-side decode requests
func (h *ScanFallbackHandler) DecodeFallback(c *gin.Context) {
	if !h.enabled {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "FEATURE_DISABLED",
			"message": "Server-side decode is disabled",
		})
		return
	}

	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	if req.Width <= 0 || req.Height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_DIMENSIONS",
			"message": "Width and height must be positive",
		})
		return
	}

	if req.ImageData == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "MISSING_IMAGE_DATA",
			"message": "Image data is required",
		})
		return
	}

	pix, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_IMAGE_DATA",
			"message": "Image data must be base64 encoded",
		})
		return
	}

	buf := &scan.PixelBuffer{Pix: pix, Width: req.Width, Height: req.Height}
	if req.ROI != nil {
		if buf, err = buf.Crop(*req.ROI); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "INVALID_ROI",
				"message": err.Error(),
			})
			return
		}
	}

	response := h.decode(buf)
	if response.Error != "" {
		h.log.WithContext(c.Request.Context()).Warn("Server decode failed", map[string]interface{}{
			"error":  response.Error,
			"width":  buf.Width,
			"height": buf.Height,
		})
	}

	if response.Success {
		c.JSON(http.StatusOK, response)
	} else {
		// valid request, but nothing decoded
		c.JSON(http.StatusUnprocessableEntity, response)
	}
}

func (h *ScanFallbackHandler) decode(buf *scan.PixelBuffer) DecodeResponse {
	start := h.clock.Now()
	res := h.decoder.Scan(scan.Request{Kind: scan.SourceCameraFrame, Buffer: buf})
	end := h.clock.Now()
	h.recorder.RecordScan("server", res.Outcome, end.Sub(start))

	response := DecodeResponse{
		ProcessingTime: end.Sub(start).Milliseconds(),
		Timestamp:      end.UnixMilli(),
		ServerDecode:   true,
	}
	switch {
	case res.Err != nil:
		response.Error = res.Err.Error()
	case res.Found():
		response.Success = true
		response.Result = &DecodeResult{Text: res.Payload}
		if link, ok := scan.AdvisoryLink(res.Payload); ok {
			response.Result.Link = link
		}
	default:
		response.NotFound = true
	}
	return response
}

// GetDecoderStatus returns the status of the fallback decoder
func (h *ScanFallbackHandler) GetDecoderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled":          h.enabled,
		"status":           "ready",
		"serverSide":       true,
		"supportedFormats": []string{"QR_CODE"},
	})
}

// SetupScanFallbackRoutes sets up the fallback decode routes
func SetupScanFallbackRoutes(r *gin.Engine, handler *ScanFallbackHandler, limiter gin.HandlerFunc) {
	api := r.Group("/api/scan")
	{
		api.POST("/decode", limiter, handler.DecodeFallback)
		api.GET("/status", handler.GetDecoderStatus)
	}
}

// ScanFallbackMiddleware allows at most limit decode requests per client IP
// in each window
func ScanFallbackMiddleware(limit int, window time.Duration, clk clock.Clock) gin.HandlerFunc {
	clk = clock.OrReal(clk)

	var (
		mu          sync.Mutex
		windowStart = clk.Now()
		counts      = make(map[string]int)
	)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		mu.Lock()
		if now := clk.Now(); now.Sub(windowStart) >= window {
			windowStart = now
			counts = make(map[string]int)
		}
		counts[clientIP]++
		over := counts[clientIP] > limit
		mu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "RATE_LIMITED",
				"message": "Too many requests. Server-side decode is rate limited.",
			})
			return
		}
		c.Next()
	}
}
