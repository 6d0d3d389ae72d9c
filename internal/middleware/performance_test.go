package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-qr-webapp/internal/scan"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceMiddleware_Stats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pm := NewPerformanceMonitor(time.Hour, nil)

	r := gin.New()
	r.Use(pm.PerformanceMiddleware())
	r.GET("/health", pm.HealthCheck)
	r.GET("/api/view", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/generate", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/view", nil),
		httptest.NewRequest(http.MethodGet, "/api/view", nil),
		httptest.NewRequest(http.MethodPost, "/api/generate", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	metrics := pm.GetMetrics()
	assert.Equal(t, int64(3), metrics.RequestCount)
	assert.Equal(t, int64(2), metrics.EndpointStats["GET /api/view"].Count)
	assert.Equal(t, int64(1), metrics.EndpointStats["POST /api/generate"].ErrorCount)
	assert.InDelta(t, 33.33, metrics.ErrorRate, 0.01)
	assert.Len(t, pm.GetTopSlowEndpoints(1), 1)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pm := NewPerformanceMonitor(time.Second, nil)

	r := gin.New()
	r.GET("/health", pm.HealthCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestSizeLimitMiddleware(8))
	r.POST("/api/upload", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(make([]byte, 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(make([]byte, 4))))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeadersMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
}

func TestRecordScan(t *testing.T) {
	pm := NewPerformanceMonitor(time.Second, nil)

	pm.RecordScan("upload", scan.OutcomeFound, 30*time.Millisecond)
	pm.RecordScan("upload", scan.OutcomeNotFound, 10*time.Millisecond)
	pm.RecordScan("server", scan.OutcomeErrored, time.Millisecond)

	metrics := pm.GetMetrics()
	upload := metrics.ScanStats["upload"]
	assert.Equal(t, int64(2), upload.Attempts)
	assert.Equal(t, int64(1), upload.Found)
	assert.Equal(t, int64(1), upload.NotFound)
	assert.Equal(t, 20*time.Millisecond, upload.AverageTime)
	assert.InDelta(t, 50.0, upload.HitRate(), 0.001)
	assert.Equal(t, int64(1), metrics.ScanStats["server"].Errors)
	assert.Zero(t, ScanStats{}.HitRate())

	// the copy is detached from the monitor
	metrics.ScanStats["upload"] = ScanStats{}
	assert.Equal(t, int64(2), pm.GetMetrics().ScanStats["upload"].Attempts)
}
