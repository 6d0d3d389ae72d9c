package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := NewStructuredLogger(LoggerConfig{
		Level:   level,
		Service: "go-qr-webapp",
		Output:  &buf,
	})
	require.NoError(t, err)
	return log, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestStructuredLogger_FieldsAndLevel(t *testing.T) {
	log, buf := newBufferLogger(t, INFO)

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Info("decoded", map[string]interface{}{"view": "upload"}, map[string]interface{}{"size": 3})
	entry := lastEntry(t, buf)
	assert.Equal(t, "decoded", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "go-qr-webapp", entry["service"])
	assert.Equal(t, "upload", entry["view"])
	assert.Equal(t, float64(3), entry["size"])

	log.Error("encode failed", errors.New("boom"))
	entry = lastEntry(t, buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestStructuredLogger_Component(t *testing.T) {
	log, buf := newBufferLogger(t, DEBUG)

	log.Component("camera").Debug("tick")
	assert.Equal(t, "camera", lastEntry(t, buf)["component"])

	log.LogScanEvent("scan found", "camera")
	entry := lastEntry(t, buf)
	assert.Equal(t, "scanner", entry["component"])
	assert.Equal(t, "camera", entry["view"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" WARNING "))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, buf := newBufferLogger(t, INFO)

	r := gin.New()
	r.Use(log.LoggingMiddleware())
	r.GET("/api/view", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/view?x=1", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	entry := lastEntry(t, buf)
	assert.Equal(t, "/api/view?x=1", entry["path"])
	assert.Equal(t, float64(200), entry["status_code"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestWithContext_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, buf := newBufferLogger(t, INFO)

	log.WithContext(context.Background()).Info("no request")
	_, tagged := lastEntry(t, buf)["request_id"]
	assert.False(t, tagged)

	r := gin.New()
	r.Use(log.LoggingMiddleware())
	r.GET("/api/upload", func(c *gin.Context) {
		id, ok := RequestIDFromContext(c.Request.Context())
		assert.True(t, ok)
		assert.Equal(t, "req-7", id)
		log.Component("upload").WithContext(c.Request.Context()).Warn("handler entry")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	req.Header.Set("X-Request-ID", "req-7")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	var handlerEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &handlerEntry))
	assert.Equal(t, "handler entry", handlerEntry["msg"])
	assert.Equal(t, "req-7", handlerEntry["request_id"])
	assert.Equal(t, "upload", handlerEntry["component"])
}
