package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/media"
	"go-qr-webapp/internal/services"
	"go-qr-webapp/internal/views"

	"github.com/gin-gonic/gin"
)

// SafeJSON safely renders JSON with proper error handling
func SafeJSON(c *gin.Context, statusCode int, data interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.GlobalLoggerOrNop().Error("JSON rendering panic", fmt.Errorf("%v", r))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
				"code":  "RENDER_ERROR",
			})
		}
	}()

	c.JSON(statusCode, data)
}

// respondError attaches err to the context and writes a JSON error body
func respondError(c *gin.Context, err error, extra gin.H) {
	_ = c.Error(err)

	body := gin.H{
		"error": err.Error(),
		"code":  errorCode(err),
	}
	for k, v := range extra {
		body[k] = v
	}
	SafeJSON(c, statusForError(err), body)
}

// statusForError maps the error taxonomy onto HTTP status codes
func statusForError(err error) int {
	var accessErr *media.AccessError
	var loadErr *blob.LoadError

	switch {
	case errors.Is(err, views.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, views.ErrNothingGenerated), errors.Is(err, blob.ErrURLNotFound):
		return http.StatusNotFound
	case services.IsEncodeError(err):
		return http.StatusBadRequest
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &accessErr):
		switch accessErr.Kind {
		case media.PermissionDenied:
			return http.StatusForbidden
		case media.DeviceNotFound:
			return http.StatusNotFound
		case media.DeviceBusy:
			return http.StatusConflict
		default:
			return http.StatusServiceUnavailable
		}
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	var accessErr *media.AccessError
	var loadErr *blob.LoadError

	switch {
	case errors.Is(err, views.ErrBusy):
		return "BUSY"
	case errors.Is(err, views.ErrNothingGenerated), errors.Is(err, blob.ErrURLNotFound):
		return "NOT_FOUND"
	case services.IsEncodeError(err):
		return "ENCODE_ERROR"
	case errors.As(err, &loadErr):
		return "LOAD_ERROR"
	case errors.As(err, &accessErr):
		return "CAMERA_" + accessErr.Kind.String()
	default:
		return "INTERNAL_ERROR"
	}
}

// GlobalErrorHandler provides global error recovery middleware
func GlobalErrorHandler(log *logger.StructuredLogger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		log.WithContext(c.Request.Context()).Error("Panic recovered", fmt.Errorf("%v", recovered),
			map[string]interface{}{"path": c.Request.URL.Path})

		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "An unexpected error occurred",
			"code":  "INTERNAL_ERROR",
		})
	})
}

// NotFoundHandler handles unknown routes
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
			"path":  c.Request.URL.Path,
		})
	}
}
