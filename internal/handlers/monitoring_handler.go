package handlers

import (
	"net/http"
	"strconv"

	"go-qr-webapp/internal/middleware"
	"go-qr-webapp/internal/monitoring"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler provides metrics and error endpoints
type MonitoringHandler struct {
	errorTracker *monitoring.ErrorTracker
	perfMonitor  *middleware.PerformanceMonitor
}

func NewMonitoringHandler(errorTracker *monitoring.ErrorTracker, perfMonitor *middleware.PerformanceMonitor) *MonitoringHandler {
	return &MonitoringHandler{
		errorTracker: errorTracker,
		perfMonitor:  perfMonitor,
	}
}

// Metrics returns request statistics and the slowest endpoints
func (h *MonitoringHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":        h.perfMonitor.GetMetrics(),
		"slow_endpoints": h.perfMonitor.GetTopSlowEndpoints(5),
	})
}

// Errors lists tracked errors; ?resolved=true shows resolved ones
func (h *MonitoringHandler) Errors(c *gin.Context) {
	resolved, _ := strconv.ParseBool(c.DefaultQuery("resolved", "false"))
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		limit = 50
	}

	c.JSON(http.StatusOK, gin.H{
		"errors":  h.errorTracker.GetErrors(resolved, limit),
		"summary": h.errorTracker.GetErrorSummary(),
	})
}

// ResolveError marks an error fingerprint as resolved
func (h *MonitoringHandler) ResolveError(c *gin.Context) {
	if err := h.errorTracker.ResolveError(c.Param("fingerprint")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
