package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/scan"

	"github.com/gin-gonic/gin"
)

// PerformanceMetrics stores request performance metrics
type PerformanceMetrics struct {
	RequestCount    int64                `json:"request_count"`
	AverageResponse time.Duration        `json:"average_response"`
	ErrorRate       float64              `json:"error_rate"`
	MemoryUsage     MemoryStats          `json:"memory_usage"`
	EndpointStats   map[string]Stats     `json:"endpoint_stats"`
	ScanStats       map[string]ScanStats `json:"scan_stats"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated    uint64 `json:"allocated"`
	TotalAlloc   uint64 `json:"total_alloc"`
	Sys          uint64 `json:"sys"`
	GCRuns       uint32 `json:"gc_runs"`
	HeapInUse    uint64 `json:"heap_in_use"`
	HeapReleased uint64 `json:"heap_released"`
}

// Stats represents endpoint-specific statistics
type Stats struct {
	Count         int64         `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	AverageTime   time.Duration `json:"average_time"`
	ErrorCount    int64         `json:"error_count"`
	SlowCount     int64         `json:"slow_count"`
}

// ScanStats counts decode outcomes for one scan source
type ScanStats struct {
	Attempts    int64         `json:"attempts"`
	Found       int64         `json:"found"`
	NotFound    int64         `json:"not_found"`
	Errors      int64         `json:"errors"`
	AverageTime time.Duration `json:"average_time"`
	totalTime   time.Duration
}

// HitRate is the share of attempts that decoded a payload, in percent
func (s ScanStats) HitRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Found) / float64(s.Attempts) * 100
}

// PerformanceMonitor tracks request timings per endpoint and decode
// outcomes per scan source
type PerformanceMonitor struct {
	mu            sync.Mutex
	metrics       PerformanceMetrics
	totalDuration time.Duration
	slowThreshold time.Duration
	startTime     time.Time
	log           *logger.StructuredLogger
}

// NewPerformanceMonitor creates a new performance monitor
func NewPerformanceMonitor(slowThreshold time.Duration, log *logger.StructuredLogger) *PerformanceMonitor {
	if log == nil {
		log = logger.Nop()
	}
	return &PerformanceMonitor{
		metrics: PerformanceMetrics{
			EndpointStats: make(map[string]Stats),
			ScanStats:     make(map[string]ScanStats),
		},
		slowThreshold: slowThreshold,
		startTime:     time.Now(),
		log:           log,
	}
}

// PerformanceMiddleware tracks request performance
func (pm *PerformanceMonitor) PerformanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		if path == "/health" {
			c.Next()
			return
		}

		c.Next()

		if path == "" {
			path = "unmatched"
		}
		endpoint := fmt.Sprintf("%s %s", c.Request.Method, path)
		duration := time.Since(start)
		status := c.Writer.Status()

		pm.updateMetrics(endpoint, duration, status >= 400)

		if duration > pm.slowThreshold {
			pm.log.Warn("Slow request", map[string]interface{}{
				"endpoint": endpoint,
				"duration": duration.String(),
				"status":   status,
			})
		}
	}
}

// updateMetrics updates performance metrics
func (pm *PerformanceMonitor) updateMetrics(endpoint string, duration time.Duration, isError bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.metrics.RequestCount++
	pm.totalDuration += duration
	pm.metrics.AverageResponse = pm.totalDuration / time.Duration(pm.metrics.RequestCount)

	stats := pm.metrics.EndpointStats[endpoint]
	stats.Count++
	stats.TotalDuration += duration
	stats.AverageTime = stats.TotalDuration / time.Duration(stats.Count)
	if isError {
		stats.ErrorCount++
	}
	if duration > pm.slowThreshold {
		stats.SlowCount++
	}
	pm.metrics.EndpointStats[endpoint] = stats

	totalErrors := int64(0)
	for _, stat := range pm.metrics.EndpointStats {
		totalErrors += stat.ErrorCount
	}
	pm.metrics.ErrorRate = float64(totalErrors) / float64(pm.metrics.RequestCount) * 100
}

// RecordScan counts one decode attempt from source, e.g. "upload", that
// took duration
func (pm *PerformanceMonitor) RecordScan(source string, outcome scan.Outcome, duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	stats := pm.metrics.ScanStats[source]
	stats.Attempts++
	switch outcome {
	case scan.OutcomeFound:
		stats.Found++
	case scan.OutcomeNotFound:
		stats.NotFound++
	default:
		stats.Errors++
	}
	stats.totalTime += duration
	stats.AverageTime = stats.totalTime / time.Duration(stats.Attempts)
	pm.metrics.ScanStats[source] = stats
}

func readMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		Allocated:    m.Alloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		GCRuns:       m.NumGC,
		HeapInUse:    m.HeapInuse,
		HeapReleased: m.HeapReleased,
	}
}

// GetMetrics returns a copy of the current metrics
func (pm *PerformanceMonitor) GetMetrics() PerformanceMetrics {
	mem := readMemoryStats()

	pm.mu.Lock()
	defer pm.mu.Unlock()

	out := pm.metrics
	out.MemoryUsage = mem
	out.EndpointStats = make(map[string]Stats, len(pm.metrics.EndpointStats))
	for k, v := range pm.metrics.EndpointStats {
		out.EndpointStats[k] = v
	}
	out.ScanStats = make(map[string]ScanStats, len(pm.metrics.ScanStats))
	for k, v := range pm.metrics.ScanStats {
		out.ScanStats[k] = v
	}
	return out
}

// EndpointSummary represents endpoint performance summary
type EndpointSummary struct {
	Endpoint    string        `json:"endpoint"`
	AverageTime time.Duration `json:"average_time"`
	Count       int64         `json:"count"`
	ErrorRate   float64       `json:"error_rate"`
	SlowRate    float64       `json:"slow_rate"`
}

// GetTopSlowEndpoints returns the slowest endpoints
func (pm *PerformanceMonitor) GetTopSlowEndpoints(limit int) []EndpointSummary {
	pm.mu.Lock()
	endpoints := make([]EndpointSummary, 0, len(pm.metrics.EndpointStats))
	for endpoint, stats := range pm.metrics.EndpointStats {
		endpoints = append(endpoints, EndpointSummary{
			Endpoint:    endpoint,
			AverageTime: stats.AverageTime,
			Count:       stats.Count,
			ErrorRate:   float64(stats.ErrorCount) / float64(stats.Count) * 100,
			SlowRate:    float64(stats.SlowCount) / float64(stats.Count) * 100,
		})
	}
	pm.mu.Unlock()

	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].AverageTime > endpoints[j].AverageTime
	})

	if limit > 0 && limit < len(endpoints) {
		endpoints = endpoints[:limit]
	}
	return endpoints
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request entity too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// HealthCheck reports uptime, error rate and memory
func (pm *PerformanceMonitor) HealthCheck(c *gin.Context) {
	metrics := pm.GetMetrics()

	health := gin.H{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"uptime":     time.Since(pm.startTime).String(),
		"requests":   metrics.RequestCount,
		"scans":      scanTotals(metrics.ScanStats),
		"error_rate": fmt.Sprintf("%.2f%%", metrics.ErrorRate),
		"memory": gin.H{
			"allocated": formatBytes(metrics.MemoryUsage.Allocated),
			"sys":       formatBytes(metrics.MemoryUsage.Sys),
			"gc_runs":   metrics.MemoryUsage.GCRuns,
		},
	}

	// 4xx counts too, so the bar is generous
	if metrics.ErrorRate > 50 {
		health["status"] = "degraded"
	}

	c.JSON(http.StatusOK, health)
}

func scanTotals(stats map[string]ScanStats) gin.H {
	var attempts, found int64
	for _, s := range stats {
		attempts += s.Attempts
		found += s.Found
	}
	return gin.H{"attempts": attempts, "found": found}
}

// formatBytes formats byte count as human readable string
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
