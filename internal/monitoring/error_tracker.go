package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorSeverity represents error severity levels
type ErrorSeverity int

const (
	LOW ErrorSeverity = iota
	MEDIUM
	HIGH
	CRITICAL
)

// String returns string representation of error severity
func (es ErrorSeverity) String() string {
	switch es {
	case LOW:
		return "LOW"
	case MEDIUM:
		return "MEDIUM"
	case HIGH:
		return "HIGH"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ErrorDetails is one deduplicated failure
type ErrorDetails struct {
	ID          string                 `json:"id"`
	Message     string                 `json:"message"`
	Error       string                 `json:"error"`
	Severity    string                 `json:"severity"`
	Component   string                 `json:"component"`
	Operation   string                 `json:"operation"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Fingerprint string                 `json:"fingerprint"`
	Count       int                    `json:"count"`
	FirstSeen   time.Time              `json:"first_seen"`
	LastSeen    time.Time              `json:"last_seen"`
	Resolved    bool                   `json:"resolved"`
}

// ErrorSummary represents error summary for reporting
type ErrorSummary struct {
	Count       int       `json:"count"`
	LastOccured time.Time `json:"last_occured"`
	Severity    string    `json:"severity"`
	Component   string    `json:"component"`
	Message     string    `json:"message"`
}

// ErrorTracker keeps recent scan, camera and generation failures
type ErrorTracker struct {
	errors    map[string]*ErrorDetails
	mutex     sync.RWMutex
	maxErrors int
	now       func() time.Time
}

// NewErrorTracker creates a new error tracker
func NewErrorTracker(maxErrors int) *ErrorTracker {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorTracker{
		errors:    make(map[string]*ErrorDetails),
		maxErrors: maxErrors,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CaptureError records err for component/operation. Repeats of the same
// message collapse into one entry with a count.
func (et *ErrorTracker) CaptureError(component, operation, message string, err error, severity ErrorSeverity, context map[string]interface{}) *ErrorDetails {
	now := et.now()
	details := &ErrorDetails{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity.String(),
		Component: component,
		Operation: operation,
		Context:   context,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if err != nil {
		details.Error = err.Error()
	}
	details.Fingerprint = generateFingerprint(details)

	return et.storeError(details)
}

// CaptureRequestError captures an error from HTTP request context
func (et *ErrorTracker) CaptureRequestError(c *gin.Context, message string, err error, severity ErrorSeverity) *ErrorDetails {
	context := map[string]interface{}{}
	if id, ok := c.Get("request_id"); ok {
		context["request_id"] = id
	}
	details := et.CaptureError("http", c.FullPath(), message, err, severity, context)

	et.mutex.Lock()
	details.Method = c.Request.Method
	details.Path = c.Request.URL.Path
	et.mutex.Unlock()
	return details
}

// GetErrors returns tracked errors, most recent first
func (et *ErrorTracker) GetErrors(resolved bool, limit int) []ErrorDetails {
	et.mutex.RLock()
	defer et.mutex.RUnlock()

	var out []ErrorDetails
	for _, e := range et.errors {
		if e.Resolved == resolved {
			out = append(out, *e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// GetErrorSummary returns error summary by component
func (et *ErrorTracker) GetErrorSummary() map[string]ErrorSummary {
	et.mutex.RLock()
	defer et.mutex.RUnlock()

	summary := make(map[string]ErrorSummary)
	for _, e := range et.errors {
		if e.Resolved {
			continue
		}

		key := e.Component
		if key == "" {
			key = "unknown"
		}

		if existing, exists := summary[key]; exists {
			existing.Count += e.Count
			if e.LastSeen.After(existing.LastOccured) {
				existing.LastOccured = e.LastSeen
				existing.Message = e.Message
			}
			summary[key] = existing
		} else {
			summary[key] = ErrorSummary{
				Count:       e.Count,
				LastOccured: e.LastSeen,
				Severity:    e.Severity,
				Component:   e.Component,
				Message:     e.Message,
			}
		}
	}
	return summary
}

// ResolveError marks an error as resolved
func (et *ErrorTracker) ResolveError(fingerprint string) error {
	et.mutex.Lock()
	defer et.mutex.Unlock()

	if e, exists := et.errors[fingerprint]; exists {
		e.Resolved = true
		return nil
	}
	return fmt.Errorf("error not found: %s", fingerprint)
}

// storeError stores or updates an error
func (et *ErrorTracker) storeError(details *ErrorDetails) *ErrorDetails {
	et.mutex.Lock()
	defer et.mutex.Unlock()

	if existing, exists := et.errors[details.Fingerprint]; exists {
		existing.Count++
		existing.LastSeen = details.LastSeen
		existing.Error = details.Error
		existing.Context = details.Context
		existing.Resolved = false
		return existing
	}

	et.errors[details.Fingerprint] = details
	if len(et.errors) > et.maxErrors {
		et.evictOldestError()
	}
	return details
}

// evictOldestError removes the least recently seen error
func (et *ErrorTracker) evictOldestError() {
	var oldestKey string
	var oldest time.Time

	for key, e := range et.errors {
		if oldestKey == "" || e.LastSeen.Before(oldest) {
			oldest = e.LastSeen
			oldestKey = key
		}
	}
	delete(et.errors, oldestKey)
}

// generateFingerprint generates a fingerprint for error deduplication
func generateFingerprint(details *ErrorDetails) string {
	components := []string{
		details.Message,
		details.Component,
		details.Operation,
	}
	return fmt.Sprintf("%x", strings.Join(components, "|"))
}

// ErrorTrackingMiddleware records errors attached to the gin context
func (et *ErrorTracker) ErrorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			severity := MEDIUM
			if c.Writer.Status() >= 500 {
				severity = HIGH
			}
			et.CaptureRequestError(c, "Request Error", ginErr.Err, severity)
		}
	}
}
