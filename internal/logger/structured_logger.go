package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LogLevel represents logging severity levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// StructuredLogger wraps a logrus logger with service-wide fields
type StructuredLogger struct {
	entry  *logrus.Entry
	closer io.Closer
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level        LogLevel
	Service      string
	Version      string
	Environment  string
	OutputPath   string
	Format       string // "json" (default) or "text"
	EnableCaller bool
	Output       io.Writer // overrides OutputPath when set
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(config LoggerConfig) (*StructuredLogger, error) {
	base := logrus.New()
	base.SetLevel(config.Level.logrusLevel())
	base.SetReportCaller(config.EnableCaller)

	if config.Format == "text" {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	var closer io.Closer
	switch {
	case config.Output != nil:
		base.SetOutput(config.Output)
	case config.OutputPath == "" || config.OutputPath == "stdout":
		base.SetOutput(os.Stdout)
	case config.OutputPath == "stderr":
		base.SetOutput(os.Stderr)
	default:
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		base.SetOutput(file)
		closer = file
	}

	fields := logrus.Fields{"service": config.Service}
	if config.Version != "" {
		fields["version"] = config.Version
	}
	if config.Environment != "" {
		fields["environment"] = config.Environment
	}

	return &StructuredLogger{
		entry:  base.WithFields(fields),
		closer: closer,
	}, nil
}

// Nop returns a logger that discards everything
func Nop() *StructuredLogger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &StructuredLogger{entry: logrus.NewEntry(base)}
}

// Debug logs debug messages
func (sl *StructuredLogger) Debug(message string, fields ...map[string]interface{}) {
	sl.with(fields...).Debug(message)
}

// Info logs info messages
func (sl *StructuredLogger) Info(message string, fields ...map[string]interface{}) {
	sl.with(fields...).Info(message)
}

// Warn logs warning messages
func (sl *StructuredLogger) Warn(message string, fields ...map[string]interface{}) {
	sl.with(fields...).Warn(message)
}

// Error logs error messages
func (sl *StructuredLogger) Error(message string, err error, fields ...map[string]interface{}) {
	entry := sl.with(fields...)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)
}

// Fatal logs fatal messages and exits
func (sl *StructuredLogger) Fatal(message string, err error, fields ...map[string]interface{}) {
	entry := sl.with(fields...)
	if err != nil {
		entry = entry.WithError(err).WithField("stack", stackTrace())
	}
	entry.Fatal(message)
}

// LogSystemEvent logs system-level events
func (sl *StructuredLogger) LogSystemEvent(event string, fields ...map[string]interface{}) {
	sl.with(fields...).WithField("component", "system").Info(event)
}

// LogScanEvent logs a decode or generation outcome for a view
func (sl *StructuredLogger) LogScanEvent(event string, view string, fields ...map[string]interface{}) {
	sl.with(fields...).WithFields(logrus.Fields{
		"component": "scanner",
		"view":      view,
	}).Info(event)
}

// Component returns a logger that tags every entry with component
func (sl *StructuredLogger) Component(name string) *StructuredLogger {
	return &StructuredLogger{entry: sl.entry.WithField("component", name)}
}

type requestIDKey struct{}

// ContextWithRequestID stores the request id the logging middleware assigned
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger that tags entries with the request id in ctx
func (sl *StructuredLogger) WithContext(ctx context.Context) *ContextLogger {
	entry := sl.entry.WithContext(ctx)
	if id, ok := RequestIDFromContext(ctx); ok {
		entry = entry.WithField("request_id", id)
	}
	return &ContextLogger{logger: &StructuredLogger{entry: entry}}
}

func (sl *StructuredLogger) with(fields ...map[string]interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return sl.entry
	}
	return sl.entry.WithFields(mergeFields(fields...))
}

// stackTrace returns formatted stack trace
func stackTrace() string {
	stack := make([]byte, 4096)
	length := runtime.Stack(stack, false)
	return string(stack[:length])
}

// mergeFields merges multiple field maps
func mergeFields(fields ...map[string]interface{}) logrus.Fields {
	result := make(logrus.Fields)
	for _, field := range fields {
		for k, v := range field {
			result[k] = v
		}
	}
	return result
}

// ContextLogger provides context-aware logging
type ContextLogger struct {
	logger *StructuredLogger
}

// Debug logs debug with context
func (cl *ContextLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.logger.Debug(message, fields...)
}

// Info logs info with context
func (cl *ContextLogger) Info(message string, fields ...map[string]interface{}) {
	cl.logger.Info(message, fields...)
}

// Warn logs warning with context
func (cl *ContextLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.logger.Warn(message, fields...)
}

// Error logs error with context
func (cl *ContextLogger) Error(message string, err error, fields ...map[string]interface{}) {
	cl.logger.Error(message, err, fields...)
}

// LoggingMiddleware provides request logging middleware
func (sl *StructuredLogger) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Skip logging for health checks
		if path == "/health" {
			c.Next()
			return
		}

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("%d", start.UnixNano())
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        path,
			"status_code": c.Writer.Status(),
			"duration":    time.Since(start).String(),
			"ip":          c.ClientIP(),
			"bytes_in":    c.Request.ContentLength,
			"bytes_out":   c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		reqLog := sl.WithContext(c.Request.Context())
		if c.Writer.Status() >= 500 {
			reqLog.Warn("HTTP Request", fields)
			return
		}
		reqLog.Info("HTTP Request", fields)
	}
}

// Close closes the logger output
func (sl *StructuredLogger) Close() error {
	if sl.closer != nil {
		return sl.closer.Close()
	}
	return nil
}

// Global logger instance
var GlobalLogger *StructuredLogger

// InitializeLogger initializes the global logger
func InitializeLogger(config LoggerConfig) error {
	var err error
	GlobalLogger, err = NewStructuredLogger(config)
	return err
}

// GlobalLoggerOrNop returns GlobalLogger, or a discarding logger before
// InitializeLogger has run
func GlobalLoggerOrNop() *StructuredLogger {
	if GlobalLogger != nil {
		return GlobalLogger
	}
	return Nop()
}
