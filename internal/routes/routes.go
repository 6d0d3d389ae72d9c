package routes

import (
	"time"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/config"
	"go-qr-webapp/internal/handlers"
	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/middleware"
	"go-qr-webapp/internal/monitoring"
	"go-qr-webapp/internal/scan"
	"go-qr-webapp/internal/views"

	"github.com/gin-gonic/gin"
)

const (
	slowRequestThreshold = 2 * time.Second
	maxTrackedErrors     = 500

	decodeRateLimit  = 60
	decodeRateWindow = time.Minute
)

// Dependencies is everything the HTTP surface needs. Nil monitoring
// components are created on demand.
type Dependencies struct {
	App          *views.App
	Registry     *blob.Registry
	Decoder      *scan.Decoder
	Config       *config.Config
	Logger       *logger.StructuredLogger
	PerfMonitor  *middleware.PerformanceMonitor
	ErrorTracker *monitoring.ErrorTracker
}

func (d *Dependencies) defaults() {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.PerfMonitor == nil {
		d.PerfMonitor = middleware.NewPerformanceMonitor(slowRequestThreshold, d.Logger)
	}
	if d.ErrorTracker == nil {
		d.ErrorTracker = monitoring.NewErrorTracker(maxTrackedErrors)
	}
	if d.Decoder == nil {
		d.Decoder = scan.NewDecoder(d.Config.Scanner.TryHarder)
	}
}

// NewRouter builds a gin engine with the middleware chain and all routes
func NewRouter(deps Dependencies) *gin.Engine {
	deps.defaults()

	r := gin.New()
	r.Use(handlers.GlobalErrorHandler(deps.Logger))
	r.Use(deps.Logger.LoggingMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(deps.PerfMonitor.PerformanceMiddleware())
	r.Use(deps.ErrorTracker.ErrorTrackingMiddleware())
	r.NoRoute(handlers.NotFoundHandler())

	SetupRoutes(r, deps)
	return r
}

// SetupRoutes registers the API on r
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	deps.defaults()

	viewHandler := handlers.NewViewHandler(deps.App)
	scannerHandler := handlers.NewScannerHandler(deps.App, deps.Registry, deps.PerfMonitor)
	cameraHandler := handlers.NewCameraHandler(deps.App)
	generatorHandler := handlers.NewGeneratorHandler(deps.App, deps.Config.Generator)
	monitoringHandler := handlers.NewMonitoringHandler(deps.ErrorTracker, deps.PerfMonitor)
	fallbackHandler := NewScanFallbackHandler(deps.Decoder, deps.Config.Scanner.ServerDecode, deps.PerfMonitor, deps.Logger)

	r.GET("/health", deps.PerfMonitor.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/metrics", monitoringHandler.Metrics)
		api.GET("/errors", monitoringHandler.Errors)
		api.POST("/errors/:fingerprint/resolve", monitoringHandler.ResolveError)

		api.GET("/view", viewHandler.GetView)
		api.POST("/view", viewHandler.SetView)

		upload := api.Group("/upload")
		{
			upload.POST("", middleware.RequestSizeLimitMiddleware(deps.Config.Server.MaxUploadBytes), scannerHandler.Upload)
			upload.GET("", scannerHandler.Snapshot)
			upload.DELETE("", scannerHandler.Clear)
		}
		api.GET("/blob/:id", scannerHandler.Blob)

		camera := api.Group("/camera")
		{
			camera.GET("", cameraHandler.Snapshot)
			camera.POST("/start", cameraHandler.Start)
			camera.POST("/stop", cameraHandler.Stop)
			camera.POST("/reset", cameraHandler.Reset)
		}

		generate := api.Group("/generate")
		{
			generate.POST("", generatorHandler.Generate)
			generate.GET("", generatorHandler.Result)
			generate.GET("/download", generatorHandler.Download)
		}
	}

	SetupScanFallbackRoutes(r, fallbackHandler, ScanFallbackMiddleware(decodeRateLimit, decodeRateWindow, nil))
}
