package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/middleware"
	"go-qr-webapp/internal/monitoring"
	"go-qr-webapp/internal/routes"
	"go-qr-webapp/internal/scan"
	"go-qr-webapp/internal/services"
	"go-qr-webapp/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Addr()
			}
			return serve(cmd.Context(), c, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default host:port from config)")
	return cmd
}

func serve(ctx context.Context, c *cli, addr string) error {
	if logger.ParseLevel(c.cfg.Logging.Level) != logger.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := blob.NewRegistry()
	decoder := scan.NewDecoder(c.cfg.Scanner.TryHarder)
	app := views.NewApp(
		views.NewUpload(registry, decoder, c.log, views.WithUploadMaxPixels(c.cfg.Scanner.MaxPixels)),
		views.NewCamera(newWebcam(c), decoder, c.log, views.WithPollInterval(c.cfg.PollInterval())),
		views.NewGenerator(services.NewQRService(c.cfg.Generator), services.NewPDFService("A4"), c.log),
		c.log,
	)
	defer app.Close()

	router := routes.NewRouter(routes.Dependencies{
		App:          app,
		Registry:     registry,
		Decoder:      decoder,
		Config:       c.cfg,
		Logger:       c.log,
		PerfMonitor:  middleware.NewPerformanceMonitor(2*time.Second, c.log),
		ErrorTracker: monitoring.NewErrorTracker(500),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.LogSystemEvent("Server starting", map[string]interface{}{
			"addr":   addr,
			"engine": c.cfg.Generator.Engine,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	c.log.LogSystemEvent("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
