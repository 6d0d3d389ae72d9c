package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/scan"
	"go-qr-webapp/internal/views"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// ScanRecorder receives one entry per decode attempt
type ScanRecorder interface {
	RecordScan(source string, outcome scan.Outcome, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordScan(string, scan.Outcome, time.Duration) {}

// OrNopRecorder returns r, or a recorder that drops everything when r is nil
func OrNopRecorder(r ScanRecorder) ScanRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// ScannerHandler drives the upload scan view
type ScannerHandler struct {
	app      *views.App
	registry *blob.Registry
	recorder ScanRecorder
}

func NewScannerHandler(app *views.App, registry *blob.Registry, recorder ScanRecorder) *ScannerHandler {
	return &ScannerHandler{app: app, registry: registry, recorder: OrNopRecorder(recorder)}
}

// Upload scans the multipart "file" field and answers with the terminal
// snapshot
func (h *ScannerHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit),
			"code":  "UPLOAD_TOO_LARGE",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required", "code": "MISSING_FILE"})
		return
	}

	src, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err), nil)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Failed to read upload", "code": "READ_ERROR"})
		return
	}

	h.app.Switch(views.ViewUpload)
	start := time.Now()
	done, err := h.app.Upload.Submit(c.Request.Context(), &blob.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respondError(c, err, gin.H{"snapshot": h.app.Upload.Snapshot()})
		return
	}

	select {
	case snap := <-done:
		h.recorder.RecordScan("upload", uploadOutcome(snap), time.Since(start))
		status := http.StatusOK
		if snap.State == views.UploadFailed {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, snap)
	case <-c.Request.Context().Done():
		c.Abort()
	}
}

func uploadOutcome(snap views.UploadSnapshot) scan.Outcome {
	switch {
	case snap.State == views.UploadResult:
		return scan.OutcomeFound
	case snap.Error == views.MsgNoQRInImage:
		return scan.OutcomeNotFound
	default:
		return scan.OutcomeErrored
	}
}

func (h *ScannerHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Upload.Snapshot())
}

func (h *ScannerHandler) Clear(c *gin.Context) {
	h.app.Upload.Clear()
	c.JSON(http.StatusOK, h.app.Upload.Snapshot())
}

// Blob serves the bytes behind a preview URL
func (h *ScannerHandler) Blob(c *gin.Context) {
	f, err := h.registry.Resolve(blob.URL(c.Param("id")))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.Name))
	c.Data(http.StatusOK, mimetype.Detect(f.Data).String(), f.Data)
}
