package handlers

import (
	"net/http"

	"go-qr-webapp/internal/views"

	"github.com/gin-gonic/gin"
)

// CameraHandler drives the live camera scan view
type CameraHandler struct {
	app *views.App
}

func NewCameraHandler(app *views.App) *CameraHandler {
	return &CameraHandler{app: app}
}

func (h *CameraHandler) Start(c *gin.Context) {
	h.app.Switch(views.ViewCamera)
	h.respond(c, h.app.Camera.Start(c.Request.Context()))
}

func (h *CameraHandler) Reset(c *gin.Context) {
	h.app.Switch(views.ViewCamera)
	h.respond(c, h.app.Camera.Reset(c.Request.Context()))
}

func (h *CameraHandler) Stop(c *gin.Context) {
	h.app.Camera.Stop()
	c.JSON(http.StatusOK, h.app.Camera.Snapshot())
}

func (h *CameraHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Camera.Snapshot())
}

func (h *CameraHandler) respond(c *gin.Context, err error) {
	snap := h.app.Camera.Snapshot()
	if err != nil {
		_ = c.Error(err)
		c.JSON(statusForError(err), snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}
