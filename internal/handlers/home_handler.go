package handlers

import (
	"net/http"

	"go-qr-webapp/internal/views"

	"github.com/gin-gonic/gin"
)

// ViewHandler exposes which screen is active and switches between them
type ViewHandler struct {
	app *views.App
}

func NewViewHandler(app *views.App) *ViewHandler {
	return &ViewHandler{app: app}
}

type viewRequest struct {
	View string `json:"view"`
}

func (h *ViewHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"view":  h.app.Current(),
		"views": []views.View{views.ViewHome, views.ViewUpload, views.ViewCamera, views.ViewGenerate},
	})
}

// SetView switches screens; {"view":"home"} is the back action
func (h *ViewHandler) SetView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	v, err := views.ParseView(req.View)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_VIEW"})
		return
	}

	h.app.Switch(v)
	c.JSON(http.StatusOK, gin.H{"view": h.app.Current()})
}
