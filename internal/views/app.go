// Package views holds the per-screen controllers and the coordinator that
// decides which one is active. Each controller owns its state; leaving a
// view disposes its controller.
package views

import (
	"fmt"
	"strings"
	"sync"

	"go-qr-webapp/internal/logger"
)

type View int

const (
	ViewHome View = iota
	ViewUpload
	ViewCamera
	ViewGenerate
)

func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewUpload:
		return "upload"
	case ViewCamera:
		return "camera"
	case ViewGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *View) UnmarshalText(text []byte) error {
	parsed, err := ParseView(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseView accepts a view name; "scanner" and "generator" are aliases
func ParseView(name string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "home":
		return ViewHome, nil
	case "upload", "scanner":
		return ViewUpload, nil
	case "camera":
		return ViewCamera, nil
	case "generate", "generator":
		return ViewGenerate, nil
	default:
		return ViewHome, fmt.Errorf("unknown view %q", name)
	}
}

// App tracks the active view over the three controllers
type App struct {
	mu        sync.Mutex
	current   View
	Upload    *Upload
	Camera    *Camera
	Generator *Generator
	log       *logger.StructuredLogger
}

func NewApp(upload *Upload, camera *Camera, generator *Generator, log *logger.StructuredLogger) *App {
	if log == nil {
		log = logger.Nop()
	}
	return &App{
		current:   ViewHome,
		Upload:    upload,
		Camera:    camera,
		Generator: generator,
		log:       log.Component("app"),
	}
}

func (a *App) Current() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Switch makes v active, disposing the controller of the view being left
func (a *App) Switch(v View) {
	a.mu.Lock()
	prev := a.current
	if prev == v {
		a.mu.Unlock()
		return
	}
	a.current = v
	a.mu.Unlock()

	a.dispose(prev)
	a.log.Debug("View switched", map[string]interface{}{
		"from": prev.String(),
		"to":   v.String(),
	})
}

// Active reports whether v is the current view
func (a *App) Active(v View) bool {
	return a.Current() == v
}

// Close disposes every controller
func (a *App) Close() {
	for _, v := range []View{ViewUpload, ViewCamera, ViewGenerate} {
		a.dispose(v)
	}
}

func (a *App) dispose(v View) {
	switch v {
	case ViewUpload:
		a.Upload.Dispose()
	case ViewCamera:
		a.Camera.Dispose()
	case ViewGenerate:
		a.Generator.Dispose()
	}
}
