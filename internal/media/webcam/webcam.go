// Package webcam grants media streams from local cameras through OpenCV.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/media"
	"go-qr-webapp/internal/media/v4l"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Config selects the camera per facing mode and the requested frame size
type Config struct {
	Device      int
	FrontDevice int
	Width       int
	Height      int
}

// Devices implements media.Devices on gocv.VideoCapture
type Devices struct {
	cfg Config
	log *logger.StructuredLogger
}

// New creates camera devices for cfg
func New(cfg Config, log *logger.StructuredLogger) *Devices {
	return &Devices{cfg: cfg, log: log}
}

// GetUserMedia opens the camera matching the facing-mode hint. Environment
// (rear) maps to cfg.Device and user (front) to cfg.FrontDevice.
func (d *Devices) GetUserMedia(ctx context.Context, constraints media.Constraints) (media.Stream, error) {
	if !constraints.Video {
		return nil, &media.AccessError{Kind: media.Unknown, Cause: errors.New("video capture not requested")}
	}

	index := d.cfg.Device
	if constraints.FacingMode == media.FacingUser {
		index = d.cfg.FrontDevice
	}

	if err := v4l.Probe(index); err != nil {
		return nil, err
	}

	type opened struct {
		vc  *gocv.VideoCapture
		err error
	}
	done := make(chan opened, 1)
	go func() {
		vc, err := gocv.OpenVideoCapture(index)
		done <- opened{vc: vc, err: err}
	}()

	var res opened
	select {
	case res = <-done:
	case <-ctx.Done():
		// release whatever the open eventually yields
		go func() {
			if late := <-done; late.vc != nil {
				late.vc.Close()
			}
		}()
		return nil, &media.AccessError{Kind: media.Unknown, Cause: ctx.Err()}
	}

	if res.err != nil {
		return nil, &media.AccessError{Kind: media.DeviceNotFound, Cause: res.err}
	}
	if !res.vc.IsOpened() {
		res.vc.Close()
		return nil, &media.AccessError{Kind: media.DeviceNotFound, Cause: fmt.Errorf("device %d did not open", index)}
	}

	width, height := constraints.Width, constraints.Height
	if width == 0 {
		width = d.cfg.Width
	}
	if height == 0 {
		height = d.cfg.Height
	}
	if width > 0 && height > 0 {
		res.vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		res.vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	if d.log != nil {
		d.log.Info("Camera opened", map[string]interface{}{
			"device":      index,
			"facing_mode": string(constraints.FacingMode),
		})
	}

	return &stream{
		id:    uuid.NewString(),
		track: &track{vc: res.vc, mat: gocv.NewMat()},
	}, nil
}

type stream struct {
	id    string
	track *track
}

func (s *stream) ID() string {
	return s.id
}

func (s *stream) Tracks() []media.Track {
	return []media.Track{s.track}
}

type track struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	mat     gocv.Mat
	width   int
	height  int
	stopped bool
}

func (t *track) Kind() string {
	return "video"
}

// Settings reports the size of the last frame read, zero before the first
func (t *track) Settings() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return 0, 0
	}
	if t.width == 0 || t.height == 0 {
		if !t.grabLocked() {
			return 0, 0
		}
	}
	return t.width, t.height
}

func (t *track) ReadFrame() (image.Image, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil, errors.New("track stopped")
	}
	if !t.grabLocked() {
		return nil, errors.New("no frame available")
	}
	return t.mat.ToImage()
}

func (t *track) grabLocked() bool {
	if ok := t.vc.Read(&t.mat); !ok || t.mat.Empty() {
		return false
	}
	t.width, t.height = t.mat.Cols(), t.mat.Rows()
	return true
}

func (t *track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.vc.Close()
	t.mat.Close()
}
