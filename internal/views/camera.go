package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-qr-webapp/internal/clock"
	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/media"
	"go-qr-webapp/internal/scan"
)

// DefaultPollInterval is the frame sampling period while streaming
const DefaultPollInterval = 500 * time.Millisecond

type CameraState int

const (
	CameraIdle CameraState = iota
	CameraRequesting
	CameraStreaming
	CameraFound
)

func (s CameraState) String() string {
	switch s {
	case CameraIdle:
		return "idle"
	case CameraRequesting:
		return "requesting"
	case CameraStreaming:
		return "streaming"
	case CameraFound:
		return "found"
	default:
		return "unknown"
	}
}

func (s CameraState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CameraSnapshot is the observable state of a Camera
type CameraSnapshot struct {
	State     CameraState `json:"state"`
	StreamID  string      `json:"stream_id,omitempty"`
	Payload   string      `json:"payload,omitempty"`
	Link      string      `json:"link,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

type sessionStatus int

const (
	SessionIdle sessionStatus = iota
	SessionRunning
	SessionStopped
)

// captureSession owns one granted stream and its polling loop. status is
// guarded by the owning Camera's mutex.
type captureSession struct {
	video  *media.Video
	stream media.Stream
	ticker clock.Ticker
	done   chan struct{}
	once   sync.Once
	status sessionStatus
}

func (s *captureSession) stop() {
	s.once.Do(func() {
		s.status = SessionStopped
		close(s.done)
		s.ticker.Stop()
		media.StopAll(s.stream)
		s.video.Release()
	})
}

// Camera scans QR codes from a live camera stream
type Camera struct {
	mu       sync.Mutex
	devices  media.Devices
	decoder  *scan.Decoder
	clock    clock.Clock
	interval time.Duration
	log      *logger.StructuredLogger
	observer func(CameraSnapshot)

	state     CameraState
	attempt   uint64
	cancelReq context.CancelFunc
	session   *captureSession
	payload   string
	link      string
	accessErr *media.AccessError
}

type CameraOption func(*Camera)

// WithClock drives polling from c instead of the wall clock
func WithClock(c clock.Clock) CameraOption {
	return func(cam *Camera) {
		cam.clock = c
	}
}

// WithPollInterval sets the frame sampling period
func WithPollInterval(d time.Duration) CameraOption {
	return func(cam *Camera) {
		if d > 0 {
			cam.interval = d
		}
	}
}

// WithCameraObserver registers fn to receive every state change
func WithCameraObserver(fn func(CameraSnapshot)) CameraOption {
	return func(cam *Camera) {
		cam.observer = fn
	}
}

func NewCamera(devices media.Devices, decoder *scan.Decoder, log *logger.StructuredLogger, opts ...CameraOption) *Camera {
	if log == nil {
		log = logger.Nop()
	}
	c := &Camera{
		devices:  devices,
		decoder:  decoder,
		interval: DefaultPollInterval,
		log:      log.Component("camera"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clock = clock.OrReal(c.clock)
	return c
}

// Start requests the rear camera and begins polling frames. It is a no-op
// unless the camera is Idle, and blocks until access is granted or denied.
// A denial is recorded in the snapshot and returned as *media.AccessError.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != CameraIdle {
		c.mu.Unlock()
		return nil
	}
	c.attempt++
	attempt := c.attempt
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelReq = cancel
	c.accessErr = nil
	c.state = CameraRequesting
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	stream, err := c.devices.GetUserMedia(reqCtx, media.Constraints{
		Video:      true,
		FacingMode: media.FacingEnvironment,
	})
	cancel()

	c.mu.Lock()
	if attempt != c.attempt {
		// stopped while the request was pending
		c.mu.Unlock()
		if stream != nil {
			media.StopAll(stream)
			c.log.Debug("Released stream granted after stop", map[string]interface{}{"stream": stream.ID()})
		}
		return nil
	}
	c.cancelReq = nil

	if err == nil {
		var video *media.Video
		if video, err = media.Bind(stream); err == nil {
			c.beginLocked(stream, video)
			snap = c.snapshotLocked()
			session := c.session
			c.mu.Unlock()

			c.log.Info("Camera streaming", map[string]interface{}{
				"stream":   stream.ID(),
				"interval": c.interval.String(),
			})
			c.notify(snap)
			go c.poll(session)
			return nil
		}
		media.StopAll(stream)
	}

	accessErr := media.AsAccessError(err)
	c.accessErr = accessErr
	c.state = CameraIdle
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.log.Warn("Camera access failed", map[string]interface{}{
		"kind":  accessErr.Kind.String(),
		"error": err.Error(),
	})
	c.notify(snap)
	return accessErr
}

func (c *Camera) beginLocked(stream media.Stream, video *media.Video) {
	c.session = &captureSession{
		video:  video,
		stream: stream,
		ticker: c.clock.NewTicker(c.interval),
		done:   make(chan struct{}),
		status: SessionRunning,
	}
	c.state = CameraStreaming
}

func (c *Camera) poll(s *captureSession) {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C():
		}
		if !c.tick(s) {
			return
		}
	}
}

// tick decodes one frame. It reports whether polling should continue.
// The frame is read under the lock so a Stop never races a read of the
// track it releases; decoding happens outside it.
func (c *Camera) tick(s *captureSession) bool {
	c.mu.Lock()
	if c.session != s || s.status != SessionRunning {
		c.mu.Unlock()
		return false
	}
	buf, err := scan.Extract(s.video)
	c.mu.Unlock()

	if err != nil {
		var extractErr *scan.ExtractionError
		if !errors.As(err, &extractErr) {
			c.log.Debug("Frame read failed", map[string]interface{}{"error": err.Error()})
		}
		// not streaming yet
		return true
	}

	res := c.decoder.Scan(scan.Request{Kind: scan.SourceCameraFrame, Buffer: buf})
	if res.Err != nil {
		c.log.Debug("Frame decode failed", map[string]interface{}{"error": res.Err.Error()})
		return true
	}
	if !res.Found() {
		return true
	}

	c.mu.Lock()
	if c.session != s || s.status != SessionRunning {
		c.mu.Unlock()
		return false
	}
	s.stop()
	c.session = nil
	c.state = CameraFound
	c.payload = res.Payload
	c.link = ""
	if link, ok := scan.AdvisoryLink(res.Payload); ok {
		c.link = link
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.LogScanEvent("QR code decoded", "camera", map[string]interface{}{"length": len(res.Payload)})
	c.notify(snap)
	return false
}

// Stop cancels any pending request, ends polling and releases the camera.
// It is safe from any state; a found result is kept.
func (c *Camera) Stop() {
	c.mu.Lock()
	changed := c.stopLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.log.Debug("Camera stopped")
		c.notify(snap)
	}
}

func (c *Camera) stopLocked() bool {
	c.attempt++
	if c.cancelReq != nil {
		c.cancelReq()
		c.cancelReq = nil
	}
	if c.session != nil {
		c.session.stop()
		c.session = nil
	}
	if c.state == CameraRequesting || c.state == CameraStreaming {
		c.state = CameraIdle
		return true
	}
	return false
}

// Reset clears the result and error, then starts again
func (c *Camera) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.stopLocked()
	c.clearLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	return c.Start(ctx)
}

// Dispose stops the camera and forgets any result
func (c *Camera) Dispose() {
	c.mu.Lock()
	c.stopLocked()
	c.clearLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Camera) clearLocked() {
	c.payload, c.link = "", ""
	c.accessErr = nil
	c.state = CameraIdle
}

func (c *Camera) Snapshot() CameraSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Streaming reports whether a capture session is live
func (c *Camera) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *Camera) snapshotLocked() CameraSnapshot {
	snap := CameraSnapshot{
		State:   c.state,
		Payload: c.payload,
		Link:    c.link,
	}
	if c.session != nil {
		snap.StreamID = c.session.stream.ID()
	}
	if c.accessErr != nil {
		snap.Error = c.accessErr.UserMessage()
		snap.ErrorKind = c.accessErr.Kind.String()
	}
	return snap
}

func (c *Camera) notify(snap CameraSnapshot) {
	if c.observer != nil {
		c.observer(snap)
	}
}
