// Package mediatest provides scripted media devices for tests.
package mediatest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go-qr-webapp/internal/media"
)

// Track is a video track that serves a fixed frame and records stops
type Track struct {
	mu       sync.Mutex
	frame    image.Image
	stops    int
	reads    int
	late     int
	settings int
	width    int
	height   int
}

// NewTrack creates a track serving frame. A nil frame reports 0x0.
func NewTrack(frame image.Image) *Track {
	t := &Track{}
	t.SetFrame(frame)
	return t
}

func (t *Track) Kind() string { return "video" }

func (t *Track) Stop() {
	t.mu.Lock()
	t.stops++
	t.mu.Unlock()
}

// SetFrame swaps the frame served from now on
func (t *Track) SetFrame(frame image.Image) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frame = frame
	t.width, t.height = 0, 0
	if frame != nil {
		t.width, t.height = frame.Bounds().Dx(), frame.Bounds().Dy()
	}
}

func (t *Track) Settings() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings++
	return t.width, t.height
}

func (t *Track) ReadFrame() (image.Image, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads++
	if t.stops > 0 {
		t.late++
	}
	if t.frame == nil {
		return nil, errors.New("no frame")
	}
	return t.frame, nil
}

// Stops returns how many times Stop was called
func (t *Track) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

// SettingsCalls returns how many times the frame size was queried
func (t *Track) SettingsCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// ReadsAfterStop returns how many frames were read once the track was stopped
func (t *Track) ReadsAfterStop() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.late
}

// Reads returns how many frames were read
func (t *Track) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}

// Stream is a one-track stream
type Stream struct {
	id    string
	Track *Track
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []media.Track {
	return []media.Track{s.Track}
}

// Devices grants streams or fails as scripted. A non-nil Gate holds each
// request until it is closed or receives; IgnoreCancel keeps holding after
// the request context ends, like a permission prompt that cannot be
// withdrawn.
type Devices struct {
	mu           sync.Mutex
	Err          error
	Frame        image.Image
	Gate         chan struct{}
	IgnoreCancel bool
	requests     []media.Constraints
	streams      []*Stream
}

func (d *Devices) GetUserMedia(ctx context.Context, constraints media.Constraints) (media.Stream, error) {
	d.mu.Lock()
	d.requests = append(d.requests, constraints)
	gate := d.Gate
	err := d.Err
	frame := d.Frame
	ignoreCancel := d.IgnoreCancel
	d.mu.Unlock()

	if gate != nil {
		if ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	s := &Stream{
		id:    fmt.Sprintf("stream-%d", len(d.streams)+1),
		Track: NewTrack(frame),
	}
	d.streams = append(d.streams, s)
	return s, nil
}

// Requests returns the constraints of every call
func (d *Devices) Requests() []media.Constraints {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]media.Constraints, len(d.requests))
	copy(out, d.requests)
	return out
}

// Streams returns every granted stream
func (d *Devices) Streams() []*Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Stream, len(d.streams))
	copy(out, d.streams)
	return out
}

// LastStream returns the most recent grant, or nil
func (d *Devices) LastStream() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}
