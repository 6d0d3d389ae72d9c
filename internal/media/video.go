package media

import (
	"errors"
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// ErrNoVideoTrack is returned when a stream carries no frames
var ErrNoVideoTrack = errors.New("stream has no video track")

// Video is a stream bound for display. It implements scan.Source over the
// stream's current frame.
type Video struct {
	mu     sync.Mutex
	stream Stream
	track  VideoTrack
}

// Bind attaches a stream to a new Video
func Bind(stream Stream) (*Video, error) {
	track, ok := FirstVideoTrack(stream)
	if !ok {
		return nil, ErrNoVideoTrack
	}
	return &Video{stream: stream, track: track}, nil
}

// Stream returns the bound stream, or nil once released
func (v *Video) Stream() Stream {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream
}

// Release detaches the stream. The caller is responsible for stopping it.
func (v *Video) Release() {
	v.mu.Lock()
	v.stream = nil
	v.track = nil
	v.mu.Unlock()
}

// Size returns the current frame dimensions, zero if nothing is bound
func (v *Video) Size() (int, int) {
	v.mu.Lock()
	track := v.track
	v.mu.Unlock()

	if track == nil {
		return 0, 0
	}
	return track.Settings()
}

// DrawTo draws the current frame onto dst
func (v *Video) DrawTo(dst *image.RGBA) error {
	v.mu.Lock()
	track := v.track
	v.mu.Unlock()

	if track == nil {
		return ErrNoVideoTrack
	}

	frame, err := track.ReadFrame()
	if err != nil {
		return err
	}
	draw.Draw(dst, dst.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return nil
}
