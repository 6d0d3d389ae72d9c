// Package media describes camera capture the way the rest of the
// application consumes it: request a stream, bind it to a video, read
// frames, stop tracks.
package media

import (
	"context"
	"image"
)

// FacingMode is a hint for which camera to open
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Constraints describes the requested stream
type Constraints struct {
	Video      bool
	Audio      bool
	FacingMode FacingMode
	Width      int
	Height     int
}

// Devices grants media streams
type Devices interface {
	GetUserMedia(ctx context.Context, constraints Constraints) (Stream, error)
}

// Stream is a granted capture stream. Its tracks must be stopped to
// release the hardware.
type Stream interface {
	ID() string
	Tracks() []Track
}

// Track is one stoppable media track. Stop must be idempotent.
type Track interface {
	Kind() string
	Stop()
}

// VideoTrack is a track that yields frames
type VideoTrack interface {
	Track
	// Settings returns the current frame dimensions; zero until frames flow.
	Settings() (width, height int)
	// ReadFrame returns the current frame.
	ReadFrame() (image.Image, error)
}

// StopAll stops every track of s
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// FirstVideoTrack returns the first track of s that yields frames
func FirstVideoTrack(s Stream) (VideoTrack, bool) {
	if s == nil {
		return nil, false
	}
	for _, t := range s.Tracks() {
		if vt, ok := t.(VideoTrack); ok {
			return vt, true
		}
	}
	return nil, false
}
