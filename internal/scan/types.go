package scan

import (
	"fmt"
)

// SourceKind identifies where a pixel buffer came from
type SourceKind int

const (
	SourceImage SourceKind = iota
	SourceCameraFrame
)

var sourceKindNames = map[SourceKind]string{
	SourceImage:       "image",
	SourceCameraFrame: "camera_frame",
}

func (k SourceKind) String() string {
	if name, ok := sourceKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// PixelBuffer holds raw RGBA pixels, 4 bytes per pixel, row-major
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int
}

// Request is a single decode attempt. It is built once and never mutated.
type Request struct {
	Kind   SourceKind
	Buffer *PixelBuffer
}

// Outcome is the discriminant of a Result
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeFound
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeErrored:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the terminal value of one decode attempt
type Result struct {
	Outcome Outcome    `json:"outcome"`
	Payload string     `json:"payload,omitempty"`
	Kind    SourceKind `json:"-"`
	Err     error      `json:"-"`
}

// Found reports whether the attempt decoded a payload
func (r Result) Found() bool {
	return r.Outcome == OutcomeFound
}

// ExtractionError is returned when a source cannot be rasterised
type ExtractionError struct {
	Width  int
	Height int
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("frame extraction failed (%dx%d): %v", e.Width, e.Height, e.Cause)
	}
	return fmt.Sprintf("frame extraction failed: source has no pixels (%dx%d)", e.Width, e.Height)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// DecodeError is returned for malformed pixel buffers only
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Message, e.Cause)
	}
	return "decode failed: " + e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
