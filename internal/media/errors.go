package media

import (
	"errors"
	"fmt"
)

// AccessErrorKind classifies why a stream was not granted
type AccessErrorKind int

const (
	Unknown AccessErrorKind = iota
	PermissionDenied
	DeviceNotFound
	DeviceBusy
)

func (k AccessErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case DeviceNotFound:
		return "device_not_found"
	case DeviceBusy:
		return "device_busy"
	default:
		return "unknown"
	}
}

// AccessError is returned by Devices when no stream could be granted
type AccessError struct {
	Kind  AccessErrorKind
	Cause error
}

func (e *AccessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("camera access error (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("camera access error (%s)", e.Kind)
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}

// UserMessage is the text shown for the error kind
func (e *AccessError) UserMessage() string {
	switch e.Kind {
	case PermissionDenied:
		return "camera permission denied. Please allow access to your camera."
	case DeviceNotFound:
		return "no camera found. Please ensure your device has a camera."
	case DeviceBusy:
		return "camera is being used by another app. Please close other apps using the camera."
	default:
		return "unable to access camera. Please try again."
	}
}

// AsAccessError returns err as an *AccessError, classifying anything else
// as Unknown
func AsAccessError(err error) *AccessError {
	if err == nil {
		return nil
	}
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr
	}
	return &AccessError{Kind: Unknown, Cause: err}
}
