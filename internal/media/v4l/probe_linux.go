//go:build linux

package v4l

import (
	"errors"
	"io/fs"
	"os"

	"go-qr-webapp/internal/media"

	"golang.org/x/sys/unix"
)

// Probe opens the device node for index read-write and closes it again.
// It returns a classified *media.AccessError when that fails.
func Probe(index int) error {
	f, err := os.OpenFile(DevicePath(index), os.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return &media.AccessError{Kind: Classify(err), Cause: err}
	}
	return f.Close()
}

// Classify maps an open(2) failure on a device node to an access error kind
func Classify(err error) media.AccessErrorKind {
	switch {
	case err == nil:
		return media.Unknown
	case errors.Is(err, unix.EBUSY):
		return media.DeviceBusy
	case errors.Is(err, fs.ErrPermission), errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return media.PermissionDenied
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return media.DeviceNotFound
	default:
		return media.Unknown
	}
}
