// Package v4l checks video device nodes before a capture library opens
// them, so that access failures can be told apart.
package v4l

import "fmt"

// DevicePath returns the device node for a camera index
func DevicePath(index int) string {
	return fmt.Sprintf("/dev/video%d", index)
}
