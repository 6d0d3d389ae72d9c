//go:build !linux

package v4l

// Probe is a no-op where device nodes are not exposed; the capture
// library reports failures itself.
func Probe(index int) error {
	return nil
}
