// Command qrapp scans and generates QR codes from the terminal or over a
// local HTTP API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
