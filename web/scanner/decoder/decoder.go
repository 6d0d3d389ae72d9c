//go:build js && wasm

// Command decoder is the in-browser QR decoder. Build with
// GOOS=js GOARCH=wasm and load it next to wasm_exec.js.
package main

import (
	"syscall/js"
	"time"

	"go-qr-webapp/internal/scan"
)

const dedupeCooldown = 1500 * time.Millisecond

var (
	decoder = scan.NewDecoder(true)
	cache   = scan.NewDedupeCache(dedupeCooldown, nil)
)

// Decode handles goDecode(frameData, width, height[, roi]). frameData is a
// Uint8Array or Uint8ClampedArray of RGBA pixels.
func Decode(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return map[string]interface{}{
			"success": false,
			"error":   "insufficient arguments: need frameData, width, height",
		}
	}

	frameDataJS := args[0]
	buf := &scan.PixelBuffer{
		Pix:    make([]byte, frameDataJS.Get("length").Int()),
		Width:  args[1].Int(),
		Height: args[2].Int(),
	}
	js.CopyBytesToGo(buf.Pix, frameDataJS)

	if len(args) > 3 && !args[3].IsNull() && !args[3].IsUndefined() {
		roiJS := args[3]
		cropped, err := buf.Crop(scan.ROI{
			X:      roiJS.Get("x").Int(),
			Y:      roiJS.Get("y").Int(),
			Width:  roiJS.Get("width").Int(),
			Height: roiJS.Get("height").Int(),
		})
		if err != nil {
			return map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			}
		}
		buf = cropped
	}

	res := decoder.Scan(scan.Request{Kind: scan.SourceCameraFrame, Buffer: buf})
	switch {
	case res.Err != nil:
		return map[string]interface{}{
			"success": false,
			"error":   res.Err.Error(),
		}
	case !res.Found():
		return map[string]interface{}{
			"success":  false,
			"notFound": true,
		}
	}

	if cache.Check(res.Payload) {
		return map[string]interface{}{
			"success":   false,
			"duplicate": true,
			"error":     "duplicate QR code (cooldown active)",
		}
	}

	result := map[string]interface{}{
		"text":      res.Payload,
		"timestamp": time.Now().UnixMilli(),
	}
	if link, ok := scan.AdvisoryLink(res.Payload); ok {
		result["link"] = link
	}
	return map[string]interface{}{
		"success": true,
		"result":  result,
	}
}

// GetCacheStats returns dedupe cache statistics
func GetCacheStats(this js.Value, args []js.Value) interface{} {
	return map[string]interface{}{
		"cacheSize":  cache.Len(),
		"cooldownMs": cache.Cooldown().Milliseconds(),
	}
}

// ClearCache clears the dedupe cache
func ClearCache(this js.Value, args []js.Value) interface{} {
	cache.Clear()
	return map[string]interface{}{"success": true}
}

func main() {
	js.Global().Set("goDecode", js.FuncOf(Decode))
	js.Global().Set("goGetCacheStats", js.FuncOf(GetCacheStats))
	js.Global().Set("goClearCache", js.FuncOf(ClearCache))

	js.Global().Set("goWasmReady", js.ValueOf(true))

	select {}
}
