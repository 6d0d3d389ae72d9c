package views

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/logger"
	"go-qr-webapp/internal/scan"
)

// User-facing messages for the upload flow
const (
	MsgNoQRInImage   = "no QR code found in the image."
	MsgLoadFailed    = "failed to load image. The file may be corrupted or not an image."
	MsgProcessFailed = "failed to process image. Make sure it contains a clear QR code."
)

// ErrBusy is returned when a submission is still loading or decoding
var ErrBusy = errors.New("a scan is already in progress")

type UploadState int

const (
	UploadIdle UploadState = iota
	UploadLoading
	UploadDecoding
	UploadResult
	UploadFailed
)

func (s UploadState) String() string {
	switch s {
	case UploadIdle:
		return "idle"
	case UploadLoading:
		return "loading"
	case UploadDecoding:
		return "decoding"
	case UploadResult:
		return "result"
	case UploadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s UploadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UploadSnapshot is the observable state of an Upload
type UploadSnapshot struct {
	State      UploadState `json:"state"`
	FileName   string      `json:"file_name,omitempty"`
	PreviewURL string      `json:"preview_url,omitempty"`
	Payload    string      `json:"payload,omitempty"`
	Link       string      `json:"link,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Terminal reports whether no load or decode is pending
func (s UploadSnapshot) Terminal() bool {
	return s.State != UploadLoading && s.State != UploadDecoding
}

// Upload scans QR codes from user-selected image files
type Upload struct {
	mu       sync.Mutex
	registry *blob.Registry
	loader   blob.Loader
	decoder  *scan.Decoder
	log      *logger.StructuredLogger
	observer func(UploadSnapshot)

	state    UploadState
	gen      uint64
	preview  string
	fileName string
	payload  string
	link     string
	errMsg   string
}

type UploadOption func(*Upload)

// WithUploadObserver registers fn to receive every state change in order
func WithUploadObserver(fn func(UploadSnapshot)) UploadOption {
	return func(u *Upload) {
		u.observer = fn
	}
}

// WithUploadLoader replaces the registry-backed image loader
func WithUploadLoader(l blob.Loader) UploadOption {
	return func(u *Upload) {
		u.loader = l
	}
}

// WithUploadMaxPixels bounds the dimensions of images the loader will decode
func WithUploadMaxPixels(n int) UploadOption {
	return func(u *Upload) {
		u.loader = blob.NewImageLoader(u.registry, n)
	}
}

func NewUpload(registry *blob.Registry, decoder *scan.Decoder, log *logger.StructuredLogger, opts ...UploadOption) *Upload {
	if log == nil {
		log = logger.Nop()
	}
	u := &Upload{
		registry: registry,
		loader:   blob.NewImageLoader(registry, 0),
		decoder:  decoder,
		log:      log.Component("upload"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Submit starts scanning file. The returned channel yields the terminal
// snapshot and is then closed. A nil file does nothing.
func (u *Upload) Submit(ctx context.Context, file *blob.File) (<-chan UploadSnapshot, error) {
	if file == nil {
		return nil, nil
	}

	u.mu.Lock()
	if u.state == UploadLoading || u.state == UploadDecoding {
		u.mu.Unlock()
		return nil, ErrBusy
	}

	u.revokePreviewLocked()
	u.gen++
	gen := u.gen
	u.preview = u.registry.Create(file)
	loadURL := u.registry.Create(file)
	u.fileName = file.Name
	u.payload, u.link, u.errMsg = "", "", ""
	u.state = UploadLoading
	snap := u.snapshotLocked()
	u.mu.Unlock()

	u.log.Debug("Upload submitted", map[string]interface{}{
		"file": file.Name,
		"size": file.Size(),
	})
	u.notify(snap)

	done := make(chan UploadSnapshot, 1)
	go func() {
		defer close(done)
		done <- u.process(ctx, gen, loadURL)
	}()
	return done, nil
}

func (u *Upload) process(ctx context.Context, gen uint64, loadURL string) UploadSnapshot {
	img, err := u.load(ctx, loadURL)
	if err != nil {
		u.log.Warn("Image load failed", map[string]interface{}{"error": err.Error()})
		return u.finish(gen, UploadFailed, "", MsgLoadFailed)
	}

	if snap, ok := u.advance(gen, UploadDecoding); !ok {
		return snap
	}

	res, err := u.decode(img)
	switch {
	case err != nil:
		u.log.Error("Image processing failed", err)
		return u.finish(gen, UploadFailed, "", MsgProcessFailed)
	case res.Found():
		u.log.LogScanEvent("QR code decoded", "upload", map[string]interface{}{"length": len(res.Payload)})
		return u.finish(gen, UploadResult, res.Payload, "")
	default:
		return u.finish(gen, UploadFailed, "", MsgNoQRInImage)
	}
}

// load resolves the one-shot load URL, which is released whatever happens
func (u *Upload) load(ctx context.Context, url string) (image.Image, error) {
	defer u.registry.Revoke(url)
	return u.loader.Load(ctx, url)
}

func (u *Upload) decode(img image.Image) (res scan.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while decoding: %v", r)
		}
	}()

	buf, err := scan.Extract(scan.StillImage{Image: img})
	if err != nil {
		return scan.Result{}, err
	}
	return u.decoder.Decode(buf)
}

// advance moves to state unless gen was superseded by Clear or a new Submit
func (u *Upload) advance(gen uint64, state UploadState) (UploadSnapshot, bool) {
	u.mu.Lock()
	if gen != u.gen {
		snap := u.snapshotLocked()
		u.mu.Unlock()
		return snap, false
	}
	u.state = state
	snap := u.snapshotLocked()
	u.mu.Unlock()

	u.notify(snap)
	return snap, true
}

func (u *Upload) finish(gen uint64, state UploadState, payload, errMsg string) UploadSnapshot {
	u.mu.Lock()
	if gen != u.gen {
		snap := u.snapshotLocked()
		u.mu.Unlock()
		return snap
	}
	u.state = state
	u.payload = payload
	u.link = ""
	if link, ok := scan.AdvisoryLink(payload); ok {
		u.link = link
	}
	u.errMsg = errMsg
	snap := u.snapshotLocked()
	u.mu.Unlock()

	u.notify(snap)
	return snap
}

// Clear releases the preview and returns to Idle. A load still in flight
// is discarded when it completes.
func (u *Upload) Clear() {
	u.mu.Lock()
	u.gen++
	u.revokePreviewLocked()
	u.fileName, u.payload, u.link, u.errMsg = "", "", "", ""
	u.state = UploadIdle
	snap := u.snapshotLocked()
	u.mu.Unlock()

	u.notify(snap)
}

// Dispose tears the view down
func (u *Upload) Dispose() {
	u.Clear()
}

func (u *Upload) Snapshot() UploadSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshotLocked()
}

// Preview returns the file behind the current preview URL
func (u *Upload) Preview() (*blob.File, error) {
	u.mu.Lock()
	url := u.preview
	u.mu.Unlock()
	return u.registry.Resolve(url)
}

func (u *Upload) revokePreviewLocked() {
	if u.preview != "" {
		u.registry.Revoke(u.preview)
		u.preview = ""
	}
}

func (u *Upload) snapshotLocked() UploadSnapshot {
	return UploadSnapshot{
		State:      u.state,
		FileName:   u.fileName,
		PreviewURL: u.preview,
		Payload:    u.payload,
		Link:       u.link,
		Error:      u.errMsg,
	}
}

func (u *Upload) notify(snap UploadSnapshot) {
	if u.observer != nil {
		u.observer(snap)
	}
}
