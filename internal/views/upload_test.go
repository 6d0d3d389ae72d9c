package views

import (
	"context"
	"sync"
	"testing"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []UploadState
}

func (r *stateRecorder) observe(s UploadSnapshot) {
	r.mu.Lock()
	r.states = append(r.states, s.State)
	r.mu.Unlock()
}

func (r *stateRecorder) all() []UploadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]UploadState(nil), r.states...)
}

func newTestUpload(opts ...UploadOption) (*Upload, *blob.Registry, *stateRecorder) {
	reg := blob.NewRegistry()
	rec := &stateRecorder{}
	opts = append([]UploadOption{WithUploadObserver(rec.observe)}, opts...)
	return NewUpload(reg, scan.NewDecoder(true), nil, opts...), reg, rec
}

func submitAndWait(t *testing.T, u *Upload, f *blob.File) UploadSnapshot {
	t.Helper()
	done, err := u.Submit(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, done)
	snap, ok := <-done
	require.True(t, ok)
	return snap
}

func TestUpload_DecodesHello(t *testing.T) {
	u, reg, rec := newTestUpload()

	snap := submitAndWait(t, u, pngFile(t, "hello.png", qrImage(t, "HELLO")))

	assert.Equal(t, UploadResult, snap.State)
	assert.Equal(t, "HELLO", snap.Payload)
	assert.Empty(t, snap.Link)
	assert.Empty(t, snap.Error)
	assert.Equal(t, "hello.png", snap.FileName)
	assert.NotEmpty(t, snap.PreviewURL)
	assert.Equal(t, []UploadState{UploadLoading, UploadDecoding, UploadResult}, rec.all())

	// load URL is gone, preview remains
	assert.Equal(t, 1, reg.Len())
	preview, err := u.Preview()
	require.NoError(t, err)
	assert.Equal(t, "hello.png", preview.Name)
}

func TestUpload_URLPayloadGetsLink(t *testing.T) {
	u, _, _ := newTestUpload()

	snap := submitAndWait(t, u, pngFile(t, "url.png", qrImage(t, "https://example.com/a")))
	assert.Equal(t, UploadResult, snap.State)
	assert.Equal(t, "https://example.com/a", snap.Link)
}

func TestUpload_NoQRCode(t *testing.T) {
	u, _, rec := newTestUpload()

	snap := submitAndWait(t, u, pngFile(t, "blank.png", blankImage(120, 80)))

	assert.Equal(t, UploadFailed, snap.State)
	assert.Equal(t, MsgNoQRInImage, snap.Error)
	assert.Empty(t, snap.Payload)
	assert.Contains(t, rec.all(), UploadDecoding)
}

func TestUpload_NonImageNeverDecodes(t *testing.T) {
	files := map[string]*blob.File{
		"text":      {Name: "notes.txt", Data: []byte("just some words, not pixels")},
		"truncated": {Name: "broken.png", Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
	}

	for name, f := range files {
		t.Run(name, func(t *testing.T) {
			u, reg, rec := newTestUpload()

			snap := submitAndWait(t, u, f)

			assert.Equal(t, UploadFailed, snap.State)
			assert.Equal(t, MsgLoadFailed, snap.Error)
			assert.NotContains(t, rec.all(), UploadDecoding)
			assert.Equal(t, 1, reg.Len())
		})
	}
}

func TestUpload_PanicIsRecovered(t *testing.T) {
	u, _, _ := newTestUpload(WithUploadLoader(staticLoader{img: panicImage{}}))

	snap := submitAndWait(t, u, &blob.File{Name: "x.png", Data: []byte("x")})

	assert.Equal(t, UploadFailed, snap.State)
	assert.Equal(t, MsgProcessFailed, snap.Error)
}

func TestUpload_NilFileIsNoop(t *testing.T) {
	u, reg, rec := newTestUpload()

	done, err := u.Submit(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, done)
	assert.Equal(t, UploadIdle, u.Snapshot().State)
	assert.Empty(t, rec.all())
	assert.Zero(t, reg.Len())
}

func TestUpload_RejectsOverlap(t *testing.T) {
	reg := blob.NewRegistry()
	gate := make(chan struct{})
	u := NewUpload(reg, scan.NewDecoder(true), nil,
		WithUploadLoader(&gatedLoader{gate: gate, inner: blob.NewImageLoader(reg, 0)}))

	done, err := u.Submit(context.Background(), pngFile(t, "a.png", qrImage(t, "A")))
	require.NoError(t, err)
	assert.Equal(t, UploadLoading, u.Snapshot().State)

	_, err = u.Submit(context.Background(), pngFile(t, "b.png", qrImage(t, "B")))
	assert.ErrorIs(t, err, ErrBusy)

	close(gate)
	snap := <-done
	assert.Equal(t, "A", snap.Payload)
}

func TestUpload_ClearDiscardsInFlightLoad(t *testing.T) {
	reg := blob.NewRegistry()
	gate := make(chan struct{})
	u := NewUpload(reg, scan.NewDecoder(true), nil,
		WithUploadLoader(&gatedLoader{gate: gate, inner: blob.NewImageLoader(reg, 0)}))

	done, err := u.Submit(context.Background(), pngFile(t, "a.png", qrImage(t, "A")))
	require.NoError(t, err)

	u.Clear()
	assert.Equal(t, UploadIdle, u.Snapshot().State)
	assert.Empty(t, u.Snapshot().PreviewURL)

	close(gate)
	snap := <-done
	assert.Equal(t, UploadIdle, snap.State)
	assert.Empty(t, snap.Payload)
	assert.Equal(t, UploadIdle, u.Snapshot().State)
	assert.Zero(t, reg.Len())
}

func TestUpload_ClearReleasesPreview(t *testing.T) {
	u, reg, _ := newTestUpload()

	submitAndWait(t, u, pngFile(t, "hello.png", qrImage(t, "HELLO")))
	require.Equal(t, 1, reg.Len())

	u.Clear()
	snap := u.Snapshot()
	assert.Equal(t, UploadIdle, snap.State)
	assert.Empty(t, snap.Payload)
	assert.Empty(t, snap.Error)
	assert.Zero(t, reg.Len())

	_, err := u.Preview()
	assert.ErrorIs(t, err, blob.ErrURLNotFound)
}

func TestUpload_ResubmitReplacesPreview(t *testing.T) {
	u, reg, _ := newTestUpload()

	first := submitAndWait(t, u, pngFile(t, "one.png", qrImage(t, "ONE")))
	second := submitAndWait(t, u, pngFile(t, "two.png", qrImage(t, "TWO")))

	assert.NotEqual(t, first.PreviewURL, second.PreviewURL)
	assert.Equal(t, "TWO", second.Payload)
	assert.Equal(t, 1, reg.Len())
}
