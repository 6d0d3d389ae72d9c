package media_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"go-qr-webapp/internal/media"
	"go-qr-webapp/internal/media/mediatest"
	"go-qr-webapp/internal/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideo_IsAScanSource(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 40, 30))
	frame.Set(0, 0, color.RGBA{G: 200, A: 255})

	devices := &mediatest.Devices{Frame: frame}
	stream, err := devices.GetUserMedia(context.Background(), media.Constraints{Video: true})
	require.NoError(t, err)

	video, err := media.Bind(stream)
	require.NoError(t, err)

	var _ scan.Source = video
	buf, err := scan.Extract(video)
	require.NoError(t, err)
	assert.Equal(t, 40, buf.Width)
	assert.Equal(t, 30, buf.Height)
	assert.Equal(t, byte(200), buf.Pix[1])
}

func TestVideo_NotYetStreaming(t *testing.T) {
	devices := &mediatest.Devices{}
	stream, err := devices.GetUserMedia(context.Background(), media.Constraints{Video: true})
	require.NoError(t, err)

	video, err := media.Bind(stream)
	require.NoError(t, err)

	_, err = scan.Extract(video)
	var extractErr *scan.ExtractionError
	assert.ErrorAs(t, err, &extractErr)

	video.Release()
	assert.Nil(t, video.Stream())
	w, h := video.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestStopAll(t *testing.T) {
	devices := &mediatest.Devices{}
	stream, err := devices.GetUserMedia(context.Background(), media.Constraints{Video: true})
	require.NoError(t, err)

	media.StopAll(stream)
	media.StopAll(nil)
	assert.Equal(t, 1, devices.LastStream().Track.Stops())
}

func TestAccessError_Messages(t *testing.T) {
	cases := map[media.AccessErrorKind]string{
		media.PermissionDenied: "camera permission denied. Please allow access to your camera.",
		media.DeviceNotFound:   "no camera found. Please ensure your device has a camera.",
		media.DeviceBusy:       "camera is being used by another app. Please close other apps using the camera.",
		media.Unknown:          "unable to access camera. Please try again.",
	}

	for kind, msg := range cases {
		err := &media.AccessError{Kind: kind}
		assert.Equal(t, msg, err.UserMessage())
	}
}

func TestAsAccessError(t *testing.T) {
	assert.Nil(t, media.AsAccessError(nil))

	plain := errors.New("boom")
	classified := media.AsAccessError(plain)
	assert.Equal(t, media.Unknown, classified.Kind)
	assert.ErrorIs(t, classified, plain)

	busy := &media.AccessError{Kind: media.DeviceBusy}
	wrapped := media.AsAccessError(errors.Join(errors.New("ctx"), busy))
	assert.Same(t, busy, wrapped)
}
