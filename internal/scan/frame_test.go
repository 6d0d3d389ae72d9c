package scan

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) Size() (int, int) { return 4, 4 }

func (failingSource) DrawTo(*image.RGBA) error { return errors.New("frame gone") }

func TestExtract_KeepsNaturalSize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 73, 51))
	src.Set(10, 20, color.NRGBA{R: 255, A: 255})

	buf, err := Extract(StillImage{Image: src})
	require.NoError(t, err)

	assert.Equal(t, 63, buf.Width)
	assert.Equal(t, 31, buf.Height)
	assert.Len(t, buf.Pix, 63*31*4)
	// the source origin lands on the surface origin
	assert.Equal(t, []byte{255, 0, 0, 255}, buf.Pix[0:4])
}

func TestExtract_ZeroDimensions(t *testing.T) {
	_, err := Extract(StillImage{Image: image.NewRGBA(image.Rect(0, 0, 0, 10))})
	require.Error(t, err)

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, 0, extractErr.Width)
	assert.Equal(t, 10, extractErr.Height)

	_, err = Extract(nil)
	assert.ErrorAs(t, err, &extractErr)
}

func TestExtract_DrawFailure(t *testing.T) {
	_, err := Extract(failingSource{})

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.EqualError(t, extractErr.Unwrap(), "frame gone")
}

func TestAdvisoryLink(t *testing.T) {
	cases := []struct {
		payload string
		link    bool
	}{
		{"https://example.com", true},
		{"http://example.com/a?b=c", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"httpfoo", false},
		{"ftp://example.com", false},
		{"https://", false},
		{"javascript:alert(1)", false},
		{"HELLO", false},
		{"", false},
	}

	for _, tc := range cases {
		_, ok := AdvisoryLink(tc.payload)
		assert.Equal(t, tc.link, ok, tc.payload)
	}
}
