package imageprocessor_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"campusnest_backend/internal/imageprocessor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"wider than max", 2000, 1000, 1200, 1200, 600},
		{"narrower than max is kept", 640, 480, 800, 640, 480},
		{"equal to max", 800, 600, 800, 800, 600},
		{"no resize configured", 3000, 2000, 0, 3000, 2000},
		{"rounding", 1000, 333, 500, 500, 167},
		{"very flat image keeps one row", 5000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := imageprocessor.TargetSize(tt.w, tt.h, tt.max)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestNormalize_Downscales(t *testing.T) {
	p := imageprocessor.NewProcessor(80)

	res, err := p.Normalize(bytes.NewReader(encodePNG(t, 400, 200)), 100)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Equal(t, "image/jpeg", res.ContentType)

	decoded, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestNormalize_NeverUpscales(t *testing.T) {
	p := imageprocessor.NewProcessor(80)

	res, err := p.Normalize(bytes.NewReader(encodePNG(t, 60, 40)), 800)
	require.NoError(t, err)

	w, h, err := imageprocessor.Dimensions(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 60, w)
	assert.Equal(t, 40, h)
}

func TestNormalize_CorruptPayload(t *testing.T) {
	p := imageprocessor.NewProcessor(80)

	_, err := p.Normalize(bytes.NewReader([]byte("\xff\xd8\xff definitely not a jpeg")), 800)
	require.Error(t, err)
	assert.ErrorIs(t, err, imageprocessor.ErrDecode)
}

func TestNewProcessor_DefaultQuality(t *testing.T) {
	assert.Equal(t, imageprocessor.DefaultQuality, imageprocessor.NewProcessor(0).Quality())
	assert.Equal(t, imageprocessor.DefaultQuality, imageprocessor.NewProcessor(101).Quality())
	assert.Equal(t, 90, imageprocessor.NewProcessor(90).Quality())
}
