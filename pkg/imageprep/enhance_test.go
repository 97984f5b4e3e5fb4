package imageprep

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: 120, B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEnhance(t *testing.T) {
	out, mime, err := Enhance(encodePNG(t, 64, 32), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}

func TestEnhance_BoundsLongSide(t *testing.T) {
	out, _, err := Enhance(encodePNG(t, MaxSide+200, 100), Options{})
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxSide, cfg.Width)
}

func TestEnhance_RejectsGarbage(t *testing.T) {
	_, _, err := Enhance([]byte("not an image"), DefaultOptions())
	assert.Error(t, err)
}
