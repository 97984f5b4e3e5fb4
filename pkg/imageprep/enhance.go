// Package imageprep improves invoice photos before they are sent to the
// vision model: grayscale, contrast, sharpen and a bounded long side.
package imageprep

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// MaxSide bounds the longest edge of the encoded result.
const MaxSide = 2048

type Options struct {
	Contrast float64
	Sharpen  float64
	Quality  int
}

func DefaultOptions() Options {
	return Options{Contrast: 30, Sharpen: 1.5, Quality: 90}
}

// Enhance decodes a JPEG/PNG/GIF, applies the filters and re-encodes as JPEG.
// It returns the new bytes and their mime type.
func Enhance(data []byte, opts Options) ([]byte, string, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	img := imaging.Grayscale(src)
	if opts.Contrast != 0 {
		img = imaging.AdjustContrast(img, opts.Contrast)
	}
	if opts.Sharpen > 0 {
		img = imaging.Sharpen(img, opts.Sharpen)
	}
	if longSide(img) > MaxSide {
		img = imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func longSide(img image.Image) int {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}
