package engine

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrImageDecode = errors.New("image could not be decoded")

// DecodeImageSize reads only the header of an image and returns its natural pixel size.
func DecodeImageSize(r io.Reader) (width, height int, err error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s image reports %dx%d", ErrImageDecode, format, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// FitImage scales a natural size down so the longer side is at most maxDim, keeping the
// aspect ratio. Images already small enough keep their size.
func FitImage(width, height int, maxDim float64) (float64, float64) {
	w, h := float64(width), float64(height)
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	longest := math.Max(w, h)
	if maxDim <= 0 || longest <= maxDim {
		return w, h
	}
	s := maxDim / longest
	return w * s, h * s
}
