// Package images - intensity buffers and boolean masks consumed by the detection stages,
// plus adapters from image.Image.
package images

import (
	"github.com/pkg/errors"
)

// ErrInvalidImage is returned when an image has zero dimensions or a buffer whose length
// does not match them.
var ErrInvalidImage = errors.New("invalid image")

// Intensity is a row-major grayscale image with one float32 sample per pixel, nominally
// in [0, 1]. Pixel (x, y) lives at index y*Width + x.
type Intensity struct {
	// The width of the image in pixels.
	Width int `json:"width"`
	// The height of the image in pixels.
	Height int `json:"height"`
	// The samples, len(Pix) == Width*Height.
	Pix []float32 `json:"-"`
}

// NewIntensity allocates a zeroed intensity image.
//
// Arguments:
// - width: The image width in pixels.
// - height: The image height in pixels.
//
// Returns:
// - A zero-filled Intensity of the requested size.
//
// @example
// img := NewIntensity(640, 480)
// img.Set(10, 20, 1.0)
func NewIntensity(width, height int) Intensity {
	return Intensity{Width: width, Height: height, Pix: make([]float32, width*height)}
}

// Validate checks that the dimensions are positive and agree with the buffer length.
func (i Intensity) Validate() error {
	if i.Width <= 0 || i.Height <= 0 {
		return errors.Wrapf(ErrInvalidImage, "dimensions %dx%d", i.Width, i.Height)
	}
	if len(i.Pix) != i.Width*i.Height {
		return errors.Wrapf(ErrInvalidImage, "buffer has %d samples, want %d", len(i.Pix), i.Width*i.Height)
	}
	return nil
}

// At returns the sample at (x, y) and false when the coordinate lies outside the image.
func (i Intensity) At(x, y int) (float32, bool) {
	if x < 0 || y < 0 || x >= i.Width || y >= i.Height {
		return 0, false
	}
	return i.Pix[y*i.Width+x], true
}

// Set writes the sample at (x, y). Out-of-range coordinates are ignored.
func (i Intensity) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= i.Width || y >= i.Height {
		return
	}
	i.Pix[y*i.Width+x] = v
}

// Mask is a row-major boolean image with the same layout as Intensity.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) Mask {
	return Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// At reports whether (x, y) is set. Out-of-range coordinates read as false.
func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Count returns the number of set pixels.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}
