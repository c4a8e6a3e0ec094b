// Package test - deterministic synthetic frames and end-to-end detection scenarios.
package test

import (
	"github.com/nvr-ai/fiducial/images"
)

// MockFrameGenerator renders deterministic frames containing fiducial tags.
//
// Frames are white (1.0) with black tags. A tag is an 8x8 cell grid whose outer ring is
// black; each of the 6x6 inner cells is white when its codeword bit is set.
//
// @example
// gen := NewMockFrameGenerator(200, 200)
// frame := gen.Tag(40, 60, 60, decode.Codebook[3])
type MockFrameGenerator struct {
	width  int
	height int
}

// NewMockFrameGenerator creates a generator for frames of the given size.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured MockFrameGenerator instance.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{width: width, height: height}
}

// Blank returns a frame with every pixel set to value.
func (g *MockFrameGenerator) Blank(value float32) images.Intensity {
	img := images.NewIntensity(g.width, g.height)
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

// Tag returns a white frame with one axis-aligned tag whose top-left pixel is (x0, y0).
//
// Arguments:
// - x0, y0: Top-left pixel of the tag.
// - side: Tag side length in pixels, border included.
// - code: The 36-bit codeword, most significant bit at the top-left data cell.
//
// Returns:
// - The rendered frame.
func (g *MockFrameGenerator) Tag(x0, y0, side int, code uint64) images.Intensity {
	img := g.Blank(1)
	DrawTag(img, x0, y0, side, code)
	return img
}

// DrawTag paints a tag into img.
func DrawTag(img images.Intensity, x0, y0, side int, code uint64) {
	cell := float64(side) / 8
	for y := y0; y < y0+side; y++ {
		cy := int((float64(y-y0) + 0.5) / cell)
		for x := x0; x < x0+side; x++ {
			cx := int((float64(x-x0) + 0.5) / cell)
			var v float32
			if cx >= 1 && cx <= 6 && cy >= 1 && cy <= 6 {
				bit := 35 - ((cy-1)*6 + (cx - 1))
				if code>>bit&1 == 1 {
					v = 1
				}
			}
			img.Set(x, y, v)
		}
	}
}

// Rotate90 returns img turned a quarter turn clockwise. Pixel (x, y) moves to
// (height-1-y, x).
func Rotate90(img images.Intensity) images.Intensity {
	out := images.NewIntensity(img.Height, img.Width)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.Pix[x*out.Width+(img.Height-1-y)] = img.Pix[y*img.Width+x]
		}
	}
	return out
}
