// Package decode - reads the 6x6 data grid inside a tag quad and matches it against the
// codebook in any of the four orientations.
package decode

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/fiducial/common"
)

// Homography maps the unit square onto a quad:
//
//	x = (a*u + b*v + c) / (g*u + h*v + 1)
//	y = (d*u + e*v + f) / (g*u + h*v + 1)
//
// with (0,0), (1,0), (0,1), (1,1) landing on the top-left, top-right, bottom-left and
// bottom-right corners.
type Homography struct {
	A, B, C float32
	D, E, F float32
	G, H    float32
}

// NewHomography solves the square-to-quad mapping in closed form. It returns false when
// the corner configuration makes the perspective system singular.
//
// Arguments:
// - c: The target quad.
//
// Returns:
// - The homography and true, or false for a degenerate quad.
//
// @example
// h, ok := NewHomography(corners)
// x, y, _ := h.Map(0.5, 0.5) // quad centre
func NewHomography(c common.Corners) (Homography, bool) {
	x0, y0 := float32(c.TopLeft.X), float32(c.TopLeft.Y)
	x1, y1 := float32(c.TopRight.X), float32(c.TopRight.Y)
	x2, y2 := float32(c.BottomLeft.X), float32(c.BottomLeft.Y)
	x3, y3 := float32(c.BottomRight.X), float32(c.BottomRight.Y)

	dx1, dx2, dx3 := x1-x3, x2-x3, x0-x1+x3-x2
	dy1, dy2, dy3 := y1-y3, y2-y3, y0-y1+y3-y2

	den := dx1*dy2 - dx2*dy1
	if den == 0 {
		return Homography{}, false
	}
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den

	return Homography{
		A: x1 - x0 + g*x1, B: x2 - x0 + h*x2, C: x0,
		D: y1 - y0 + g*y1, E: y2 - y0 + h*y2, F: y0,
		G: g, H: h,
	}, true
}

// Map projects (u, v) from the unit square into the image. It returns false when the
// point lies on or behind the vanishing line.
func (m Homography) Map(u, v float32) (float32, float32, bool) {
	w := m.G*u + m.H*v + 1
	if w == 0 {
		return 0, 0, false
	}
	x := (m.A*u + m.B*v + m.C) / w
	y := (m.D*u + m.E*v + m.F) / w
	if math32.IsNaN(x) || math32.IsNaN(y) || math32.IsInf(x, 0) || math32.IsInf(y, 0) {
		return 0, 0, false
	}
	return x, y, true
}
