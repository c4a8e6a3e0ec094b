// Package pose estimates a tag's tilt and camera-space position from its corners using a
// pinhole approximation.
package pose

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nvr-ai/fiducial/common"
)

// TagSize is the physical side length of a tag in meters.
const TagSize = 0.2

// Rotation estimates the tilt about the vertical axis from foreshortening: the ratio of
// the mean horizontal side to the mean vertical side is the cosine of the tilt. The
// result is positive when the left side is at least as long as the right side, negative
// otherwise, and 0 when either mean is zero.
//
// Arguments:
// - c: The tag corners.
//
// Returns:
// - The signed tilt in radians, in [-pi/2, pi/2].
//
// @example
// r := Rotation(corners) // 0 for a square seen head-on
func Rotation(c common.Corners) float32 {
	left, right := c.Left(), c.Right()
	visible := (c.Top() + c.Bottom()) / 2
	actual := (left + right) / 2
	if visible == 0 || actual == 0 {
		return 0
	}
	angle := math32.Acos(max(-1, min(visible/actual, 1)))
	if left < right {
		return -angle
	}
	return angle
}

// Camera describes the frame a tag was seen in.
type Camera struct {
	// Width of the frame in pixels.
	Width int
	// Height of the frame in pixels.
	Height int
	// FOV is the vertical field of view in radians.
	FOV float32
}

// Position back-projects each corner, scaling by the height of the vertical side it lies
// on, and averages the four points. X points right, Y up and Z away from the camera, in
// meters. It returns false when a vertical side has zero length.
//
// Arguments:
// - c: The tag corners.
//
// Returns:
// - The estimated tag position and true, or false for degenerate corners.
//
// @example
// cam := Camera{Width: 640, Height: 480, FOV: 75 * math32.Pi / 180}
// pos, ok := cam.Position(corners)
func (cam Camera) Position(c common.Corners) (r3.Vec, bool) {
	left, right := c.Left(), c.Right()
	if left == 0 || right == 0 {
		return r3.Vec{}, false
	}
	tanHalf := float64(math32.Tan(cam.FOV / 2))
	if tanHalf <= 0 {
		return r3.Vec{}, false
	}

	corners := [4]struct {
		p    common.Point
		side float32
	}{
		{c.TopLeft, left}, {c.TopRight, right}, {c.BottomLeft, left}, {c.BottomRight, right},
	}
	var sum r3.Vec
	for _, k := range corners {
		sum = r3.Add(sum, cam.project(k.p, float64(k.side), tanHalf))
	}
	return r3.Scale(0.25, sum), true
}

func (cam Camera) project(p common.Point, side, tanHalf float64) r3.Vec {
	w, h := float64(cam.Width), float64(cam.Height)
	x := float64(p.X)/w*2 - 1
	y := float64(p.Y)/h*2 - 1
	scale := h / (2 * side) * TagSize
	return r3.Vec{
		X: x * scale * (w / h),
		Y: -y * scale,
		Z: scale / tanHalf,
	}
}
