// Package common - geometry types shared by the detection stages.
package common

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// Point is an integer pixel coordinate. X grows rightward and Y grows downward.
type Point struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// Pt is shorthand for constructing a Point.
func Pt(x, y int) Point {
	return Point{X: uint32(x), Y: uint32(y)}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float32 {
	dx := float32(p.X) - float32(other.X)
	dy := float32(p.Y) - float32(other.Y)
	return math32.Hypot(dx, dy)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Corners holds the four corners of a quadrilateral in image-axis order.
type Corners struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
}

// Points returns the corners in the order top-left, top-right, bottom-left, bottom-right.
func (c Corners) Points() [4]Point {
	return [4]Point{c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight}
}

// Cycle returns the corners walked around the perimeter:
// top-left, bottom-left, bottom-right, top-right.
func (c Corners) Cycle() [4]Point {
	return [4]Point{c.TopLeft, c.BottomLeft, c.BottomRight, c.TopRight}
}

// Distinct reports whether no two corners share a pixel.
func (c Corners) Distinct() bool {
	pts := c.Points()
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if pts[i] == pts[j] {
				return false
			}
		}
	}
	return true
}

// Top returns the length of the top side.
func (c Corners) Top() float32 { return c.TopLeft.Distance(c.TopRight) }

// Bottom returns the length of the bottom side.
func (c Corners) Bottom() float32 { return c.BottomLeft.Distance(c.BottomRight) }

// Left returns the length of the left side.
func (c Corners) Left() float32 { return c.TopLeft.Distance(c.BottomLeft) }

// Right returns the length of the right side.
func (c Corners) Right() float32 { return c.TopRight.Distance(c.BottomRight) }

// Bounds returns the axis-aligned bounding box of the corners.
func (c Corners) Bounds() Bounds {
	pts := c.Points()
	b := Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	return b
}

// Bounds is an inclusive axis-aligned box in pixel coordinates.
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// StrictlyContains reports whether other lies strictly inside b on all four sides.
//
// Arguments:
// - other: The box to test.
//
// Returns:
// - true when every edge of other is strictly inside the matching edge of b.
//
// @example
// outer := Bounds{Min: Pt(0, 0), Max: Pt(10, 10)}
// inner := Bounds{Min: Pt(2, 2), Max: Pt(8, 8)}
// outer.StrictlyContains(inner) // true
// outer.StrictlyContains(outer) // false
func (b Bounds) StrictlyContains(other Bounds) bool {
	return b.Min.X < other.Min.X && b.Min.Y < other.Min.Y &&
		b.Max.X > other.Max.X && b.Max.Y > other.Max.Y
}

// ToRect converts the bounds to an image.Rectangle. Max is inclusive here and exclusive
// in the rectangle.
func (b Bounds) ToRect() image.Rectangle {
	return image.Rect(int(b.Min.X), int(b.Min.Y), int(b.Max.X)+1, int(b.Max.Y)+1)
}
