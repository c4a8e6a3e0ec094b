package shapes

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/fiducial/common"
)

// Geometric acceptance limits for candidate quads.
const (
	MaxOppositeSideRatio = 1.3
	MaxAspectRatio       = 1.5
	MaxAngleDeviation    = math32.Pi / 6
)

// Filters selects which geometric checks a candidate must pass, applied in the order
// ratio, angle, enclosure.
type Filters struct {
	Ratio     bool
	Angle     bool
	Enclosure bool
}

// Selector turns shapes into candidate quads, reusing its output buffer across frames.
type Selector struct {
	quads []common.Corners
	keep  []bool
}

// Select reduces every shape with at least four points to a quad and applies filters.
// The returned slice is owned by s and valid until the next call.
func (s *Selector) Select(shapes [][]common.Point, filters Filters) []common.Corners {
	s.quads = s.quads[:0]
	for _, shape := range shapes {
		if q, ok := Quad(shape); ok {
			s.quads = append(s.quads, q)
		}
	}
	if filters.Ratio {
		s.quads = retain(s.quads, RatioOK)
	}
	if filters.Angle {
		s.quads = retain(s.quads, AngleOK)
	}
	if filters.Enclosure {
		s.quads = s.dropEnclosed(s.quads)
	}
	return s.quads
}

// Quad picks the extreme points of a shape as tag corners: top-left minimizes x+y,
// top-right minimizes y-x, bottom-left maximizes y-x and bottom-right maximizes x+y.
// On ties the earliest point wins. Shapes with fewer than four points, or whose picks
// share a pixel, yield false.
//
// Arguments:
// - points: The corner points of one component.
//
// Returns:
// - The ordered corners and true, or false when no proper quad exists.
func Quad(points []common.Point) (common.Corners, bool) {
	if len(points) < 4 {
		return common.Corners{}, false
	}
	sum := func(p common.Point) int64 { return int64(p.X) + int64(p.Y) }
	diff := func(p common.Point) int64 { return int64(p.Y) - int64(p.X) }

	tl, tr, bl, br := points[0], points[0], points[0], points[0]
	for _, p := range points[1:] {
		if sum(p) < sum(tl) {
			tl = p
		}
		if diff(p) < diff(tr) {
			tr = p
		}
		if diff(p) > diff(bl) {
			bl = p
		}
		if sum(p) > sum(br) {
			br = p
		}
	}
	c := common.Corners{TopLeft: tl, TopRight: tr, BottomLeft: bl, BottomRight: br}
	if !c.Distinct() {
		return common.Corners{}, false
	}
	return c, true
}

// RatioOK accepts quads whose opposite sides agree within MaxOppositeSideRatio and whose
// average width and height agree within MaxAspectRatio. Any zero-length side fails.
func RatioOK(c common.Corners) bool {
	top, bottom, left, right := c.Top(), c.Bottom(), c.Left(), c.Right()
	if top == 0 || bottom == 0 || left == 0 || right == 0 {
		return false
	}
	return ratio(top, bottom) <= MaxOppositeSideRatio &&
		ratio(left, right) <= MaxOppositeSideRatio &&
		ratio((top+bottom)/2, (left+right)/2) <= MaxAspectRatio
}

// AngleOK accepts quads whose interior angles all lie within MaxAngleDeviation of 90 deg.
func AngleOK(c common.Corners) bool {
	cycle := c.Cycle()
	for i, cur := range cycle {
		prev := cycle[(i+3)%4]
		next := cycle[(i+1)%4]
		ax, ay := float32(prev.X)-float32(cur.X), float32(prev.Y)-float32(cur.Y)
		bx, by := float32(next.X)-float32(cur.X), float32(next.Y)-float32(cur.Y)
		norm := math32.Hypot(ax, ay) * math32.Hypot(bx, by)
		if norm == 0 {
			return false
		}
		cos := clamp((ax*bx+ay*by)/norm, -1, 1)
		if math32.Abs(math32.Acos(cos)-math32.Pi/2) > MaxAngleDeviation {
			return false
		}
	}
	return true
}

// dropEnclosed removes every quad whose bounding box lies strictly inside another's.
func (s *Selector) dropEnclosed(quads []common.Corners) []common.Corners {
	s.keep = s.keep[:0]
	for i, q := range quads {
		inner := q.Bounds()
		enclosed := false
		for j, o := range quads {
			if i != j && o.Bounds().StrictlyContains(inner) {
				enclosed = true
				break
			}
		}
		s.keep = append(s.keep, !enclosed)
	}
	out := quads[:0]
	for i, q := range quads {
		if s.keep[i] {
			out = append(out, q)
		}
	}
	return out
}

func retain(quads []common.Corners, ok func(common.Corners) bool) []common.Corners {
	out := quads[:0]
	for _, q := range quads {
		if ok(q) {
			out = append(out, q)
		}
	}
	return out
}

func ratio(a, b float32) float32 {
	return max(a, b) / min(a, b)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
