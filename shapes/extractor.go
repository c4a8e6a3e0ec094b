package shapes

import (
	"github.com/nvr-ai/fiducial/common"
	"github.com/nvr-ai/fiducial/images"
)

// margin keeps the 5x5 label window inside the frame.
const margin = 2

// Extractor labels edge components in a single raster pass and harvests corner points
// within one pixel of each component. All scratch is reused across frames.
type Extractor struct {
	width, height int

	labels  []int32
	claim   []bool
	sets    UnionFind
	points  [][]common.Point
	merged  [][]common.Point
	roots   []int32
	shapes  [][]common.Point
}

// NewExtractor returns an extractor with no buffers; the first Ensure allocates them.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Ensure sizes the per-pixel buffers for a width x height frame and reports whether it
// reallocated.
func (e *Extractor) Ensure(width, height int) bool {
	if e.width == width && e.height == height && e.labels != nil {
		return false
	}
	e.width, e.height = width, height
	e.labels = make([]int32, width*height)
	e.claim = make([]bool, width*height)
	return true
}

// Extract returns one point set per edge component that claimed at least one corner.
// Each corner pixel is claimed by at most one component. corners is not modified.
// Shapes come back in ascending order of their root label, and the returned slices stay
// valid until the next call.
//
// Arguments:
// - edges: The edge mask.
// - corners: The corner mask.
//
// Returns:
// - The shapes, each an unordered set of distinct corner points.
//
// @example
// e := NewExtractor()
// e.Ensure(w, h)
// for _, shape := range e.Extract(edges, corners) {
//     fmt.Println(len(shape))
// }
func (e *Extractor) Extract(edges, corners images.Mask) [][]common.Point {
	w, h := e.width, e.height
	clear(e.labels)
	copy(e.claim, corners.Bits)
	e.sets.Reset()
	e.points = e.points[:0]
	e.points = append(e.points, nil)

	for y := margin; y < h-margin; y++ {
		for x := margin; x < w-margin; x++ {
			i := y*w + x
			if !edges.Bits[i] {
				continue
			}

			var label int32
			for ny := y - margin; ny <= y+margin; ny++ {
				row := e.labels[ny*w : (ny+1)*w]
				for nx := x - margin; nx <= x+margin; nx++ {
					n := row[nx]
					if n == 0 {
						continue
					}
					if label == 0 {
						label = n
					} else if n != label {
						e.sets.Union(label, n)
					}
				}
			}
			if label == 0 {
				label = e.sets.Add()
				e.grow(int(label))
			}
			e.labels[i] = label

			if p, ok := e.claimCorner(x, y); ok {
				e.points[label] = append(e.points[label], p)
			}
		}
	}

	return e.collect()
}

// grow makes e.points addressable at label, reusing slices left from earlier frames.
func (e *Extractor) grow(label int) {
	if label < cap(e.points) {
		e.points = e.points[:label+1]
		e.points[label] = e.points[label][:0]
		return
	}
	e.points = append(e.points, nil)
}

func (e *Extractor) claimCorner(x, y int) (common.Point, bool) {
	w := e.width
	for ny := y - 1; ny <= y+1; ny++ {
		for nx := x - 1; nx <= x+1; nx++ {
			j := ny*w + nx
			if e.claim[j] {
				e.claim[j] = false
				return common.Pt(nx, ny), true
			}
		}
	}
	return common.Point{}, false
}

// collect merges point lists by union-find root and drops empty components.
func (e *Extractor) collect() [][]common.Point {
	n := e.sets.Len()
	if cap(e.merged) < n+1 {
		e.merged = append(e.merged[:cap(e.merged)], make([][]common.Point, n+1-cap(e.merged))...)
	}
	e.merged = e.merged[:n+1]
	for i := range e.merged {
		e.merged[i] = e.merged[i][:0]
	}

	for label := 1; label <= n; label++ {
		pts := e.points[label]
		if len(pts) == 0 {
			continue
		}
		root := e.sets.Find(int32(label))
		e.merged[root] = append(e.merged[root], pts...)
	}

	e.shapes = e.shapes[:0]
	for root := 1; root <= n; root++ {
		if len(e.merged[root]) > 0 {
			e.shapes = append(e.shapes, e.merged[root])
		}
	}
	return e.shapes
}
