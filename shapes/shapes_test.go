package shapes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/fiducial/common"
	"github.com/nvr-ai/fiducial/images"
)

func TestUnionFind(t *testing.T) {
	var u UnionFind
	u.Reset()
	a, b, c, d := u.Add(), u.Add(), u.Add(), u.Add()
	assert.Equal(t, []int32{1, 2, 3, 4}, []int32{a, b, c, d})
	assert.Equal(t, 4, u.Len())

	u.Union(a, b)
	u.Union(c, d)
	assert.Equal(t, u.Find(a), u.Find(b))
	assert.NotEqual(t, u.Find(a), u.Find(c))

	u.Union(b, d)
	root := u.Find(a)
	for _, x := range []int32{b, c, d} {
		assert.Equal(t, root, u.Find(x))
	}
	assert.Equal(t, int32(4), u.size[root])

	u.Reset()
	assert.Zero(t, u.Len())
	assert.Equal(t, int32(1), u.Add())
}

func TestUnionFindBySize(t *testing.T) {
	var u UnionFind
	u.Reset()
	big := u.Add()
	for i := 0; i < 3; i++ {
		u.Union(big, u.Add())
	}
	small := u.Add()
	u.Union(small, big)
	assert.Equal(t, big, u.Find(small))
}

// outline draws the edge pixels of an axis-aligned rectangle.
func outline(m images.Mask, x0, y0, x1, y1 int) {
	for x := x0; x <= x1; x++ {
		m.Bits[y0*m.Width+x] = true
		m.Bits[y1*m.Width+x] = true
	}
	for y := y0; y <= y1; y++ {
		m.Bits[y*m.Width+x0] = true
		m.Bits[y*m.Width+x1] = true
	}
}

func mark(m images.Mask, pts ...common.Point) {
	for _, p := range pts {
		m.Bits[int(p.Y)*m.Width+int(p.X)] = true
	}
}

func TestExtractSeparatesComponents(t *testing.T) {
	const w, h = 60, 40
	edges := images.NewMask(w, h)
	corners := images.NewMask(w, h)
	outline(edges, 5, 5, 20, 20)
	outline(edges, 30, 8, 50, 30)
	first := []common.Point{common.Pt(5, 5), common.Pt(20, 5), common.Pt(5, 20), common.Pt(20, 20)}
	second := []common.Point{common.Pt(30, 8), common.Pt(50, 8), common.Pt(30, 30), common.Pt(50, 30)}
	mark(corners, first...)
	mark(corners, second...)
	// A corner far from any edge is never claimed.
	mark(corners, common.Pt(25, 35))
	before := append([]bool(nil), corners.Bits...)

	e := NewExtractor()
	require.True(t, e.Ensure(w, h))
	shapes := e.Extract(edges, corners)

	require.Len(t, shapes, 2)
	assert.ElementsMatch(t, first, shapes[0])
	assert.ElementsMatch(t, second, shapes[1])
	assert.Equal(t, before, corners.Bits, "input corner mask must not change")
}

func TestExtractMergesLateJoins(t *testing.T) {
	const w, h = 30, 30
	edges := images.NewMask(w, h)
	corners := images.NewMask(w, h)
	// A "V": two diagonal arms discovered as separate labels that meet at the bottom.
	for i := 0; i <= 10; i++ {
		edges.Bits[(5+i)*w+5+i] = true
		edges.Bits[(5+i)*w+25-i] = true
	}
	mark(corners, common.Pt(5, 5), common.Pt(25, 5), common.Pt(15, 15))

	e := NewExtractor()
	e.Ensure(w, h)
	shapes := e.Extract(edges, corners)

	require.Len(t, shapes, 1)
	assert.ElementsMatch(t, []common.Point{common.Pt(5, 5), common.Pt(25, 5), common.Pt(15, 15)}, shapes[0])
	assert.Equal(t, 2, e.sets.Len())
}

func TestExtractClaimsEachCornerOnce(t *testing.T) {
	const w, h = 20, 20
	edges := images.NewMask(w, h)
	corners := images.NewMask(w, h)
	for x := 4; x < 16; x++ {
		edges.Bits[10*w+x] = true
	}
	mark(corners, common.Pt(8, 9), common.Pt(9, 11))

	e := NewExtractor()
	e.Ensure(w, h)
	shapes := e.Extract(edges, corners)
	require.Len(t, shapes, 1)
	assert.Len(t, shapes[0], 2)

	// Reusing the extractor yields the same result.
	again := e.Extract(edges, corners)
	require.Len(t, again, 1)
	assert.ElementsMatch(t, shapes[0], again[0])
}

func TestExtractEmpty(t *testing.T) {
	e := NewExtractor()
	e.Ensure(10, 10)
	assert.Empty(t, e.Extract(images.NewMask(10, 10), images.NewMask(10, 10)))
}

func TestQuad(t *testing.T) {
	tests := []struct {
		name   string
		points []common.Point
		want   common.Corners
		ok     bool
	}{
		{
			name: "square with interior point",
			points: []common.Point{
				common.Pt(20, 20), common.Pt(10, 10), common.Pt(30, 10), common.Pt(10, 30), common.Pt(30, 30),
			},
			want: common.Corners{
				TopLeft: common.Pt(10, 10), TopRight: common.Pt(30, 10),
				BottomLeft: common.Pt(10, 30), BottomRight: common.Pt(30, 30),
			},
			ok: true,
		},
		{
			name: "ties keep the first point",
			points: []common.Point{
				common.Pt(10, 10), common.Pt(30, 10), common.Pt(10, 30), common.Pt(30, 30), common.Pt(11, 9),
			},
			want: common.Corners{
				TopLeft: common.Pt(10, 10), TopRight: common.Pt(30, 10),
				BottomLeft: common.Pt(10, 30), BottomRight: common.Pt(30, 30),
			},
			ok: true,
		},
		{
			name:   "too few points",
			points: []common.Point{common.Pt(1, 1), common.Pt(5, 1), common.Pt(1, 5)},
		},
		{
			name: "collinear points collapse",
			points: []common.Point{
				common.Pt(1, 1), common.Pt(2, 2), common.Pt(3, 3), common.Pt(4, 4),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quad(tt.points)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("Quad() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func quad(x0, y0, x1, y1 int) common.Corners {
	return common.Corners{
		TopLeft: common.Pt(x0, y0), TopRight: common.Pt(x1, y0),
		BottomLeft: common.Pt(x0, y1), BottomRight: common.Pt(x1, y1),
	}
}

func TestRatioOK(t *testing.T) {
	assert.True(t, RatioOK(quad(0, 0, 40, 40)))
	assert.True(t, RatioOK(quad(0, 0, 56, 40)), "aspect 1.4")
	assert.False(t, RatioOK(quad(0, 0, 70, 40)), "aspect 1.75")

	trapezoid := common.Corners{
		TopLeft: common.Pt(10, 0), TopRight: common.Pt(30, 0),
		BottomLeft: common.Pt(0, 40), BottomRight: common.Pt(40, 40),
	}
	assert.False(t, RatioOK(trapezoid), "top/bottom 2.0")

	degenerate := common.Corners{
		TopLeft: common.Pt(0, 0), TopRight: common.Pt(0, 0),
		BottomLeft: common.Pt(0, 40), BottomRight: common.Pt(40, 40),
	}
	assert.False(t, RatioOK(degenerate))
}

func TestAngleOK(t *testing.T) {
	assert.True(t, AngleOK(quad(0, 0, 40, 40)))

	// Parallelogram with 45 degree corners.
	sheared := common.Corners{
		TopLeft: common.Pt(40, 0), TopRight: common.Pt(80, 0),
		BottomLeft: common.Pt(0, 40), BottomRight: common.Pt(40, 40),
	}
	assert.False(t, AngleOK(sheared))

	// Mild shear stays within 30 degrees.
	mild := common.Corners{
		TopLeft: common.Pt(5, 0), TopRight: common.Pt(45, 0),
		BottomLeft: common.Pt(0, 40), BottomRight: common.Pt(40, 40),
	}
	assert.True(t, AngleOK(mild))
}

func TestSelectFilters(t *testing.T) {
	outer := quad(10, 10, 70, 70)
	inner := quad(20, 20, 60, 60)
	wide := quad(100, 10, 190, 40)

	shapes := [][]common.Point{
		points(outer), points(inner), points(wide), {common.Pt(1, 1)},
	}

	var s Selector
	all := s.Select(shapes, Filters{})
	assert.Equal(t, []common.Corners{outer, inner, wide}, all)

	ratio := s.Select(shapes, Filters{Ratio: true, Angle: true})
	assert.Equal(t, []common.Corners{outer, inner}, ratio)

	nested := s.Select(shapes, Filters{Ratio: true, Angle: true, Enclosure: true})
	assert.Equal(t, []common.Corners{outer}, nested)
}

func TestEnclosureNeedsStrictContainment(t *testing.T) {
	a := quad(10, 10, 70, 70)
	b := quad(10, 20, 60, 60) // shares the left edge
	var s Selector
	got := s.Select([][]common.Point{points(a), points(b)}, Filters{Enclosure: true})
	assert.Equal(t, []common.Corners{a, b}, got)
}

func points(c common.Corners) []common.Point {
	p := c.Points()
	return p[:]
}
