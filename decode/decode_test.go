package decode

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/fiducial/common"
	"github.com/nvr-ai/fiducial/test"
)

func perspectiveQuad() common.Corners {
	return common.Corners{
		TopLeft:     common.Pt(30, 22),
		TopRight:    common.Pt(95, 30),
		BottomLeft:  common.Pt(25, 90),
		BottomRight: common.Pt(102, 110),
	}
}

// referenceHomography solves the same mapping with the direct linear transform.
func referenceHomography(t *testing.T, c common.Corners) *mat.VecDense {
	src := [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	dst := c.Points()

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		u, v := src[i][0], src[i][1]
		x, y := float64(dst[i].X), float64(dst[i].Y)
		a.SetRow(2*i, []float64{u, v, 1, 0, 0, 0, -u * x, -v * x})
		a.SetRow(2*i+1, []float64{0, 0, 0, u, v, 1, -u * y, -v * y})
		b.SetVec(2*i, x)
		b.SetVec(2*i+1, y)
	}
	var sol mat.VecDense
	require.NoError(t, sol.SolveVec(a, b))
	return &sol
}

func TestHomographyMatchesReference(t *testing.T) {
	c := perspectiveQuad()
	h, ok := NewHomography(c)
	require.True(t, ok)

	ref := referenceHomography(t, c)
	got := []float32{h.A, h.B, h.C, h.D, h.E, h.F, h.G, h.H}
	for i, v := range got {
		assert.InDelta(t, ref.AtVec(i), float64(v), 1e-3*max(1, abs(ref.AtVec(i))), "coefficient %d", i)
	}

	corners := map[[2]float32]common.Point{
		{0, 0}: c.TopLeft, {1, 0}: c.TopRight, {0, 1}: c.BottomLeft, {1, 1}: c.BottomRight,
	}
	for uv, p := range corners {
		x, y, ok := h.Map(uv[0], uv[1])
		require.True(t, ok)
		assert.InDelta(t, float64(p.X), x, 1e-3)
		assert.InDelta(t, float64(p.Y), y, 1e-3)
	}
}

func TestHomographySingular(t *testing.T) {
	line := common.Corners{
		TopLeft: common.Pt(0, 5), TopRight: common.Pt(10, 5),
		BottomLeft: common.Pt(20, 5), BottomRight: common.Pt(30, 5),
	}
	_, ok := NewHomography(line)
	assert.False(t, ok)

	_, err := Decode(test.NewMockFrameGenerator(40, 40).Blank(1), line)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestCodebookFitsGrid(t *testing.T) {
	for i, code := range Codebook {
		assert.Less(t, code, uint64(1)<<GridBits, "codeword %d", i)
	}
}

func TestRotateFourTimesIsIdentity(t *testing.T) {
	for _, code := range Codebook {
		g := code
		for i := 0; i < 4; i++ {
			g = Rotate(g)
		}
		assert.Equal(t, code, g)
	}
}

func TestRotateMovesCells(t *testing.T) {
	// Top-left cell moves to the top-right after a clockwise quarter turn.
	var topLeft uint64 = 1 << (GridBits - 1)
	rotated := Rotate(topLeft)
	assert.True(t, Bit(rotated, 0, GridSize-1))
	assert.Equal(t, 1, bits.OnesCount64(rotated))
}

func TestMatchIsRotationInvariant(t *testing.T) {
	for want, code := range Codebook {
		g := code
		for turn := 0; turn < 4; turn++ {
			id, dist, ok := Match(g)
			require.True(t, ok, "code %d turn %d", want, turn)
			assert.Equal(t, want, id)
			assert.Zero(t, dist)
			g = Rotate(g)
		}
	}
}

func TestMatchHammingTolerance(t *testing.T) {
	flips := [][]int{{0, 35}, {7, 20}, {13, 14}}
	for want, code := range Codebook {
		for _, f := range flips {
			g := code
			for _, b := range f {
				g ^= 1 << b
			}
			id, dist, ok := Match(g)
			require.True(t, ok, "code %d flips %v", want, f)
			assert.Equal(t, want, id)
			assert.Equal(t, 2, dist)

			id, dist, ok = Match(Rotate(Rotate(g)))
			require.True(t, ok)
			assert.Equal(t, want, id)
			assert.Equal(t, 2, dist)
		}

		three := code ^ (1 << 3) ^ (1 << 17) ^ (1 << 30)
		_, _, ok := Match(three)
		assert.False(t, ok, "code %d with three flips", want)
	}
}

func TestBinarize(t *testing.T) {
	var flat [GridBits]float32
	for i := range flat {
		flat[i] = 0.4
	}
	_, ok := Binarize(&flat)
	assert.False(t, ok)

	var s [GridBits]float32
	for i := range s {
		if i%3 == 0 {
			s[i] = 0.9
		} else {
			s[i] = 0.1
		}
	}
	s[1] = 0.45 // below the midpoint
	s[2] = 0.55 // above the midpoint
	grid, ok := Binarize(&s)
	require.True(t, ok)
	for i := 0; i < GridBits; i++ {
		want := i%3 == 0 || i == 2
		assert.Equal(t, want, Bit(grid, i/GridSize, i%GridSize), "cell %d", i)
	}
}

func TestDecodeRenderedTags(t *testing.T) {
	gen := test.NewMockFrameGenerator(200, 200)
	c := common.Corners{
		TopLeft: common.Pt(40, 60), TopRight: common.Pt(99, 60),
		BottomLeft: common.Pt(40, 119), BottomRight: common.Pt(99, 119),
	}
	for want, code := range Codebook {
		res, err := Decode(gen.Tag(40, 60, 60, code), c)
		require.NoError(t, err)
		require.True(t, res.OK, "code %d", want)
		assert.Equal(t, want, res.ID)
		assert.Zero(t, res.Distance)
		assert.Equal(t, code, res.Grid)
	}
}

func TestDecodeMisses(t *testing.T) {
	gen := test.NewMockFrameGenerator(100, 100)
	c := common.Corners{
		TopLeft: common.Pt(10, 10), TopRight: common.Pt(69, 10),
		BottomLeft: common.Pt(10, 69), BottomRight: common.Pt(69, 69),
	}

	res, err := Decode(gen.Blank(0.5), c)
	require.NoError(t, err)
	assert.False(t, res.OK, "no contrast")

	// Three flipped cells put the grid out of reach of every codeword.
	res, err = Decode(gen.Tag(10, 10, 60, Codebook[0]^(1<<3)^(1<<17)^(1<<30)), c)
	require.NoError(t, err)
	assert.False(t, res.OK)

	outside := common.Corners{
		TopLeft: common.Pt(50, 50), TopRight: common.Pt(150, 50),
		BottomLeft: common.Pt(50, 150), BottomRight: common.Pt(150, 150),
	}
	res, err = Decode(gen.Blank(0.5), outside)
	require.NoError(t, err)
	assert.False(t, res.OK, "samples outside the frame")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
