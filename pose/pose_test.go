package pose

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/fiducial/common"
)

func square(x0, y0, side int) common.Corners {
	x1, y1 := x0+side, y0+side
	return common.Corners{
		TopLeft: common.Pt(x0, y0), TopRight: common.Pt(x1, y0),
		BottomLeft: common.Pt(x0, y1), BottomRight: common.Pt(x1, y1),
	}
}

func TestRotationHeadOn(t *testing.T) {
	assert.InDelta(t, 0, Rotation(square(10, 10, 40)), 1e-6)
}

func TestRotationSign(t *testing.T) {
	// Left side taller than the right: the tag's right edge is further away.
	leftTall := common.Corners{
		TopLeft: common.Pt(10, 10), TopRight: common.Pt(40, 15),
		BottomLeft: common.Pt(10, 60), BottomRight: common.Pt(40, 55),
	}
	r := Rotation(leftTall)
	assert.Greater(t, r, float32(0))

	mirrored := common.Corners{
		TopLeft: common.Pt(10, 15), TopRight: common.Pt(40, 10),
		BottomLeft: common.Pt(10, 55), BottomRight: common.Pt(40, 60),
	}
	assert.InDelta(t, -r, Rotation(mirrored), 1e-6)

	// Foreshortened to half width: acos(0.5) = 60 degrees.
	squashed := common.Corners{
		TopLeft: common.Pt(0, 0), TopRight: common.Pt(20, 0),
		BottomLeft: common.Pt(0, 40), BottomRight: common.Pt(20, 40),
	}
	assert.InDelta(t, math32.Pi/3, Rotation(squashed), 1e-5)
}

func TestRotationClampsAndDegenerates(t *testing.T) {
	wide := common.Corners{
		TopLeft: common.Pt(0, 0), TopRight: common.Pt(80, 0),
		BottomLeft: common.Pt(0, 40), BottomRight: common.Pt(80, 40),
	}
	assert.InDelta(t, 0, Rotation(wide), 1e-6)

	flat := common.Corners{
		TopLeft: common.Pt(0, 0), TopRight: common.Pt(80, 0),
		BottomLeft: common.Pt(0, 0), BottomRight: common.Pt(80, 0),
	}
	assert.Zero(t, Rotation(flat))
}

func TestPositionCentred(t *testing.T) {
	cam := Camera{Width: 200, Height: 200, FOV: 75 * math32.Pi / 180}
	pos, ok := cam.Position(square(70, 70, 60))
	require.True(t, ok)

	scale := 200.0 / 120 * TagSize
	assert.InDelta(t, 0, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
	assert.InDelta(t, scale/math.Tan(75*math.Pi/360), pos.Z, 1e-4)
}

func TestPositionDirections(t *testing.T) {
	cam := Camera{Width: 320, Height: 240, FOV: 75 * math32.Pi / 180}

	right, ok := cam.Position(square(250, 100, 40))
	require.True(t, ok)
	assert.Greater(t, right.X, 0.0)

	low, ok := cam.Position(square(140, 180, 40))
	require.True(t, ok)
	assert.Less(t, low.Y, 0.0)

	near, _ := cam.Position(square(100, 60, 80))
	far, _ := cam.Position(square(140, 100, 20))
	assert.Less(t, near.Z, far.Z)
}

func TestPositionDegenerate(t *testing.T) {
	cam := Camera{Width: 100, Height: 100, FOV: 1}
	c := common.Corners{
		TopLeft: common.Pt(10, 10), TopRight: common.Pt(50, 10),
		BottomLeft: common.Pt(10, 10), BottomRight: common.Pt(50, 50),
	}
	_, ok := cam.Position(c)
	assert.False(t, ok)
}
