package decode

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/fiducial/common"
	"github.com/nvr-ai/fiducial/images"
)

// ErrSingular is returned for quads whose homography cannot be solved.
var ErrSingular = errors.New("singular homography")

const (
	// cells is the number of cells across the whole tag, border included.
	cells = GridSize + 2
	// extremes is how many of the darkest and brightest samples set the binarization range.
	extremes = 5
	// threshold is the binarization cut as a fraction of the range.
	threshold = 0.5
	// minRange rejects grids without usable contrast.
	minRange = 1e-6
)

// Result describes one decode attempt.
type Result struct {
	// ID is the codebook index, meaningful only when OK.
	ID int
	// Distance is the Hamming distance to the matched codeword.
	Distance int
	// Grid holds the sampled bits.
	Grid uint64
	// OK is false when sampling failed or no codeword was close enough.
	OK bool
}

// Decode samples the data cells of the tag inside c and matches them against the
// codebook. Missing a match is not an error; only a singular homography is.
//
// Arguments:
// - img: The frame the quad was found in.
// - c: The tag corners.
//
// Returns:
// - The decode result.
// - ErrSingular when the quad admits no homography.
//
// @example
// res, err := Decode(img, corners)
// if err == nil && res.OK {
//     fmt.Println("tag", res.ID)
// }
func Decode(img images.Intensity, c common.Corners) (Result, error) {
	h, ok := NewHomography(c)
	if !ok {
		return Result{}, ErrSingular
	}
	var samples [GridBits]float32
	if !Sample(img, h, &samples) {
		return Result{}, nil
	}
	grid, ok := Binarize(&samples)
	if !ok {
		return Result{}, nil
	}
	id, dist, ok := Match(grid)
	return Result{ID: id, Distance: dist, Grid: grid, OK: ok}, nil
}

// Sample reads the nearest pixel under each data cell centre. The centres sit at
// (i+1.5)/8 of the tag side, skipping the one-cell border. It returns false if any
// centre projects outside the image.
func Sample(img images.Intensity, h Homography, out *[GridBits]float32) bool {
	for r := 0; r < GridSize; r++ {
		v := (float32(r) + 1.5) / cells
		for c := 0; c < GridSize; c++ {
			u := (float32(c) + 1.5) / cells
			x, y, ok := h.Map(u, v)
			if !ok {
				return false
			}
			px, ok := img.At(int(math32.Floor(x)), int(math32.Floor(y)))
			if !ok {
				return false
			}
			out[r*GridSize+c] = px
		}
	}
	return true
}

// Binarize thresholds samples halfway between the mean of the darkest and the mean of
// the brightest few, packing the bits row-major with the first sample most significant.
func Binarize(samples *[GridBits]float32) (uint64, bool) {
	sorted := *samples
	slices.Sort(sorted[:])

	var lo, hi float32
	for i := 0; i < extremes; i++ {
		lo += sorted[i]
		hi += sorted[GridBits-1-i]
	}
	lo /= extremes
	hi /= extremes
	span := hi - lo
	if span <= minRange {
		return 0, false
	}

	var grid uint64
	for _, s := range samples {
		grid <<= 1
		if (s-lo)/span > threshold {
			grid |= 1
		}
	}
	return grid, true
}
