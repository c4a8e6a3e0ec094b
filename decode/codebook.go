package decode

import "math/bits"

const (
	// GridSize is the number of data cells along each side of a tag.
	GridSize = 6
	// GridBits is the number of data bits in a tag.
	GridBits = GridSize * GridSize
	// MaxDistance is the largest Hamming distance still accepted as a match.
	MaxDistance = 2
)

// Codebook holds the tag identifiers' 36-bit patterns, indexed by identifier. Bit 35 is
// the top-left cell and bit 0 the bottom-right, rows first.
var Codebook = [...]uint64{
	57401312644,
	58383764297,
	59366215950,
	61331119256,
	63296022562,
	65260925868,
	1453707397,
	4401062356,
	9313320621,
	10295772274,
	14225578886,
}

// Match compares a grid against every codeword in all four orientations. An exact match
// returns at once; otherwise the closest codeword within MaxDistance wins, the first one
// found on ties.
//
// Arguments:
// - grid: The 36 sampled bits, row-major, most significant first.
//
// Returns:
// - The codeword index, the Hamming distance, and whether any codeword was close enough.
//
// @example
// id, dist, ok := Match(Codebook[3] ^ 0b101) // 3, 2, true
func Match(grid uint64) (id, distance int, ok bool) {
	best, bestDist := -1, MaxDistance+1
	for turn := 0; turn < 4; turn++ {
		for i, code := range Codebook {
			d := bits.OnesCount64(grid ^ code)
			if d == 0 {
				return i, 0, true
			}
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		grid = Rotate(grid)
	}
	if best < 0 {
		return -1, 0, false
	}
	return best, bestDist, true
}

// Rotate turns a grid a quarter turn clockwise by reversing its rows and transposing.
func Rotate(grid uint64) uint64 {
	var out uint64
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			// out[r][c] = in[GridSize-1-c][r]
			if Bit(grid, GridSize-1-c, r) {
				out |= 1 << (GridBits - 1 - (r*GridSize + c))
			}
		}
	}
	return out
}

// Bit reports the cell at row r, column c.
func Bit(grid uint64, r, c int) bool {
	return grid>>(GridBits-1-(r*GridSize+c))&1 == 1
}
