package features

import (
	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/fiducial/images"
	"github.com/nvr-ai/fiducial/images/kernels"
)

// Nearby is the half-width of the corner suppression window.
const Nearby = 3

// Harris produces a binary corner mask from the structure-tensor response of an image.
type Harris struct {
	// Concurrent blurs the three tensor products in parallel.
	Concurrent bool

	width, height int

	gx, gy     []float32
	xx, yy, xy []float32
	sxx        []float32
	syy        []float32
	sxy        []float32
	tmp        [3][]float32
	response   []float32
	corners    images.Mask
}

// NewHarris returns a corner stage with no buffers; the first Ensure allocates them.
func NewHarris() *Harris {
	return &Harris{}
}

// Ensure sizes every buffer for a width x height frame and reports whether it reallocated.
func (h *Harris) Ensure(width, height int) bool {
	if h.width == width && h.height == height && h.gx != nil {
		return false
	}
	n := width * height
	h.width, h.height = width, height
	h.gx = make([]float32, n)
	h.gy = make([]float32, n)
	h.xx = make([]float32, n)
	h.yy = make([]float32, n)
	h.xy = make([]float32, n)
	h.sxx = make([]float32, n)
	h.syy = make([]float32, n)
	h.sxy = make([]float32, n)
	for i := range h.tmp {
		h.tmp[i] = make([]float32, n)
	}
	h.response = make([]float32, n)
	h.corners = images.NewMask(width, height)
	return true
}

// Corners returns the mask written by the last Run.
func (h *Harris) Corners() images.Mask {
	return h.corners
}

// Response returns the corner response of the last Run.
func (h *Harris) Response() []float32 {
	return h.response
}

// Run computes R = det(M) - k*trace(M)^2 over the smoothed structure tensor M and keeps
// pixels above threshold*max(R) that are the maximum of their (2*Nearby+1)^2 window.
// Ties survive: a pixel is rejected only by a strictly larger neighbour.
//
// Arguments:
// - f: The blur/Sobel strategy.
// - img: The input frame; Ensure must have been called with its dimensions.
// - k: Harris sensitivity.
// - threshold: Acceptance threshold as a fraction of the frame's peak response.
//
// Returns:
// - The corner mask, owned by h and overwritten by the next Run.
func (h *Harris) Run(f kernels.Filter, img images.Intensity, k, threshold float32) images.Mask {
	w, ht := h.width, h.height
	f.Sobel(h.gx, h.gy, img.Pix, w, ht)

	for i := range h.gx {
		gx, gy := h.gx[i], h.gy[i]
		h.xx[i] = gx * gx
		h.yy[i] = gy * gy
		h.xy[i] = gx * gy
	}

	pairs := [3][2][]float32{{h.sxx, h.xx}, {h.syy, h.yy}, {h.sxy, h.xy}}
	if h.Concurrent {
		var g errgroup.Group
		for j := range pairs {
			g.Go(func() error {
				f.Blur(pairs[j][0], h.tmp[j], pairs[j][1], w, ht)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for j := range pairs {
			f.Blur(pairs[j][0], h.tmp[j], pairs[j][1], w, ht)
		}
	}

	peak := math32.Inf(-1)
	for y := ValidMargin; y < ht-ValidMargin; y++ {
		for x := ValidMargin; x < w-ValidMargin; x++ {
			i := y*w + x
			a, b, c := h.sxx[i], h.syy[i], h.sxy[i]
			tr := a + b
			r := a*b - c*c - k*tr*tr
			h.response[i] = r
			if r > peak {
				peak = r
			}
		}
	}

	clear(h.corners.Bits)
	// A frame without any positive response (flat or purely straight edges) has no corners.
	if peak <= 0 {
		return h.corners
	}
	limit := threshold * peak
	for y := ValidMargin; y < ht-ValidMargin; y++ {
		for x := ValidMargin; x < w-ValidMargin; x++ {
			i := y*w + x
			if h.response[i] > limit && h.localMax(x, y) {
				h.corners.Bits[i] = true
			}
		}
	}
	return h.corners
}

func (h *Harris) localMax(x, y int) bool {
	w := h.width
	v := h.response[y*w+x]
	y0, y1 := max(y-Nearby, 0), min(y+Nearby, h.height-1)
	x0, x1 := max(x-Nearby, 0), min(x+Nearby, w-1)
	for ny := y0; ny <= y1; ny++ {
		row := h.response[ny*w : (ny+1)*w]
		for nx := x0; nx <= x1; nx++ {
			if row[nx] > v {
				return false
			}
		}
	}
	return true
}
