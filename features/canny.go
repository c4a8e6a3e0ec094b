// Package features - the edge (Canny) and corner (Harris) stages. Each stage owns its
// scratch buffers and reallocates them only when the frame size changes.
package features

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/fiducial/images"
	"github.com/nvr-ai/fiducial/images/kernels"
)

// ValidMargin is the border width inside which gradients are meaningful: the blur needs
// BlurRadius pixels and the Sobel pass on top of it needs SobelRadius more.
const ValidMargin = kernels.BlurRadius + kernels.SobelRadius

// Direction quantization thresholds, tan(22.5 deg) and tan(67.5 deg).
const (
	tanLow  = 0.4142
	tanHigh = 2.4142
)

// Canny produces a binary edge mask from an intensity image.
type Canny struct {
	width, height int

	tmp   []float32
	blur  []float32
	gx    []float32
	gy    []float32
	mag   []float32
	supp  []float32
	queue []int32
	edges images.Mask
}

// NewCanny returns an edge stage with no buffers; the first Ensure allocates them.
func NewCanny() *Canny {
	return &Canny{}
}

// Ensure sizes every buffer for a width x height frame. It reallocates only when the
// dimensions differ from the previous call and reports whether it did.
func (c *Canny) Ensure(width, height int) bool {
	if c.width == width && c.height == height && c.tmp != nil {
		return false
	}
	n := width * height
	c.width, c.height = width, height
	c.tmp = make([]float32, n)
	c.blur = make([]float32, n)
	c.gx = make([]float32, n)
	c.gy = make([]float32, n)
	c.mag = make([]float32, n)
	c.supp = make([]float32, n)
	c.queue = make([]int32, 0, n)
	c.edges = images.NewMask(width, height)
	return true
}

// Edges returns the mask written by the last Run.
func (c *Canny) Edges() images.Mask {
	return c.edges
}

// Run detects edges in img. low and high are hysteresis thresholds expressed as
// fractions of the strongest suppressed gradient in the frame.
//
// Arguments:
// - f: The blur/Sobel strategy.
// - img: The input frame; Ensure must have been called with its dimensions.
// - low: Weak threshold fraction.
// - high: Strong threshold fraction.
//
// Returns:
// - The edge mask, owned by c and overwritten by the next Run.
//
// @example
// c := NewCanny()
// c.Ensure(img.Width, img.Height)
// edges := c.Run(kernels.Spatial{}, img, 0.0125, 0.05)
func (c *Canny) Run(f kernels.Filter, img images.Intensity, low, high float32) images.Mask {
	w, h := c.width, c.height
	f.Blur(c.blur, c.tmp, img.Pix, w, h)
	f.Sobel(c.gx, c.gy, c.blur, w, h)

	for y := ValidMargin; y < h-ValidMargin; y++ {
		for x := ValidMargin; x < w-ValidMargin; x++ {
			i := y*w + x
			c.mag[i] = math32.Sqrt(c.gx[i]*c.gx[i] + c.gy[i]*c.gy[i])
		}
	}

	peak := nonMaxSuppress(c.supp, c.mag, c.gx, c.gy, w, h)
	c.queue = hysteresis(c.edges.Bits, c.queue, c.supp, w, h, low*peak, high*peak)
	return c.edges
}

// nonMaxSuppress keeps a magnitude only where it is at least as large as both neighbours
// along its quantized gradient direction. Everything within ValidMargin of the border is
// zeroed. It returns the largest value kept.
func nonMaxSuppress(supp, mag, gx, gy []float32, w, h int) float32 {
	clear(supp)
	var peak float32
	for y := ValidMargin; y < h-ValidMargin; y++ {
		for x := ValidMargin; x < w-ValidMargin; x++ {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}
			ax, ay := math32.Abs(gx[i]), math32.Abs(gy[i])
			var step int
			switch {
			case ay <= tanLow*ax:
				step = 1
			case ay >= tanHigh*ax:
				step = w
			case gx[i]*gy[i] > 0:
				step = w + 1
			default:
				step = w - 1
			}
			if m >= mag[i-step] && m >= mag[i+step] {
				supp[i] = m
				if m > peak {
					peak = m
				}
			}
		}
	}
	return peak
}

// hysteresis marks every pixel above high, then grows those seeds breadth-first through
// 8-connected pixels above low. queue is scratch with capacity for every pixel; the
// (possibly regrown) slice is returned for reuse.
func hysteresis(out []bool, queue []int32, supp []float32, w, h int, low, high float32) []int32 {
	clear(out)
	queue = queue[:0]
	for i, v := range supp {
		if v > high {
			out[i] = true
			queue = append(queue, int32(i))
		}
	}

	for head := 0; head < len(queue); head++ {
		i := int(queue[head])
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= h {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if nx < 0 || nx >= w || (dx == 0 && dy == 0) {
					continue
				}
				j := ny*w + nx
				if !out[j] && supp[j] > low {
					out[j] = true
					queue = append(queue, int32(j))
				}
			}
		}
	}
	return queue
}
