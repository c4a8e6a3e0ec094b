// Package kernels implements the separable 5-tap binomial blur and the 3x3 Sobel operator
// over flat row-major float32 buffers.
//
// Two interchangeable strategies satisfy Filter: Spatial convolves directly and Spectral
// multiplies in the frequency domain. Both write only the pixels where the kernel fits
// entirely inside the image and leave every other destination pixel untouched, so buffers
// that start zeroed keep a zero border across frames.
package kernels

import "sync"

const (
	// BlurRadius is the half-width of the binomial blur kernel.
	BlurRadius = 2
	// SobelRadius is the half-width of the Sobel kernel.
	SobelRadius = 1
)

// binomial holds the 1D blur weights [1 4 6 4 1]/16.
var binomial = [2*BlurRadius + 1]float32{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// Filter computes the smoothing and gradient passes used by the edge and corner stages.
//
// Implementations must be safe for concurrent use: the edge and corner stages call the
// same Filter from different goroutines.
type Filter interface {
	// Blur smooths src into dst. tmp is scratch of the same size and may be ignored.
	// Only pixels at least BlurRadius from every border are written.
	Blur(dst, tmp, src []float32, width, height int)
	// Sobel writes the horizontal and vertical derivatives of src. Only pixels at least
	// SobelRadius from every border are written.
	Sobel(gx, gy, src []float32, width, height int)
}

// forRows runs task over [start, end) either inline or split into chunks of rows.
func forRows(start, end int, parallel bool, task func(y int)) {
	n := end - start
	if n <= 0 {
		return
	}
	if !parallel || n < 4 {
		for y := start; y < end; y++ {
			task(y)
		}
		return
	}

	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for s := start; s < end; s += chunk {
		e := min(s+chunk, end)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				task(y)
			}
		}(s, e)
	}
	wg.Wait()
}

// chooseChunk picks a row chunk size that balances goroutine overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
