package kernels

// Spatial convolves directly in the image domain.
type Spatial struct {
	// Parallel splits rows across goroutines. Worth it from roughly 720p upward.
	Parallel bool
}

var _ Filter = Spatial{}

// Blur applies the separable binomial kernel: a horizontal pass into tmp followed by a
// vertical pass into dst.
func (s Spatial) Blur(dst, tmp, src []float32, width, height int) {
	r := BlurRadius
	forRows(0, height, s.Parallel, func(y int) {
		row := src[y*width : (y+1)*width]
		out := tmp[y*width : (y+1)*width]
		for x := r; x < width-r; x++ {
			out[x] = binomial[0]*row[x-2] + binomial[1]*row[x-1] + binomial[2]*row[x] +
				binomial[3]*row[x+1] + binomial[4]*row[x+2]
		}
	})
	forRows(r, height-r, s.Parallel, func(y int) {
		out := dst[y*width : (y+1)*width]
		for x := r; x < width-r; x++ {
			i := y*width + x
			out[x] = binomial[0]*tmp[i-2*width] + binomial[1]*tmp[i-width] + binomial[2]*tmp[i] +
				binomial[3]*tmp[i+width] + binomial[4]*tmp[i+2*width]
		}
	})
}

// Sobel applies the 3x3 Sobel kernels. gx is right minus left, gy is below minus above.
func (s Spatial) Sobel(gx, gy, src []float32, width, height int) {
	forRows(SobelRadius, height-SobelRadius, s.Parallel, func(y int) {
		for x := SobelRadius; x < width-SobelRadius; x++ {
			i := y*width + x
			a, b, c := src[i-width-1], src[i-width], src[i-width+1]
			d, f := src[i-1], src[i+1]
			g, h, k := src[i+width-1], src[i+width], src[i+width+1]
			gx[i] = (c + 2*f + k) - (a + 2*d + g)
			gy[i] = (g + 2*h + k) - (a + 2*b + c)
		}
	})
}
