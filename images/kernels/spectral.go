package kernels

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectral computes the blur and Sobel passes as pointwise products of 2D discrete Fourier
// transforms. Kernel transforms are cached per image size. The products are circular
// convolutions, which agree with Spatial on every pixel the kernels fit around; only those
// pixels are written.
type Spectral struct {
	mu    sync.Mutex
	cache map[frameSize]*spectra
}

var _ Filter = (*Spectral)(nil)

type frameSize struct {
	height, width int
}

// spectra holds the kernel transforms for one frame size plus a pool of FFT workers.
// CmplxFFT keeps internal scratch, so each in-flight call takes its own worker.
type spectra struct {
	blur   []complex128
	sobelX []complex128
	sobelY []complex128
	work   sync.Pool
}

type worker struct {
	rows *fourier.CmplxFFT
	cols *fourier.CmplxFFT
	buf  []complex128
	aux  []complex128
	line []complex128
	col  []complex128
}

// NewSpectral returns an empty frequency-domain filter.
func NewSpectral() *Spectral {
	return &Spectral{cache: make(map[frameSize]*spectra)}
}

// Blur implements Filter. tmp is unused.
func (s *Spectral) Blur(dst, _, src []float32, width, height int) {
	sp := s.spectra(width, height)
	w := sp.get(width, height)
	defer sp.work.Put(w)

	load(w.buf, src)
	w.transform(w.buf, width, height, true)
	for i, k := range sp.blur {
		w.buf[i] *= k
	}
	w.transform(w.buf, width, height, false)
	store(dst, w.buf, width, height, BlurRadius)
}

// Sobel implements Filter.
func (s *Spectral) Sobel(gx, gy, src []float32, width, height int) {
	sp := s.spectra(width, height)
	w := sp.get(width, height)
	defer sp.work.Put(w)

	load(w.buf, src)
	w.transform(w.buf, width, height, true)
	for i, c := range w.buf {
		w.aux[i] = c * sp.sobelY[i]
		w.buf[i] = c * sp.sobelX[i]
	}
	w.transform(w.buf, width, height, false)
	w.transform(w.aux, width, height, false)
	store(gx, w.buf, width, height, SobelRadius)
	store(gy, w.aux, width, height, SobelRadius)
}

// Cached reports how many frame sizes have kernel transforms cached.
func (s *Spectral) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func (s *Spectral) spectra(width, height int) *spectra {
	key := frameSize{height: height, width: width}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		s.cache = make(map[frameSize]*spectra)
	}
	if sp, ok := s.cache[key]; ok {
		return sp
	}

	sp := &spectra{}
	w := newWorker(width, height)
	sp.blur = kernelSpectrum(w, width, height, BlurRadius, func(dx, dy int) float64 {
		return float64(binomial[dx+BlurRadius]) * float64(binomial[dy+BlurRadius])
	})
	sp.sobelX = kernelSpectrum(w, width, height, SobelRadius, func(dx, dy int) float64 {
		return float64(dx) * sobelWeight(dy)
	})
	sp.sobelY = kernelSpectrum(w, width, height, SobelRadius, func(dx, dy int) float64 {
		return float64(dy) * sobelWeight(dx)
	})
	sp.work.Put(w)
	s.cache[key] = sp
	return sp
}

func (sp *spectra) get(width, height int) *worker {
	if w, ok := sp.work.Get().(*worker); ok {
		return w
	}
	return newWorker(width, height)
}

func newWorker(width, height int) *worker {
	n := width * height
	return &worker{
		rows: fourier.NewCmplxFFT(width),
		cols: fourier.NewCmplxFFT(height),
		buf:  make([]complex128, n),
		aux:  make([]complex128, n),
		line: make([]complex128, max(width, height)),
		col:  make([]complex128, height),
	}
}

func sobelWeight(d int) float64 {
	if d == 0 {
		return 2
	}
	return 1
}

// kernelSpectrum transforms a correlation kernel given by weight(dx, dy). The kernel is
// stored flipped and wrapped so the circular product reproduces the spatial correlation.
func kernelSpectrum(w *worker, width, height, radius int, weight func(dx, dy int) float64) []complex128 {
	k := make([]complex128, width*height)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			y := wrap(-dy, height)
			x := wrap(-dx, width)
			k[y*width+x] += complex(weight(dx, dy), 0)
		}
	}
	w.transform(k, width, height, true)
	return k
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// transform runs the 2D transform in place: rows then columns. The inverse is scaled by
// 1/(width*height) since gonum leaves Sequence unnormalized.
func (w *worker) transform(data []complex128, width, height int, forward bool) {
	line := w.line[:width]
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		if forward {
			w.rows.Coefficients(line, row)
		} else {
			w.rows.Sequence(line, row)
		}
		copy(row, line)
	}

	line = w.line[:height]
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			w.col[y] = data[y*width+x]
		}
		if forward {
			w.cols.Coefficients(line, w.col)
		} else {
			w.cols.Sequence(line, w.col)
		}
		for y := 0; y < height; y++ {
			data[y*width+x] = line[y]
		}
	}

	if !forward {
		scale := complex(1/float64(width*height), 0)
		for i := range data {
			data[i] *= scale
		}
	}
}

func load(dst []complex128, src []float32) {
	for i, v := range src {
		dst[i] = complex(float64(v), 0)
	}
}

// store copies the real part of the interior at least margin from every border.
func store(dst []float32, src []complex128, width, height, margin int) {
	for y := margin; y < height-margin; y++ {
		for x := margin; x < width-margin; x++ {
			dst[y*width+x] = float32(real(src[y*width+x]))
		}
	}
}
