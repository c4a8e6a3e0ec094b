package images

import (
	"image"
	"runtime"
	"sync"
)

// BT.601 luma weights, matching the gray conversion of common decoders.
const (
	redWeight   = 0.299
	greenWeight = 0.587
	blueWeight  = 0.114
)

// FromImage converts any image.Image to an Intensity with samples in [0, 1].
//
// Arguments:
// - img: The source image. Its bounds may have a non-zero origin.
//
// Returns:
// - The luminance of every pixel, normalized to [0, 1].
//
// @example
// f, _ := os.Open("tag.png")
// src, _, _ := image.Decode(f)
// gray := FromImage(src)
func FromImage(img image.Image) Intensity {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := NewIntensity(width, height)

	// Fast path for images that are already 8-bit gray.
	if g, ok := img.(*image.Gray); ok {
		Parallel(height, func(start, end int) {
			for y := start; y < end; y++ {
				off := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				row := g.Pix[off : off+width]
				dst := out.Pix[y*width : (y+1)*width]
				for x, v := range row {
					dst[x] = float32(v) / 255
				}
			}
		})
		return out
	}

	Parallel(height, func(start, end int) {
		for y := start; y < end; y++ {
			srcY := bounds.Min.Y + y
			dst := out.Pix[y*width : (y+1)*width]
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, srcY).RGBA()
				// RGBA() returns 16-bit channels.
				luma := float64(r)*redWeight + float64(g)*greenWeight + float64(b)*blueWeight
				dst[x] = float32(luma / 0xffff)
			}
		}
	})
	return out
}

// Parallel executes fn across partitions of [0, dataSize) on up to runtime.NumCPU()
// goroutines and waits for all of them.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	// Small inputs are not worth the goroutine overhead.
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}
	wg.Wait()
}
