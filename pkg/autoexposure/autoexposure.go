package autoexposure

// Estimates an exposure multiplier for an HDR image the way film
// folk meter a scene: map the geometric mean of pixel luminance
// onto middle grey. Black pixels would drag the log-average off to
// -inf, so anything at or below a tiny floor doesn't get a vote.

import (
	"math"
	"runtime"
	"sync"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

const (
	// Middle grey, where the average luminance lands after exposure.
	key = 0.18

	// Luminance at or below this is considered unlit.
	luminanceFloor = 1e-7

	// Images with fewer pixels than this are scanned on the calling
	// goroutine; the fan-out isn't worth it.
	parallelMinPixels = 1 << 14
)

// Luminance is the Rec.709 photometric weighting of linear RGB.
func Luminance(r, g, b float32) float32 {
	return 0.212671*r + 0.715160*g + 0.072169*b
}

// A partial is one worker's share of the log-luminance average.
type partial struct {
	logSum float64
	count  int
}

// Estimate returns the exposure scale that maps the image's
// geometric mean luminance to middle grey, or 1.0 when nothing in
// the image is lit. The image must be a 3-channel hwc tensor;
// anything else is a programming error and panics.
func Estimate(img *tensor.Tensor) float32 {
	return EstimateN(img, runtime.GOMAXPROCS(0))
}

// EstimateN is Estimate with an explicit worker count. The result
// doesn't depend on the count: each worker scans a contiguous band
// of rows into its own slot, and the slots merge in order.
func EstimateN(img *tensor.Tensor, workers int) float32 {
	if !img.IsRGB() {
		panic("autoexposure: image must be a 3-channel hwc tensor")
	}

	height := img.Height()
	if workers > height {
		workers = height
	}
	if workers <= 1 || img.NumValues() < parallelMinPixels*3 {
		return exposure(scanRows(img, 0, height))
	}

	partials := make([]partial, workers)
	rowsPer := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := w * rowsPer
		y1 := y0 + rowsPer
		if y1 > height {
			y1 = height
		}
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		go func(slot, y0, y1 int) {
			defer wg.Done()
			partials[slot] = scanRows(img, y0, y1)
		}(w, y0, y1)
	}
	wg.Wait()

	var total partial
	for _, p := range partials {
		total.logSum += p.logSum
		total.count += p.count
	}
	return exposure(total)
}

func scanRows(img *tensor.Tensor, y0, y1 int) partial {
	width := img.Width()
	var p partial
	for y := y0; y < y1; y++ {
		row := img.Values[y*width*3 : (y+1)*width*3]
		for x := 0; x < width; x++ {
			L := Luminance(row[x*3], row[x*3+1], row[x*3+2])
			if L > luminanceFloor {
				p.logSum += math.Log2(float64(L))
				p.count++
			}
		}
	}
	return p
}

func exposure(p partial) float32 {
	if p.count == 0 {
		return 1
	}
	return float32(key / math.Exp2(p.logSum/float64(p.count)))
}
