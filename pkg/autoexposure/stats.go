package autoexposure

import (
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

// Any channel at or beyond this counts as clipped. It's the largest
// finite half-float, which is where EXR-sourced pixels saturate.
const clipLimit = 65504

// Stats describes the luminance distribution of an image. It's
// diagnostic output, for eyeballing whether an exposure estimate is
// being driven by the scene or by a handful of stray pixels.
type Stats struct {
	Total   int // pixels
	Lit     int // pixels above the luminance floor
	Black   int // pixels at or below it
	Clipped int // pixels with a channel at the half-float ceiling

	MeanLog2      float64 // log2 luminance of the lit pixels
	StdDevLog2    float64
	P10, P50, P90 float64 // log2 luminance quantiles

	Exposure float32 // what Estimate returns for this image
}

// Log2 luminance gets recorded in the histogram as centi-stops
// offset by 64 stops, since it only takes positive integers.
const (
	evOffset = 64
	evScale  = 100
)

// Analyze scans the image and returns its luminance distribution,
// plus the exposure Estimate would pick. Same precondition as
// Estimate: 3-channel hwc or panic.
func Analyze(img *tensor.Tensor) Stats {
	if !img.IsRGB() {
		panic("autoexposure: image must be a 3-channel hwc tensor")
	}

	hist := hdrhistogram.New(1, 2*evOffset*evScale, 3)
	logs := []float64{}
	s := Stats{Total: img.Height() * img.Width()}

	for i := 0; i < img.NumValues(); i += 3 {
		r, g, b := img.Values[i], img.Values[i+1], img.Values[i+2]
		if r >= clipLimit || g >= clipLimit || b >= clipLimit {
			s.Clipped++
		}
		L := Luminance(r, g, b)
		if L <= luminanceFloor {
			s.Black++
			continue
		}
		lg := math.Log2(float64(L))
		logs = append(logs, lg)
		v := int64((lg + evOffset) * evScale)
		if v < 1 {
			v = 1
		} else if v > 2*evOffset*evScale {
			v = 2 * evOffset * evScale
		}
		hist.RecordValue(v)
	}

	s.Lit = len(logs)
	if s.Lit > 0 {
		s.MeanLog2 = stat.Mean(logs, nil)
		if s.Lit > 1 {
			s.StdDevLog2 = stat.StdDev(logs, nil)
		}
		s.P10 = fromCentiStops(hist.ValueAtQuantile(10))
		s.P50 = fromCentiStops(hist.ValueAtQuantile(50))
		s.P90 = fromCentiStops(hist.ValueAtQuantile(90))
	}
	s.Exposure = Estimate(img)

	return s
}

func fromCentiStops(v int64) float64 {
	return float64(v)/evScale - evOffset
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d pixels lit (%d black, %d clipped), log2 L mean %.2f sd %.2f, P10/P50/P90 %.2f/%.2f/%.2f, exposure %.4g",
		s.Lit, s.Total, s.Black, s.Clipped, s.MeanLog2, s.StdDevLog2, s.P10, s.P50, s.P90, s.Exposure)
}
