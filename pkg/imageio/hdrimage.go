package imageio

import (
	"image"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

// HDRImage wraps a 3-channel hwc tensor as an hdr.Image, so the
// RGBE codec and the tonemapping operators can consume our pixels
// without a copy.
type HDRImage struct {
	T *tensor.Tensor
}

// Implement image.Image
func (hi HDRImage)ColorModel() color.Model { return hdrcolor.RGBModel }
func (hi HDRImage)Bounds() image.Rectangle { return image.Rect(0, 0, hi.T.Width(), hi.T.Height()) }
func (hi HDRImage)At(x, y int) color.Color { return hi.HDRAt(x, y) }

// Implement hdr.Image
func (hi HDRImage)HDRAt(x, y int) hdrcolor.Color {
	return hdrcolor.RGB{
		R: float64(hi.T.Get(y, x, 0)),
		G: float64(hi.T.Get(y, x, 1)),
		B: float64(hi.T.Get(y, x, 2)),
	}
}
func (hi HDRImage)Size() int { return hi.T.Width() * hi.T.Height() }
