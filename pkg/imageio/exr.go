//go:build !noexr

package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/abworrall/hdr-expose/pkg/exr"
	"github.com/abworrall/hdr-expose/pkg/tensor"
)

// OpenEXR support. Build with -tags noexr to compile it out; the
// "exr" registry entry disappears with it and the facade reports the
// format as unsupported.

func init() {
	Register("exr", Codec{Load: LoadEXR, Save: SaveEXR})
}

// LoadEXR reads the R, G and B channels of a scanline OpenEXR file
// into a 3-channel hwc tensor sized by the data window.
func LoadEXR(filename string) (*tensor.Tensor, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()

	r, err := exr.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, wrapEXR(err)
	}
	h := r.Header()
	if h.FindChannel("R") == nil || h.FindChannel("G") == nil || h.FindChannel("B") == nil {
		return nil, fmt.Errorf("%w: image must have 3 channels", ErrInvalidArgument)
	}

	dw := h.DataWindow
	img := tensor.NewHWC(dw.Height(), dw.Width(), 3)
	r.SetFrameBuffer(exrFrameBuffer(img))
	if err := r.ReadPixels(int(dw.YMin), int(dw.YMax)); err != nil {
		return nil, wrapEXR(err)
	}
	return img, nil
}

// SaveEXR writes a 3-channel hwc tensor as a ZIP-compressed
// scanline OpenEXR file with FLOAT R, G, B channels.
func SaveEXR(img *tensor.Tensor, filename string) error {
	if !img.IsRGB() {
		return fmt.Errorf("%w: image must have 3 channels", ErrInvalidArgument)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: cannot open file: '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()

	h := exr.NewHeader(img.Width(), img.Height(), exr.CompressionZIP)
	h.ScreenWindowWidth = float32(img.Width()) // how the files have always been written
	h.AddChannel("R", exr.PixelTypeFloat)
	h.AddChannel("G", exr.PixelTypeFloat)
	h.AddChannel("B", exr.PixelTypeFloat)

	w, err := exr.NewWriter(f, h)
	if err != nil {
		return wrapEXR(err)
	}
	w.SetFrameBuffer(exrFrameBuffer(img))
	if err := w.WritePixels(img.Height()); err != nil {
		return wrapEXR(err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: write '%s': %v", ErrIO, filename, err)
	}
	return nil
}

// exrFrameBuffer points R/G/B slices at the interleaved tensor
// storage, one channel plane apart.
func exrFrameBuffer(img *tensor.Tensor) exr.FrameBuffer {
	fb := exr.FrameBuffer{}
	xs := img.Channels()
	ys := img.Width() * img.Channels()
	fb.Insert("R", exr.Slice{Data: img.Values, Offset: 0, XStride: xs, YStride: ys})
	fb.Insert("G", exr.Slice{Data: img.Values, Offset: 1, XStride: xs, YStride: ys})
	fb.Insert("B", exr.Slice{Data: img.Values, Offset: 2, XStride: xs, YStride: ys})
	return fb
}

func wrapEXR(err error) error {
	if errors.Is(err, exr.ErrUnsupported) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
}
