package imageio

import (
	"bufio"
	"fmt"
	"image"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe" // registers the codec with image.Decode too

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

// Radiance RGBE. Photoshop, Blender and most tonemapping tools speak
// .hdr, which makes it a handy interchange format alongside EXR.

func init() {
	Register("hdr", Codec{Load: LoadHDR, Save: SaveHDR})
}

// LoadHDR reads a Radiance RGBE file into a 3-channel hwc tensor.
func LoadHDR(filename string) (*tensor.Tensor, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()

	m, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	hm, ok := m.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' decoded as LDR", ErrInvalidFormat, filename)
	}

	b := hm.Bounds()
	img := tensor.NewHWC(b.Dy(), b.Dx(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := hm.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
			img.Set(y, x, 0, float32(r))
			img.Set(y, x, 1, float32(g))
			img.Set(y, x, 2, float32(bl))
		}
	}
	return img, nil
}

// SaveHDR writes a 3-channel hwc tensor as Radiance RGBE.
func SaveHDR(img *tensor.Tensor, filename string) error {
	if !img.IsRGB() {
		return fmt.Errorf("%w: image must have 3 channels", ErrInvalidArgument)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: cannot open file: '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()
	if err := rgbe.Encode(f, HDRImage{img}); err != nil {
		return fmt.Errorf("%w: encoding RGBE '%s': %v", ErrIO, filename, err)
	}
	return nil
}
