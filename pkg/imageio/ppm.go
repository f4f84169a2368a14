package imageio

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

// SavePPM writes a 3-channel hwc tensor as a binary P6 PPM, gamma
// compressing each sample with a plain 1/2.2 power curve into 8 bits.
// There is no PPM loader; the format only exists here as a quick way
// to eyeball an HDR image in anything that can open one.
func SavePPM(img *tensor.Tensor, filename string) error {
	if !img.IsRGB() {
		return fmt.Errorf("%w: image must have 3 channels", ErrInvalidArgument)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: cannot open file: '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P6\n%d %d\n255\n", img.Width(), img.Height())
	for _, x := range img.Values {
		// Negative and NaN samples land on 0; overbright saturates.
		v := math.Pow(float64(x), 1/2.2) * 255
		b := byte(0)
		if v > 255 {
			b = 255
		} else if v >= 0 {
			b = byte(int(v))
		}
		w.WriteByte(b)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: write '%s': %v", ErrIO, filename, err)
	}
	return nil
}
