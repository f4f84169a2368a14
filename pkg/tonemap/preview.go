package tonemap

// Helpers for getting images onto disk in a form humans can look at.

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"

	"github.com/abworrall/hdr-expose/pkg/autoexposure"
	"github.com/abworrall/hdr-expose/pkg/tensor"
)

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// Thumbnail shrinks an image to fit in a maxDim square, keeping the
// aspect ratio. Images already small enough come back untouched.
func Thumbnail(img image.Image, maxDim int) image.Image {
	return resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
}

// Annotate burns a caption into the bottom-left corner.
func Annotate(img image.Image, caption string) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(caption, 10, float64(dc.Height())-10)
	return dc.Image()
}

// WritePreview writes a small annotated PNG, for eyeballing results
// without opening the full-size output.
func WritePreview(img image.Image, caption, filename string, maxDim int) error {
	return WritePNG(Annotate(Thumbnail(img, maxDim), caption), filename)
}

// Heatmap renders the image's log2 luminance as a false-color map,
// cold blue up through hot red across the dynamic range actually
// present. Unlit pixels come out near-black. Handy for seeing what
// the exposure estimate is looking at.
func Heatmap(img *tensor.Tensor) image.Image {
	if !img.IsRGB() {
		panic("tonemap: image must be a 3-channel hwc tensor")
	}

	width, height := img.Width(), img.Height()
	logs := make([]float64, width*height)
	min, max := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < len(logs); i++ {
		L := autoexposure.Luminance(img.Values[i*3], img.Values[i*3+1], img.Values[i*3+2])
		if L <= 1e-7 {
			logs[i] = math.Inf(-1)
			continue
		}
		lg := math.Log2(float64(L))
		logs[i] = lg
		if lg < min { min = lg }
		if lg > max { max = lg }
	}
	if min > max { min, max = 0, 1 } // nothing lit at all
	if max == min { max = min + 1 }

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lg := logs[y*width+x]
			if math.IsInf(lg, -1) {
				out.Set(x, y, color.RGBA{12, 12, 12, 0xFF})
				continue
			}
			t := (lg - min) / (max - min)
			out.Set(x, y, colorful.Hsv(240*(1-t), 1, 1))
		}
	}
	return out
}
