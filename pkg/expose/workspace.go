package expose

import(
	"fmt"
	"image"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/skypies/util/histogram"

	"github.com/abworrall/hdr-expose/pkg/autoexposure"
	"github.com/abworrall/hdr-expose/pkg/imageio"
	"github.com/abworrall/hdr-expose/pkg/tensor"
	"github.com/abworrall/hdr-expose/pkg/tonemap"
)

// An Image is one input file and its pixels, plus what we did to it.
type Image struct {
	Filename string
	Img      *tensor.Tensor
	Scale    float32 // the exposure multiplier we applied
}

// A Workspace holds the config and the loaded inputs, and drives
// the expose / tonemap / output pipeline over them.
type Workspace struct {
	Config Config
	Images []*Image
}

func NewWorkspace() *Workspace {
	return &Workspace{Config: NewConfig()}
}

func (w *Workspace)String() string {
	str := fmt.Sprintf("Workspace{%d images}\n", len(w.Images))
	for _, im := range w.Images {
		str += fmt.Sprintf("  %s: %s\n", im.Filename, im.Img)
	}
	return str
}

// Process runs the pipeline over every loaded image: estimate (or
// take) an exposure, scale the pixels, then write whatever outputs
// the config asks for.
func (w *Workspace)Process() error {
	if len(w.Images) == 0 {
		return fmt.Errorf("no input images loaded")
	}

	for _, im := range w.Images {
		if err := w.processOne(im); err != nil {
			return fmt.Errorf("%s: %v", im.Filename, err)
		}
	}
	return nil
}

func (w *Workspace)processOne(im *Image) error {
	c := w.Config

	if c.ShowStats {
		log.Printf("%s: %v\n", im.Filename, autoexposure.Analyze(im.Img))
	}
	if c.Verbosity > 1 {
		w.dumpLuminanceStops(im)
	}

	scale, err := c.exposureFor(im.Img)
	if err != nil {
		return err
	}
	im.Scale = scale
	im.Img.Scale(scale)
	log.Printf("Exposing %s by %.4g\n", im.Filename, scale)

	out := w.outputName(im)
	var ldr image.Image // the single-operator LDR, if we made one

	if strings.EqualFold(filepath.Ext(out), ".png") {
		ldr, err = w.writeLDR(im, out)
		if err != nil {
			return err
		}
	} else {
		if err := imageio.Save(im.Img, out); err != nil {
			return err
		}
		log.Printf("HDR output file written '%s'\n", out)
	}

	if c.PreviewFilename != "" {
		if ldr == nil {
			if ldr, err = tonemap.Tonemap(im.Img, w.previewTonemapper()); err != nil {
				return err
			}
		}
		caption := fmt.Sprintf("%s x%.3g", filepath.Base(im.Filename), im.Scale)
		fn := w.derivedName(c.PreviewFilename, im)
		if err := tonemap.WritePreview(ldr, caption, fn, c.PreviewMaxDim); err != nil {
			return err
		}
		log.Printf("Preview written '%s'\n", fn)
	}

	if c.HeatmapFilename != "" {
		fn := w.derivedName(c.HeatmapFilename, im)
		if err := tonemap.WritePNG(tonemap.Heatmap(im.Img), fn); err != nil {
			return err
		}
		log.Printf("Heatmap written '%s'\n", fn)
	}

	return nil
}

// writeLDR tonemaps and writes the main output. With tonemapper
// "all" it writes one file per operator and returns no LDR; with a
// single operator it returns the image so previews can reuse it.
func (w *Workspace)writeLDR(im *Image, out string) (image.Image, error) {
	name := w.Config.Tonemapper
	if name == "" {
		name = "linear"
	}

	if name == "all" {
		stem := strings.TrimSuffix(out, filepath.Ext(out))
		for _, n := range tonemap.Tonemappers {
			ldr, err := tonemap.Tonemap(im.Img, n)
			if err != nil {
				return nil, err
			}
			fn := fmt.Sprintf("%s-%s.png", stem, n)
			if err := tonemap.WritePNG(ldr, fn); err != nil {
				return nil, err
			}
			log.Printf("LDR output file written '%s'\n", fn)
		}
		return nil, nil
	}

	ldr, err := tonemap.Tonemap(im.Img, name)
	if err != nil {
		return nil, err
	}
	if err := tonemap.WritePNG(ldr, out); err != nil {
		return nil, err
	}
	log.Printf("LDR output file written '%s'\n", out)
	return ldr, nil
}

func (w *Workspace)previewTonemapper() string {
	name := w.Config.Tonemapper
	if name == "" || name == "all" {
		return "linear"
	}
	return name
}

// outputName honors -o for a single input; with several inputs each
// output sits next to its source, keeping -o's extension if given.
func (w *Workspace)outputName(im *Image) string {
	if w.Config.OutputFilename != "" && len(w.Images) == 1 {
		return w.Config.OutputFilename
	}
	ext := ".png"
	if e := filepath.Ext(w.Config.OutputFilename); e != "" {
		ext = e
	}
	return strings.TrimSuffix(im.Filename, filepath.Ext(im.Filename)) + "-exposed" + ext
}

func (w *Workspace)derivedName(configured string, im *Image) string {
	if len(w.Images) == 1 {
		return configured
	}
	stem := strings.TrimSuffix(im.Filename, filepath.Ext(im.Filename))
	return stem + "-" + filepath.Base(configured)
}

// dumpLuminanceStops prints a coarse histogram of log2 luminance,
// one bucket per stop.
func (w *Workspace)dumpLuminanceStops(im *Image) {
	h := histogram.Histogram{NumBuckets: 48, ValMin: -24, ValMax: 24}
	img := im.Img
	for i := 0; i < img.NumValues(); i += 3 {
		L := autoexposure.Luminance(img.Values[i], img.Values[i+1], img.Values[i+2])
		if L <= 1e-7 {
			continue
		}
		stop := int(math.Floor(math.Log2(float64(L))))
		if stop < -24 {
			stop = -24
		} else if stop > 23 {
			stop = 23
		}
		h.Add(histogram.ScalarVal(stop))
	}
	log.Printf("%s luminance stops: %v\n", im.Filename, h)
}
