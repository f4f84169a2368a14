package imageio

// This package is the one-stop shop for getting HDR pixel data in
// and out of files. Each format registers a Codec against its file
// extension; Load/Save just dispatch on FormatOf. A format can be
// load-only or save-only - we read TIFFs we'd never write, and write
// PPMs we'd never read.

import (
	"fmt"
	"sort"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

type Loader func(filename string) (*tensor.Tensor, error)
type Saver func(img *tensor.Tensor, filename string) error

// A Codec is a format's entry in the registry; either half may be
// nil for one-way formats.
type Codec struct {
	Load Loader
	Save Saver
}

var codecs = map[string]Codec{}

// Register wires a codec up to a format identifier. Formats register
// themselves at init time, so a build tag that drops a format file
// silently drops its registry entry too. Last registration wins.
func Register(format string, c Codec) {
	codecs[format] = c
}

// Formats returns the registered format identifiers, sorted, mostly
// for usage strings.
func Formats() []string {
	out := []string{}
	for f := range codecs {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Load reads filename into an hwc tensor, picking the codec from the
// file extension.
func Load(filename string) (*tensor.Tensor, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	c, ok := codecs[format]
	if !ok || c.Load == nil {
		return nil, fmt.Errorf("%w: image format is not supported", ErrUnsupportedFormat)
	}
	return c.Load(filename)
}

// Save writes img to filename, picking the codec from the file
// extension. Note the longstanding ".pfm" oddity: saving to a .pfm
// name goes through the PPM writer, so the output is an 8-bit P6
// despite the extension. Callers who really want a float PFM call
// SavePFM directly.
func Save(img *tensor.Tensor, filename string) error {
	format, err := FormatOf(filename)
	if err != nil {
		return err
	}
	c, ok := codecs[format]
	if !ok || c.Save == nil {
		return fmt.Errorf("%w: image format is not supported", ErrUnsupportedFormat)
	}
	return c.Save(img, filename)
}

func init() {
	Register("pfm", Codec{Load: LoadPFM, Save: SavePPM})
	Register("ppm", Codec{Save: SavePPM})
}
