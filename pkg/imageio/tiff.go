package imageio

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

func init() {
	Register("tif", Codec{Load: LoadTIFF})
	Register("tiff", Codec{Load: LoadTIFF})
}

// LoadTIFF reads a TIFF (16-bit ones included, which is why we
// bother) into a 3-channel hwc tensor. When the file carries an EXIF
// exposure triple, samples are scaled to physical lux via the EV
// tables, so differently-exposed shots land on one comparable scale;
// without EXIF the samples just map to [0,1].
func LoadTIFF(filename string) (*tensor.Tensor, error) {
	scale := 1.0 / 0xFFFF
	ev, err := tiffExposure(filename)
	if err != nil {
		return nil, err
	}
	if ev != nil {
		scale = ev.IlluminanceAtMax / 0xFFFF
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()

	m, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: tiff decoding '%s': %v", ErrInvalidFormat, filename, err)
	}

	b := m.Bounds()
	img := tensor.NewHWC(b.Dy(), b.Dx(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := m.At(b.Min.X+x, b.Min.Y+y).RGBA()
			img.Set(y, x, 0, float32(float64(r)*scale))
			img.Set(y, x, 1, float32(float64(g)*scale))
			img.Set(y, x, 2, float32(float64(bl)*scale))
		}
	}
	return img, nil
}

// tiffExposure digs the ISO / FNumber / ExposureTime triple out of
// the EXIF and turns it into a validated ExposureValue. A file with
// no usable EXIF, or with the triple only partially present, yields
// nil - plenty of perfectly good TIFFs never saw a camera. A triple
// that's present but nonsense is an error.
func tiffExposure(filename string) (*ExposureValue, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file '%s': %v", ErrIO, filename, err)
	}
	defer f.Close()

	ex, err := exif.Decode(f)
	if err != nil {
		return nil, nil
	}

	isoTag, err1 := ex.Get(exif.ISOSpeedRatings)
	fnumTag, err2 := ex.Get(exif.FNumber)
	timeTag, err3 := ex.Get(exif.ExposureTime)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, nil
	}

	ev := ExposureValue{}

	if val, err := isoTag.Int64(0); err != nil {
		return nil, fmt.Errorf("%w: exif ISO '%s': %v", ErrInvalidFormat, filename, err)
	} else {
		ev.ISO = val
	}

	if num, denom, err := fnumTag.Rat2(0); err != nil {
		return nil, fmt.Errorf("%w: exif FNumber '%s': %v", ErrInvalidFormat, filename, err)
	} else {
		switch denom {
		case 10:
			ev.ApertureX10 = num
		case 5:
			ev.ApertureX10 = num * 2
		case 1:
			ev.ApertureX10 = num * 10
		default:
			return nil, fmt.Errorf("%w: exif FNumber denom '%s' unhandled '%d/%d'", ErrInvalidFormat, filename, num, denom)
		}
	}

	if num, denom, err := timeTag.Rat2(0); err != nil {
		return nil, fmt.Errorf("%w: exif ExposureTime '%s': %v", ErrInvalidFormat, filename, err)
	} else {
		ev.ShutterSpeed = rat64{num, denom}
	}

	// Exposure compensation is ignored on purpose: the triple fully
	// defines how much light exposes a pixel.

	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: image '%s' EV: %v", ErrInvalidFormat, filename, err)
	}
	return &ev, nil
}
