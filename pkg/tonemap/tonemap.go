package tonemap

import(
	"fmt"
	"image"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"

	"github.com/abworrall/hdr-expose/pkg/imageio"
	"github.com/abworrall/hdr-expose/pkg/tensor"
)

var(
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// Tonemap runs the named operator over a linear HDR image and
// returns the display-ready LDR result.
func Tonemap(img *tensor.Tensor, name string) (image.Image, error) {
	op, err := Setup(imageio.HDRImage{T: img}, name)
	if err != nil {
		return nil, err
	}
	return op.Perform(), nil
}

// Tweak the tmo parameters to better handle exposure-normalized
// images. By default, they almost always overexpose on small but
// important bright areas.
func Setup(img hdr.Image, name string) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 1.0            // Otherwise the brightest regions blow out
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.Contrast    = 0.65
		op.MaxClipping = 0.99999 // Otherwise the brightest regions blow out
		return op, nil

	case "linear":
		return tmo.NewLinear(img), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Chromatic  = 0.005
		op.Light      = 0.005    // Otherwise the brightest regions blow out
		return op, nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted one of %s", name, ListTonemappers())
}
