package expose

import(
	"fmt"
	"log"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/hdr-expose/pkg/autoexposure"
	"github.com/abworrall/hdr-expose/pkg/tensor"
)

type Config struct {
	Verbosity       int

	Exposure        string  // "auto", or a fixed multiplier like "0.25"
	Workers         int     // 0 means one per CPU

	Tonemapper      string  // a tonemap.Tonemappers name, "all", or "" for no LDR output
	OutputFilename  string
	PreviewFilename string  // small annotated PNG, "" to skip
	HeatmapFilename string  // false-color luminance PNG, "" to skip
	PreviewMaxDim   int

	ShowStats       bool
}

func NewConfig() Config {
	return Config{
		Exposure:      "auto",
		Tonemapper:    "linear",
		PreviewMaxDim: 512,
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// exposureFor resolves the Exposure setting against an image: either
// the fixed multiplier it names, or an estimate from the image.
func (c Config)exposureFor(img *tensor.Tensor) (float32, error) {
	if c.Exposure == "" || c.Exposure == "auto" {
		if c.Workers > 0 {
			return autoexposure.EstimateN(img, c.Workers), nil
		}
		return autoexposure.Estimate(img), nil
	}

	v, err := strconv.ParseFloat(c.Exposure, 32)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("exposure must be 'auto' or a positive number, not '%s'", c.Exposure)
	}
	return float32(v), nil
}
