package tensor

import(
	"fmt"
	"math"
)

// FormatHWC is the layout tag for channel-interleaved row-major
// storage: sample (h,w,c) lives at index (h*W + w)*C + c.
const FormatHWC = "hwc"

// A Tensor is a dense 3-dimensional grid of float32 samples, used to
// hold a scene-referred image in memory. The dims are (height, width,
// channels), and the Format tag says how the flat Values slice is
// laid out. The tensor knows nothing about file formats or color
// spaces - codecs populate it, filters read it.
type Tensor struct {
	Dims     [3]int
	Format   string
	Values []float32
}

// New allocates a tensor with the given shape and layout tag.
func New(dims [3]int, format string) *Tensor {
	return &Tensor{
		Dims:   dims,
		Format: format,
		Values: make([]float32, dims[0]*dims[1]*dims[2]),
	}
}

// NewHWC allocates a (height, width, channels) tensor in the standard
// interleaved layout.
func NewHWC(h, w, c int) *Tensor { return New([3]int{h, w, c}, FormatHWC) }

func (t *Tensor)NDims() int     { return 3 }
func (t *Tensor)Height() int    { return t.Dims[0] }
func (t *Tensor)Width() int     { return t.Dims[1] }
func (t *Tensor)Channels() int  { return t.Dims[2] }
func (t *Tensor)NumValues() int { return len(t.Values) }

// At and SetAt give linear indexed access, for callers that walk the
// flat storage directly.
func (t *Tensor)At(i int) float32         { return t.Values[i] }
func (t *Tensor)SetAt(i int, v float32)   { t.Values[i] = v }

// Get and Set address a sample by (row, column, channel), assuming
// the hwc layout.
func (t *Tensor)Get(h, w, c int) float32 {
	return t.Values[(h*t.Dims[1]+w)*t.Dims[2]+c]
}
func (t *Tensor)Set(h, w, c int, v float32) {
	t.Values[(h*t.Dims[1]+w)*t.Dims[2]+c] = v
}

// IsRGB says whether the tensor is something we can treat as a color
// image: three interleaved channels.
func (t *Tensor)IsRGB() bool {
	return t.NDims() == 3 && t.Dims[2] == 3 && t.Format == FormatHWC
}

// Scale multiplies every sample by k, in place. This is how an
// exposure multiplier gets applied.
func (t *Tensor)Scale(k float32) {
	for i := range t.Values {
		t.Values[i] *= k
	}
}

func (t *Tensor)String() string {
	min, max := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, v := range t.Values {
		if v > max { max = v }
		if v < min { min = v }
	}
	if len(t.Values) == 0 { min, max = 0, 0 }
	return fmt.Sprintf("tensor[%dx%dx%d %s, vals{%f,%f}]",
		t.Dims[0], t.Dims[1], t.Dims[2], t.Format, min, max)
}
