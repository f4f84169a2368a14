package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abworrall/hdr-expose/pkg/tensor"
)

func writeTemp(t *testing.T, name string, contents []byte) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, contents, 0644); err != nil {
		t.Fatal(err)
	}
	return fn
}

// pfmFile builds a PFM byte stream: header tokens, one separator
// byte, then raw little-endian floats.
func pfmFile(header string, samples ...float32) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestLoadPFMRowOrder(t *testing.T) {
	// 2x2 single channel. The file stores the bottom image row first.
	fn := writeTemp(t, "img.pfm", pfmFile("Pf\n2 2\n-1.0\n", 1, 2, 3, 4))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if img.Height() != 2 || img.Width() != 2 || img.Channels() != 1 {
		t.Fatalf("got dims %v", img.Dims)
	}
	want := []float32{3, 4, 1, 2} // top row last in the file
	for i, w := range want {
		if img.Values[i] != w {
			t.Errorf("value %d = %g, want %g", i, img.Values[i], w)
		}
	}
}

func TestLoadPFMSingleRow(t *testing.T) {
	// With one row there is nothing to flip.
	fn := writeTemp(t, "img.pfm", pfmFile("Pf\n3 1\n-1.0\n", 5, 6, 7))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	for i, w := range []float32{5, 6, 7} {
		if img.Values[i] != w {
			t.Errorf("value %d = %g, want %g", i, img.Values[i], w)
		}
	}
}

func TestLoadPFMScale(t *testing.T) {
	fn := writeTemp(t, "img.pfm", pfmFile("Pf\n2 1\n-2.0\n", 1.5, -3))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if img.Values[0] != 3 || img.Values[1] != -6 {
		t.Errorf("scale not applied: got %v", img.Values)
	}
}

func TestLoadPFMThreeChannel(t *testing.T) {
	fn := writeTemp(t, "img.pfm", pfmFile("PF\n1 1\n-1.0\n", 0.25, 0.5, 0.75))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if !img.IsRGB() {
		t.Fatalf("PF file did not load as RGB: %v", img)
	}
	if img.Get(0, 0, 2) != 0.75 {
		t.Errorf("channel interleave broken: %v", img.Values)
	}
}

func TestLoadPFMHeaderWhitespace(t *testing.T) {
	// Any amount of whitespace may separate header tokens...
	fn := writeTemp(t, "img.pfm", pfmFile("Pf \n\t 2  \t1\n-1.0\n", 8, 9))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if img.Values[0] != 8 || img.Values[1] != 9 {
		t.Errorf("got %v", img.Values)
	}
}

func TestLoadPFMOneSeparatorByte(t *testing.T) {
	// ...but exactly one byte separates the scale from the pixels.
	// The first pixel's low byte is 0x20: if the loader skipped
	// whitespace there it would shear the whole payload.
	val := math.Float32frombits(0x3F800020)
	fn := writeTemp(t, "img.pfm", pfmFile("Pf\n1 1\n-1.0\n", val))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if math.Float32bits(img.Values[0]) != 0x3F800020 {
		t.Errorf("value = %08x, want 3f800020", math.Float32bits(img.Values[0]))
	}
}

func TestLoadPFMBigEndianRejected(t *testing.T) {
	fn := writeTemp(t, "img.pfm", pfmFile("Pf\n1 1\n1.0\n", 1))
	_, err := LoadPFM(fn)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
	if !strings.Contains(err.Error(), "big-endian") {
		t.Errorf("error doesn't say why: %v", err)
	}
}

func TestLoadPFMMalformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"bad magic", pfmFile("PX\n1 1\n-1.0\n", 1)},
		{"garbage width", pfmFile("Pf\nlots 1\n-1.0\n", 1)},
		{"trailing junk in width", pfmFile("Pf\n1x 1\n-1.0\n", 1)},
		{"zero height", pfmFile("Pf\n1 0\n-1.0\n", 1)},
		{"negative width", pfmFile("Pf\n-3 1\n-1.0\n", 1)},
		{"no pixels", pfmFile("Pf\n2 2\n-1.0\n")},
		{"truncated pixels", pfmFile("Pf\n2 2\n-1.0\n", 1, 2)},
		{"header only", []byte("Pf")},
		{"empty", []byte{}},
	}
	for _, c := range cases {
		fn := writeTemp(t, "img.pfm", c.data)
		if _, err := LoadPFM(fn); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%s: got %v, want ErrInvalidFormat", c.name, err)
		}
	}
}

func TestLoadPFMMissingFile(t *testing.T) {
	_, err := LoadPFM(filepath.Join(t.TempDir(), "nope.pfm"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("got %v, want ErrIO", err)
	}
	if !strings.Contains(err.Error(), "cannot open file") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestSavePFMHeaderAndRowOrder(t *testing.T) {
	img := tensor.NewHWC(2, 1, 3)
	copy(img.Values, []float32{1, 2, 3, 4, 5, 6}) // top row 1,2,3; bottom 4,5,6
	fn := filepath.Join(t.TempDir(), "out.pfm")
	if err := SavePFM(img, fn); err != nil {
		t.Fatalf("SavePFM: %v", err)
	}
	raw, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	want := pfmFile("PF\n1 2\n-1.0\n", 4, 5, 6, 1, 2, 3) // bottom row written first
	if !bytes.Equal(raw, want) {
		t.Errorf("file bytes:\n got %x\nwant %x", raw, want)
	}
}

func TestSavePFMRoundTrip(t *testing.T) {
	img := tensor.NewHWC(3, 2, 3)
	specials := []float32{
		0, float32(math.Copysign(0, -1)), 1, -1,
		math.Float32frombits(1),          // smallest subnormal
		math.Float32frombits(0x7F7FFFFF), // MaxFloat32
		1e-30, 1e30, 0.1,
		float32(math.Inf(1)), float32(math.Inf(-1)),
		42, 1e-7, 2.5e-7, 3.14159, -273.15, 65504, 1.0 / 3.0,
	}
	copy(img.Values, specials)

	fn := filepath.Join(t.TempDir(), "rt.pfm")
	if err := SavePFM(img, fn); err != nil {
		t.Fatalf("SavePFM: %v", err)
	}
	back, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if back.Dims != img.Dims {
		t.Fatalf("dims %v, want %v", back.Dims, img.Dims)
	}
	for i := range img.Values {
		if math.Float32bits(back.Values[i]) != math.Float32bits(img.Values[i]) {
			t.Errorf("value %d = %08x, want %08x", i,
				math.Float32bits(back.Values[i]), math.Float32bits(img.Values[i]))
		}
	}
}

func TestSavePFMNeedsThreeChannels(t *testing.T) {
	img := tensor.NewHWC(2, 2, 1)
	err := SavePFM(img, filepath.Join(t.TempDir(), "x.pfm"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), "3 channels") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestSavePFMUnwritableFile(t *testing.T) {
	img := tensor.NewHWC(1, 1, 3)
	err := SavePFM(img, filepath.Join(t.TempDir(), "no", "such", "dir", "x.pfm"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("got %v, want ErrIO", err)
	}
}

func TestPFMLargeDims(t *testing.T) {
	// A wide single-row image keeps the payload small while checking
	// the width path doesn't confuse itself.
	w := 1000
	samples := make([]float32, w)
	for i := range samples {
		samples[i] = float32(i)
	}
	fn := writeTemp(t, "wide.pfm", pfmFile(fmt.Sprintf("Pf\n%d 1\n-1.0\n", w), samples...))
	img, err := LoadPFM(fn)
	if err != nil {
		t.Fatalf("LoadPFM: %v", err)
	}
	if img.Width() != w || img.Values[999] != 999 {
		t.Errorf("got %dx%d, v[999]=%g", img.Width(), img.Height(), img.Values[999])
	}
}
