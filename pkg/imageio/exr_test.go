//go:build !noexr

package imageio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abworrall/hdr-expose/pkg/exr"
	"github.com/abworrall/hdr-expose/pkg/tensor"
)

func TestEXRRegistered(t *testing.T) {
	for _, f := range Formats() {
		if f == "exr" {
			return
		}
	}
	t.Errorf("format %q not registered (have %v)", "exr", Formats())
}

func TestEXRRoundTripViaFacade(t *testing.T) {
	img := tensor.NewHWC(21, 13, 3) // odd sizes: partial final ZIP block
	for i := range img.Values {
		img.Values[i] = float32(i) * 0.0625
	}
	fn := filepath.Join(t.TempDir(), "rt.exr")
	if err := Save(img, fn); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(fn)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Dims != img.Dims {
		t.Fatalf("dims %v, want %v", back.Dims, img.Dims)
	}
	for i := range img.Values {
		if back.Values[i] != img.Values[i] {
			t.Fatalf("value %d = %g, want %g", i, back.Values[i], img.Values[i])
		}
	}
}

func TestSaveEXRNeedsThreeChannels(t *testing.T) {
	img := tensor.NewHWC(2, 2, 1)
	err := SaveEXR(img, filepath.Join(t.TempDir(), "x.exr"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), "3 channels") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestLoadEXRNeedsRGB(t *testing.T) {
	// Hand-build a two-channel file; the loader must refuse it.
	fn := filepath.Join(t.TempDir(), "rg.exr")
	f, err := os.Create(fn)
	if err != nil {
		t.Fatal(err)
	}
	h := exr.NewHeader(2, 2, exr.CompressionNone)
	h.AddChannel("R", exr.PixelTypeFloat)
	h.AddChannel("G", exr.PixelTypeFloat)
	w, err := exr.NewWriter(f, h)
	if err != nil {
		t.Fatal(err)
	}
	w.SetFrameBuffer(exr.FrameBuffer{})
	if err := w.WritePixels(2); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = LoadEXR(fn)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), "3 channels") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestLoadEXRGarbage(t *testing.T) {
	fn := writeTemp(t, "junk.exr", []byte("this is not an exr"))
	if _, err := LoadEXR(fn); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v, want ErrInvalidFormat", err)
	}
}
