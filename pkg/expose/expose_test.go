package expose

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abworrall/hdr-expose/pkg/imageio"
	"github.com/abworrall/hdr-expose/pkg/tensor"
)

func writePFM(t *testing.T, dir, name string, h, w int) string {
	t.Helper()
	img := tensor.NewHWC(h, w, 3)
	for i := range img.Values {
		img.Values[i] = 0.05 + float32(i%13)*0.11
	}
	fn := filepath.Join(dir, name)
	if err := imageio.SavePFM(img, fn); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestConfigYamlRoundTrip(t *testing.T) {
	c := NewConfig()
	c.Tonemapper = "drago03"
	c.Workers = 3
	c.ShowStats = true

	c2, err := newConfigFromYaml([]byte(c.AsYaml()))
	if err != nil {
		t.Fatal(err)
	}
	if c2 != c {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", c2, c)
	}
}

func TestConfigYamlKeepsDefaults(t *testing.T) {
	c, err := newConfigFromYaml([]byte("exposure: \"0.25\"\nshowstats: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Exposure != "0.25" || !c.ShowStats {
		t.Errorf("fields not applied: %+v", c)
	}
	if c.Tonemapper != "linear" || c.PreviewMaxDim != 512 {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestExposureFor(t *testing.T) {
	img := tensor.NewHWC(4, 4, 3)
	for i := range img.Values {
		img.Values[i] = 0.3
	}

	c := NewConfig()
	if v, err := c.exposureFor(img); err != nil || v <= 0 {
		t.Errorf("auto: v=%v err=%v", v, err)
	}

	c.Exposure = "2"
	if v, err := c.exposureFor(img); err != nil || v != 2 {
		t.Errorf("fixed: v=%v err=%v", v, err)
	}

	for _, bad := range []string{"0", "-1", "wat"} {
		c.Exposure = bad
		if _, err := c.exposureFor(img); err == nil {
			t.Errorf("exposure %q should be rejected", bad)
		}
	}
}

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePFM(t, sub, "a.pfm", 2, 2)
	writePFM(t, dir, "b.pfm", 2, 2)
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("verbosity: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWorkspace()
	if err := w.LoadFilesAndDirs(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Images) != 2 {
		t.Errorf("loaded %d images, want 2: %s", len(w.Images), w)
	}
	if w.Config.Verbosity != 1 {
		t.Errorf("yaml config not applied: %+v", w.Config)
	}
}

func TestLoadRejectsCorruptImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.pfm"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWorkspace()
	err := w.LoadFilesAndDirs(dir)
	if err == nil || !strings.Contains(err.Error(), "loadfile") {
		t.Errorf("want a loadfile error, got %v", err)
	}
}

func TestProcessWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	writePFM(t, dir, "in.pfm", 8, 8)

	w := NewWorkspace()
	if err := w.LoadFilesAndDirs(filepath.Join(dir, "in.pfm")); err != nil {
		t.Fatal(err)
	}
	w.Config.Exposure = "0.5"
	w.Config.OutputFilename = filepath.Join(dir, "out.png")
	w.Config.PreviewFilename = filepath.Join(dir, "preview.png")
	w.Config.HeatmapFilename = filepath.Join(dir, "heat.png")
	w.Config.PreviewMaxDim = 4

	if err := w.Process(); err != nil {
		t.Fatal(err)
	}
	if w.Images[0].Scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", w.Images[0].Scale)
	}

	f, err := os.Open(filepath.Join(dir, "out.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("output bounds = %v", b)
	}

	for _, fn := range []string{"preview.png", "heat.png"} {
		if _, err := os.Stat(filepath.Join(dir, fn)); err != nil {
			t.Errorf("missing %s: %v", fn, err)
		}
	}
}

func TestProcessHDROutput(t *testing.T) {
	dir := t.TempDir()
	writePFM(t, dir, "in.pfm", 4, 4)

	w := NewWorkspace()
	if err := w.LoadFilesAndDirs(filepath.Join(dir, "in.pfm")); err != nil {
		t.Fatal(err)
	}
	w.Config.Exposure = "1"
	w.Config.OutputFilename = filepath.Join(dir, "out.hdr")

	if err := w.Process(); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(dir, "out.hdr"))
	if err != nil || fi.Size() == 0 {
		t.Errorf("HDR output missing or empty: %v", err)
	}
}

func TestProcessDerivesNamesForMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	writePFM(t, dir, "a.pfm", 4, 4)
	writePFM(t, dir, "b.pfm", 4, 4)

	w := NewWorkspace()
	if err := w.LoadFilesAndDirs(dir); err != nil {
		t.Fatal(err)
	}
	w.Config.Exposure = "1"
	w.Config.OutputFilename = filepath.Join(dir, "ignored.png")

	if err := w.Process(); err != nil {
		t.Fatal(err)
	}
	for _, fn := range []string{"a-exposed.png", "b-exposed.png"} {
		if _, err := os.Stat(filepath.Join(dir, fn)); err != nil {
			t.Errorf("missing %s: %v", fn, err)
		}
	}
}
