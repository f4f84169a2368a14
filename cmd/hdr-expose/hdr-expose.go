package main

import(
	"flag"
	"log"

	"github.com/abworrall/hdr-expose/pkg/expose"
	"github.com/abworrall/hdr-expose/pkg/tonemap"
)

var(
	fVerbosity int
	fOutputFilename string
	fExposure string
	fWorkers int
	fTonemapper string
	fPreviewFilename string
	fHeatmapFilename string
	fPreviewMaxDim int
	fShowStats bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fOutputFilename, "o", "", "name of output image file (.png tonemaps, .pfm/.exr/.hdr stay HDR)")
	flag.StringVar(&fExposure, "exposure", "auto", "exposure multiplier: 'auto' to meter the image, or a number")
	flag.IntVar(&fWorkers, "workers", 0, "goroutines for exposure metering (0 = one per CPU)")
	flag.StringVar(&fTonemapper, "tonemapper", "linear", "how to tonemap from HDR to LDR: 'all', or one of "+tonemap.ListTonemappers())
	flag.StringVar(&fPreviewFilename, "preview", "", "also write a small annotated preview PNG here")
	flag.StringVar(&fHeatmapFilename, "heatmap", "", "also write a false-color luminance PNG here")
	flag.IntVar(&fPreviewMaxDim, "previewdim", 512, "max dimension of the preview image")
	flag.BoolVar(&fShowStats, "stats", false, "print luminance distribution stats per image")
	flag.Parse()

	log.Printf("hdr-expose starting\n")
}

func main() {
	w := expose.NewWorkspace()
	if err := w.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	w.Config.Verbosity = fVerbosity
	w.Config.Exposure = fExposure
	w.Config.Workers = fWorkers
	w.Config.Tonemapper = fTonemapper
	if fOutputFilename != "" { w.Config.OutputFilename = fOutputFilename }
	if fPreviewFilename != "" { w.Config.PreviewFilename = fPreviewFilename }
	if fHeatmapFilename != "" { w.Config.HeatmapFilename = fHeatmapFilename }
	if fPreviewMaxDim > 0 { w.Config.PreviewMaxDim = fPreviewMaxDim }
	w.Config.ShowStats = fShowStats

	if w.Config.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", w.Config.AsYaml())
		log.Printf("Images loaded: %s", w)
	}

	if err := w.Process(); err != nil {
		log.Fatal(err)
	}
}
