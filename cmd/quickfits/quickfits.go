package main

// quickfits renders 8 bit previews of FITS files. Args are files, dirs
// (searched recursively) and optionally a .yaml file with a base config;
// any flags given explicitly override the base config.
//
//   quickfits -maxsize 512 -caption ~/astro/2024-08-*/

import(
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/abworrall/quickfits/pkg/quickfits"
	"github.com/abworrall/quickfits/pkg/raster"
)

var(
	fVerbosity int
	fDownscale int
	fMaxSize int
	fStretch string
	fUnknownMosaic string
	fLegacyGBRG bool
	fFlipVertical bool

	fFormat string
	fOutDir string
	fCaption bool
	fDumpHDR bool
	fWorkers int
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.IntVar(&fDownscale, "downscale", 0, "decimate by this integer factor")
	flag.IntVar(&fMaxSize, "maxsize", 0, "if no -downscale, decimate until the longest side is <= this many pixels")
	flag.StringVar(&fStretch, "stretch", "auto", "how to stretch to 8 bits: auto, linear, or a tonemapper: "+quickfits.ListTonemappers())
	flag.StringVar(&fUnknownMosaic, "unknownmosaic", quickfits.MosaicIgnore, "if BAYERPAT is unrecognized: ignore, or fail")
	flag.BoolVar(&fLegacyGBRG, "legacygbrg", false, "debayer GBRG as if it were GRBG")
	flag.BoolVar(&fFlipVertical, "flip", false, "flip rows (and the bayer pattern) before processing")

	flag.StringVar(&fFormat, "format", "png", "output format: png or tiff")
	flag.StringVar(&fOutDir, "outdir", "", "where to write previews (default: next to each input)")
	flag.BoolVar(&fCaption, "caption", false, "write the filename & shape into the top of the preview")
	flag.BoolVar(&fDumpHDR, "hdr", false, "also write the unstretched data as a Radiance .hdr file")
	flag.IntVar(&fWorkers, "j", runtime.NumCPU(), "how many files to work on at once")
	flag.Parse()

	log.Printf("quickfits starting\n")
}

// applyFlags copies over only the flags that were actually set, so a
// base config loaded from yaml isn't clobbered by defaults.
func applyFlags(cfg *quickfits.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":             cfg.Verbosity = fVerbosity
		case "downscale":     cfg.Downscale = fDownscale
		case "maxsize":       cfg.MaxPreviewSize = fMaxSize
		case "stretch":       cfg.Stretch = fStretch
		case "unknownmosaic": cfg.UnknownMosaic = fUnknownMosaic
		case "legacygbrg":    cfg.LegacyGBRG = fLegacyGBRG
		case "flip":          cfg.FlipVertical = fFlipVertical
		}
	})
}

func main() {
	b := quickfits.NewBatch()
	if err := b.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	applyFlags(&b.Config)
	if err := b.Config.Finalize(); err != nil {
		log.Fatal(err)
	}

	if b.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", b.Config.AsYaml())
	}
	if len(b.Filenames) == 0 {
		log.Fatal("no FITS files found")
	}

	nFail := 0
	results := b.Run(fWorkers, func(filename string) error { return render(filename, b.Config) })
	for _, r := range results {
		if r.Err != nil {
			log.Printf("%v\n", r.Err)
			nFail++
		}
	}

	log.Printf("%d previews written, %d failed\n", len(b.Filenames)-nFail, nFail)
}

func outputName(filename, ext string) string {
	dir := fOutDir
	if dir == "" {
		dir = filepath.Dir(filename)
	}
	return filepath.Join(dir, quickfits.BaseName(filename) + "-preview." + ext)
}

func render(filename string, cfg quickfits.Config) error {
	observers := []quickfits.Observer{quickfits.LogObserver{Verbosity:cfg.Verbosity}}

	if fDumpHDR {
		hdrFile := outputName(filename, "hdr")
		observers = append(observers, quickfits.ObserverFunc(func(e quickfits.Event) {
			if e.Stage != quickfits.StagePrepared {
				return
			}
			if err := raster.WriteHDR(e.Linear, hdrFile); err != nil {
				log.Printf("%s: %v\n", hdrFile, err)
			}
		}))
	}

	p, err := quickfits.Create(filename, cfg, observers...)
	if err != nil {
		return err
	}
	defer p.Close()

	img, err := p.Image()
	if err != nil {
		return err
	}

	if fCaption {
		in := p.InputDescriptor()
		img = raster.Annotate(img, fmt.Sprintf("%s  %dx%d  %s", filepath.Base(filename), in.Nx, in.Ny, p.Pattern()))
	}

	ext := strings.ToLower(fFormat)
	if ext == "tiff" {
		ext = "tif"
	}
	outFile := outputName(filename, ext)
	if err := raster.Write(img, outFile, fFormat); err != nil {
		return err
	}

	if cfg.Verbosity > 0 {
		log.Printf("%s: wrote %s (%s)\n", filename, outFile, p.OutputDescriptor())
	}
	return nil
}
