package main

// fitsstats prints what quickfits sees in each FITS file: the header,
// the descriptors, and per channel statistics before and after the
// stretch.

import(
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abworrall/quickfits/pkg/quickfits"
)

var(
	fVerbosity int
	fHeader bool
	fStretch string
	fMaxSize int
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.BoolVar(&fHeader, "header", false, "print the header cards too")
	flag.StringVar(&fStretch, "stretch", "auto", "auto, linear, or a tonemapper: "+quickfits.ListTonemappers())
	flag.IntVar(&fMaxSize, "maxsize", 0, "decimate until the longest side is <= this many pixels")
	flag.Parse()
}

func main() {
	b := quickfits.NewBatch()
	if err := b.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":       b.Verbosity = fVerbosity
		case "stretch": b.Stretch = fStretch
		case "maxsize": b.MaxPreviewSize = fMaxSize
		}
	})
	if err := b.Config.Finalize(); err != nil {
		log.Fatal(err)
	}

	for _, filename := range b.Filenames {
		insp := &quickfits.Inspector{}
		p, err := quickfits.Create(filename, b.Config, insp, quickfits.LogObserver{Verbosity:b.Verbosity})
		if err != nil {
			log.Printf("%v\n", err)
			continue
		}

		if fHeader {
			for _, card := range strings.Split(strings.TrimSuffix(p.HeaderText(), "; "), "; ") {
				fmt.Printf("  %s\n", card)
			}
		}

		if _, err := p.Image(); err != nil {
			log.Printf("%v\n", err)
		} else {
			fmt.Print(insp)
		}
		p.Close()
	}
}
