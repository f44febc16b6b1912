package quickfits

import(
	"log"
	"time"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/quickfits/pkg/debayer"
	"github.com/abworrall/quickfits/pkg/samples"
	"github.com/abworrall/quickfits/pkg/stretch"
)

type Stage string

// The stages a preview goes through, in order. Reconstructed and
// Decimated only happen if there is work for them to do.
const(
	StageIngested      Stage = "ingested"      // header read, descriptors known
	StageDecoded       Stage = "decoded"       // samples read from the source
	StageReconstructed Stage = "reconstructed" // bayer mosaic turned into RGB planes
	StageDecimated     Stage = "decimated"
	StagePrepared      Stage = "prepared"      // linear data, ready to be stretched
	StageStretched     Stage = "stretched"
	StagePacked        Stage = "packed"        // final 8 bit output
)

// An Event describes the data as it leaves a stage. Fields that don't
// apply to the stage are left empty.
type Event struct {
	Stage      Stage
	Filename   string
	Shape      samples.Descriptor  // of the data at this point
	Pattern    debayer.Pattern
	Factor     int
	Elapsed    time.Duration       // time spent in this stage

	Linear     hdr.Image           // StagePrepared: unstretched view, full scale == 1.0
	Params   []stretch.Params      // StageStretched: one per channel (nil for tonemappers)
	Pixels   []uint8               // StagePacked: the interleaved output
}

// Observers are called synchronously, between stages. They must not
// hang on to Linear or Pixels after Observe returns.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc)Observe(e Event) { f(e) }

// LogObserver logs each stage via log.Printf.
type LogObserver struct {
	Verbosity int
}

func (lo LogObserver)Observe(e Event) {
	if lo.Verbosity <= 0 {
		return
	}

	switch e.Stage {
	case StageIngested:
		log.Printf("%s: %s, mosaic=%s, decimate=%d\n", e.Filename, e.Shape, e.Pattern, e.Factor)
	case StageStretched:
		log.Printf("%s: %-13s %s (%s)\n", e.Filename, e.Stage, e.Shape, e.Elapsed)
		if lo.Verbosity > 1 {
			for i, p := range e.Params {
				log.Printf("%s:   channel %d: %s\n", e.Filename, i, p)
			}
		}
	default:
		log.Printf("%s: %-13s %s (%s)\n", e.Filename, e.Stage, e.Shape, e.Elapsed)
	}
}
