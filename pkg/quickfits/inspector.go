package quickfits

import(
	"fmt"
	"math"
	"strings"

	"github.com/codahale/hdrhistogram"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/quickfits/pkg/samples"
	"github.com/abworrall/quickfits/pkg/stretch"
)

// Linear values are recorded into the percentile histograms as
// fractions of full scale, in units of 1/linearUnits.
const linearUnits = 65535

// ChannelStats describes one channel, before and after stretching.
type ChannelStats struct {
	// Linear input, as a fraction of full scale
	Mean, StdDev     float64
	P01, P50, P99    float64
	Max              float64

	Params           *stretch.Params

	// 8 bit output
	OutMean          float64
	OutHist         *histogram.Histogram
}

// An Inspector is an Observer that gathers statistics about a preview
// as it goes through the pipeline. Use one per preview.
type Inspector struct {
	Filename  string
	In, Out   samples.Descriptor
	Pattern   string
	Factor    int
	Channels  []ChannelStats
	MeanColor colorful.Color  // of the output; grey for mono
}

func (in *Inspector)Observe(e Event) {
	switch e.Stage {
	case StageIngested:
		in.Filename = e.Filename
		in.In = e.Shape
		in.Pattern = e.Pattern.String()
		in.Factor = e.Factor

	case StagePrepared:
		in.inspectLinear(e)

	case StageStretched:
		for i := range e.Params {
			if i < len(in.Channels) {
				p := e.Params[i]
				in.Channels[i].Params = &p
			}
		}

	case StagePacked:
		in.Out = e.Shape
		in.inspectOutput(e)
	}
}

func (in *Inspector)inspectLinear(e Event) {
	nc := e.Shape.Nc
	bounds := e.Linear.Bounds()
	n := bounds.Dx() * bounds.Dy()

	vals := make([][]float64, nc)
	hists := make([]*hdrhistogram.Histogram, nc)
	for ch := range vals {
		vals[ch] = make([]float64, 0, n)
		hists[ch] = hdrhistogram.New(0, linearUnits, 3)
	}

	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			r, g, b, _ := e.Linear.HDRAt(x, y).HDRRGBA()
			rgb := []float64{r, g, b}
			for ch:=0; ch<nc; ch++ {
				vals[ch] = append(vals[ch], rgb[ch])
				hists[ch].RecordValue(int64(math.Round(clamp01(rgb[ch]) * linearUnits)))
			}
		}
	}

	in.Channels = make([]ChannelStats, nc)
	for ch := range in.Channels {
		cs := &in.Channels[ch]
		cs.Mean, cs.StdDev = stat.MeanStdDev(vals[ch], nil)
		cs.P01 = float64(hists[ch].ValueAtQuantile(1)) / linearUnits
		cs.P50 = float64(hists[ch].ValueAtQuantile(50)) / linearUnits
		cs.P99 = float64(hists[ch].ValueAtQuantile(99)) / linearUnits
		cs.Max = float64(hists[ch].Max()) / linearUnits
	}
}

func (in *Inspector)inspectOutput(e Event) {
	nc := e.Shape.Nc
	n := e.Shape.PlaneSize()
	if n == 0 || len(in.Channels) != nc {
		return
	}

	sums := make([]float64, nc)
	for ch := range in.Channels {
		in.Channels[ch].OutHist = &histogram.Histogram{NumBuckets:32, ValMin:0, ValMax:256}
	}
	for i:=0; i<n; i++ {
		for ch:=0; ch<nc; ch++ {
			v := e.Pixels[i*nc+ch]
			sums[ch] += float64(v)
			in.Channels[ch].OutHist.Add(histogram.ScalarVal(int(v)))
		}
	}
	for ch := range in.Channels {
		in.Channels[ch].OutMean = sums[ch] / float64(n)
	}

	if nc == 1 {
		g := in.Channels[0].OutMean / 255
		in.MeanColor = colorful.Color{R:g, G:g, B:g}
	} else {
		in.MeanColor = colorful.Color{
			R: in.Channels[0].OutMean / 255,
			G: in.Channels[1].OutMean / 255,
			B: in.Channels[2].OutMean / 255,
		}
	}
}

func (in *Inspector)String() string {
	str := fmt.Sprintf("%s: in=%s out=%s mosaic=%s decimate=%d mean=%s\n",
		in.Filename, in.In, in.Out, in.Pattern, in.Factor, in.MeanColor.Hex())

	names := []string{"R", "G", "B"}
	if len(in.Channels) == 1 {
		names = []string{"L"}
	}
	for i, cs := range in.Channels {
		str += fmt.Sprintf("  %s: mean=%.4f sd=%.4f p1=%.4f p50=%.4f p99=%.4f max=%.4f -> out mean=%.1f\n",
			names[i], cs.Mean, cs.StdDev, cs.P01, cs.P50, cs.P99, cs.Max, cs.OutMean)
		if cs.Params != nil {
			str += fmt.Sprintf("     %s\n", cs.Params)
		}
		if cs.OutHist != nil {
			str += "     " + strings.TrimSpace(fmt.Sprintf("%v", cs.OutHist)) + "\n"
		}
	}
	return str
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}
