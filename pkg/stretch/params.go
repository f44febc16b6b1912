package stretch

// This is an auto-stretch in the style of KStars / PixInsight STF: a
// midtone transfer function whose shadow, highlight & midtone points
// come from the median and the median absolute deviation of the channel,
// so a few hot pixels or satellite trails can't drag it around. See
// section 8.5.7 of https://pixinsight.com/doc/docs/XISF-1.0-spec/XISF-1.0-spec.html

import(
	"fmt"
	"math"

	"github.com/abworrall/quickfits/pkg/samples"
)

const(
	// Above this many pixels, statistics are computed over every Nth sample.
	MaxStatSamples = 500000

	// How many normalized MADNs the shadow (or highlight) point sits from the median.
	ClipMADNs = 2.8

	// Where we want the median to land after stretching, in [0,1].
	TargetBackground = 0.25

	// Scales the MAD into an estimator of the standard deviation, for normal data.
	madToSigma = 1.4826

	maxOutput = 255
)

// Params holds the stretch for one channel. Shadows, Highlights and
// Midtones are in [0,1]; InputRange is the full-scale input value
// (e.g. 65536 for 16 bit samples).
type Params struct {
	Shadows     float64 `yaml:"shadows"`
	Highlights  float64 `yaml:"highlights"`
	Midtones    float64 `yaml:"midtones"`
	InputRange  int     `yaml:"inputrange"`
}

// Identity params leave the data linear: 0 stays 0, the top of the
// input range maps to 255.
func Identity(inputRange int) Params {
	return Params{Shadows:0, Highlights:1, Midtones:0.5, InputRange:inputRange}
}

func (p Params)String() string {
	return fmt.Sprintf("stretch{s=%.6f, h=%.6f, m=%.6f, range=%d}", p.Shadows, p.Highlights, p.Midtones, p.InputRange)
}

// MaxInput is the largest input value the params expect.
func (p Params)MaxInput() float64 {
	if p.InputRange > 1 {
		return float64(p.InputRange - 1)
	}
	return float64(p.InputRange)
}

// InputRange gives the full-scale value for a FITS bit depth. Integer
// data knows its range; for anything else it is guessed from the
// largest sample seen.
func InputRange(bitDepth int, maxSample float64) int {
	switch bitDepth {
	case 8:  return 256
	case 16: return 65536
	}

	switch {
	case maxSample > 256: return 65536
	case maxSample > 1:   return 256
	}
	return 1
}

// Stats is what ComputeParams found out about the channel, before
// deciding on a stretch.
type Stats struct {
	NumSamples  int
	Stride      int
	Median      float64
	MAD         float64
	Max         float64
	NormMedian  float64
	MADN        float64
}

// ComputeParams derives the auto-stretch for a single plane.
func ComputeParams[T samples.Sample](plane []T, bitDepth int) Params {
	p, _ := ComputeParamsWithStats(plane, bitDepth)
	return p
}

func ComputeParamsWithStats[T samples.Sample](plane []T, bitDepth int) (Params, Stats) {
	st := sampleStats(plane)

	inputRange := InputRange(bitDepth, st.Max)
	scale := Identity(inputRange).MaxInput()

	st.NormMedian = st.Median / scale
	st.MADN = madToSigma * st.MAD / scale

	return paramsFromStats(st.NormMedian, st.MADN, inputRange), st
}

// sampleStats finds median, MAD and max over every Stride'th sample.
func sampleStats[T samples.Sample](plane []T) Stats {
	n := len(plane)
	stride := 1
	if n >= MaxStatSamples {
		stride = n / MaxStatSamples
	}
	numSamples := n / stride
	if numSamples == 0 {
		return Stats{Stride:stride}
	}

	vals := make([]T, numSamples)
	for i:=0; i<numSamples; i++ {
		vals[i] = plane[i*stride]
	}
	_, maxSample := samples.MinMax(vals)

	med := median(vals)

	// Reuse vals for the deviations. Unsigned, so no subtracting the wrong way round.
	for i, v := range vals {
		if med > v {
			vals[i] = med - v
		} else {
			vals[i] = v - med
		}
	}
	mad := median(vals)

	return Stats{
		NumSamples: numSamples,
		Stride:     stride,
		Median:     float64(med),
		MAD:        float64(mad),
		Max:        float64(maxSample),
	}
}

func paramsFromStats(normMedian, madn float64, inputRange int) Params {
	// A flat channel has nothing to stretch.
	if madn == 0 {
		return Identity(inputRange)
	}

	upperHalf := normMedian > 0.5

	shadows := 0.0
	if !upperHalf {
		shadows = clamp01(normMedian - ClipMADNs*madn)
	}

	highlights := 1.0
	if upperHalf {
		highlights = clamp01(normMedian + ClipMADNs*madn)
	}

	var x, m float64
	if upperHalf {
		x, m = TargetBackground, highlights - normMedian
	} else {
		x, m = normMedian - shadows, TargetBackground
	}

	return Params{
		Shadows:    shadows,
		Highlights: highlights,
		Midtones:   midtonesBalance(x, m),
		InputRange: inputRange,
	}
}

// midtonesBalance solves the MTF for the midtones parameter that maps x to m.
func midtonesBalance(x, m float64) float64 {
	switch {
	case x == 0: return 0
	case x == m: return 0.5
	case x == 1: return 1
	}
	return ((m - 1) * x) / ((2*m - 1)*x - m)
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}
