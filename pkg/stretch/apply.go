package stretch

import(
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/quickfits/pkg/samples"
)

// Apply runs the MTF over every sample of the plane (not just the ones
// the statistics looked at), writing 8 bit values into out.
func Apply[T samples.Sample](out []uint8, plane []T, p Params) {
	maxInput := p.MaxInput()

	// highlights - shadows, protecting for divide-by-0, in a 0->1.0 scale.
	hsRangeFactor := 1.0
	if p.Highlights != p.Shadows {
		hsRangeFactor = 1.0 / (p.Highlights - p.Shadows)
	}

	// Shadow and highlight points in the input's own units
	nativeShadows := p.Shadows * maxInput
	nativeHighlights := p.Highlights * maxInput

	k1 := (p.Midtones - 1) * hsRangeFactor * maxOutput / maxInput
	k2 := ((2 * p.Midtones) - 1) * hsRangeFactor / maxInput

	for i, s := range plane {
		v := float64(s)
		switch {
		case v < nativeShadows:
			out[i] = 0
		case v >= nativeHighlights:
			out[i] = maxOutput
		default:
			floored := v - nativeShadows
			denom := floored*k2 - p.Midtones
			if denom == 0 {
				// only when midtones==0 and v sits exactly on the shadow point
				out[i] = 0
				continue
			}
			out[i] = toByte(floored * k1 / denom)
		}
	}
}

func toByte(f float64) uint8 {
	switch {
	case f <= 0:         return 0
	case f >= maxOutput: return maxOutput
	}
	return uint8(f)
}

// A Mode picks how the params for each channel are chosen.
type Mode string

const(
	Auto   Mode = "auto"   // MTF from median & MAD
	Linear Mode = "linear" // just scale the input range onto [0,255]
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Auto, Linear:
		return Mode(s), nil
	case "":
		return Auto, nil
	}
	return "", fmt.Errorf("no stretch mode named '%s'", s)
}

// Run stretches every channel of buf, each on its own goroutine, and
// returns the 8 bit planes (same planar layout as buf) and the params
// used for each channel.
func Run[T samples.Sample](buf *samples.Buffer[T], bitDepth int, mode Mode) ([]uint8, []Params, error) {
	if mode != Auto && mode != Linear {
		return nil, nil, fmt.Errorf("no stretch mode named '%s'", mode)
	}

	out := make([]uint8, len(buf.Data))
	params := make([]Params, buf.Channels)
	n := buf.PlaneSize()

	var g errgroup.Group
	for ch:=0; ch<buf.Channels; ch++ {
		plane := buf.Plane(ch)
		dst := out[ch*n : (ch+1)*n]
		pp := &params[ch]

		g.Go(func() error {
			if mode == Linear {
				_, max := samples.MinMax(plane)
				*pp = Identity(InputRange(bitDepth, float64(max)))
			} else {
				*pp = ComputeParams(plane, bitDepth)
			}
			Apply(dst, plane, *pp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return out, params, nil
}
