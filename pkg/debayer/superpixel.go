package debayer

import(
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/quickfits/pkg/samples"
)

// Reconstruct turns a single channel CFA buffer into a 3 plane RGB
// buffer by super-pixel binning: each 2x2 tile becomes one pixel. A
// factor > 1 also skips tiles, so the output is
// floor(w/(2f)) x floor(h/(2f)). Skipping rather than averaging is
// deliberate; binning more samples is too slow to pay off for a
// thumbnail.
//
// The source buffer is not modified; the caller can drop it once this
// returns.
func Reconstruct[T samples.Sample](src *samples.Buffer[T], p Pattern, factor int) (*samples.Buffer[T], error) {
	lo, exists := layouts[p]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPattern, string(p))
	}
	if src.Channels != 1 {
		return nil, fmt.Errorf("%w: mosaic input has %d channels, want 1", samples.ErrMalformedShape, src.Channels)
	}
	if factor < 1 {
		return nil, fmt.Errorf("%w: decimation factor %d", samples.ErrMalformedShape, factor)
	}

	step := 2 * factor
	outW, outH := src.Width/step, src.Height/step
	if outW == 0 || outH == 0 {
		return nil, fmt.Errorf("%w: %dx%d is too small for a %dx%d tile step", samples.ErrMalformedShape,
			src.Width, src.Height, step, step)
	}

	dst := samples.New[T](outW, outH, 3)

	// Each plane is written by its own goroutine; they share the source read-only.
	var g errgroup.Group
	g.Go(func() error { fillPlane(dst.Plane(0), src, step, pick[T](lo.R)); return nil })
	g.Go(func() error { fillPlane(dst.Plane(1), src, step, average[T](lo.G)); return nil })
	g.Go(func() error { fillPlane(dst.Plane(2), src, step, pick[T](lo.B)); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dst, nil
}

// A selector extracts one output value from the 2x2 tile at offset i.
type selector[T samples.Sample] func(data []T, i, width int) T

func offset(s site, i, width int) int {
	switch s {
	case right:     return i + 1
	case down:      return i + width
	case downRight: return i + width + 1
	}
	return i
}

func pick[T samples.Sample](s site) selector[T] {
	return func(data []T, i, width int) T {
		return data[offset(s, i, width)]
	}
}

// average rounds toward zero when converting back, so integer samples
// truncate, e.g. (3+4)/2 = 3.
func average[T samples.Sample](s [2]site) selector[T] {
	return func(data []T, i, width int) T {
		a := float64(data[offset(s[0], i, width)])
		b := float64(data[offset(s[1], i, width)])
		return T((a + b) / 2)
	}
}

func fillPlane[T samples.Sample](out []T, src *samples.Buffer[T], step int, sel selector[T]) {
	outW := src.Width / step
	outH := src.Height / step
	for iout:=0; iout<outH; iout++ {
		row := iout * step
		for jout:=0; jout<outW; jout++ {
			col := jout * step
			out[iout*outW + jout] = sel(src.Data, row*src.Width + col, src.Width)
		}
	}
}
