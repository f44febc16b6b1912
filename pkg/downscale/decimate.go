package downscale

// Integer-factor shrinking of planar buffers, for previews.

import(
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/quickfits/pkg/samples"
)

// Decimate keeps every factor'th sample along each axis, starting at
// (0,0). There is no averaging or anti-aliasing; for a thumbnail the
// speed is worth more than the quality. Planes are processed
// independently and stay in the same order.
//
// A factor of 1 hands back the source buffer as-is.
func Decimate[T samples.Sample](src *samples.Buffer[T], factor int) (*samples.Buffer[T], error) {
	if src.Channels != 1 && src.Channels != 3 {
		return nil, fmt.Errorf("%w: %d channels, want 1 or 3", samples.ErrMalformedShape, src.Channels)
	}
	if factor < 1 {
		return nil, fmt.Errorf("%w: decimation factor %d", samples.ErrMalformedShape, factor)
	}
	if factor == 1 {
		return src, nil
	}

	newW, newH := src.Width/factor, src.Height/factor
	if newW == 0 || newH == 0 {
		return nil, fmt.Errorf("%w: %dx%d is too small to decimate by %d", samples.ErrMalformedShape,
			src.Width, src.Height, factor)
	}

	dst := samples.New[T](newW, newH, src.Channels)

	var g errgroup.Group
	for ch:=0; ch<src.Channels; ch++ {
		in, out := src.Plane(ch), dst.Plane(ch)
		g.Go(func() error {
			decimatePlane(out, in, src.Width, newW, newH, factor)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dst, nil
}

func decimatePlane[T samples.Sample](out, in []T, width, newW, newH, factor int) {
	for i, iout := 0, 0; iout < newH; i, iout = i+factor, iout+1 {
		for j, jout := 0, 0; jout < newW; j, jout = j+factor, jout+1 {
			out[iout*newW + jout] = in[i*width + j]
		}
	}
}

// FactorFor picks the smallest integer factor that brings the longest
// side of a w x h image down to maxSize or less. maxSize <= 0 means no
// limit.
func FactorFor(w, h, maxSize int) int {
	if maxSize <= 0 {
		return 1
	}
	longest := w
	if h > longest {
		longest = h
	}
	f := (longest + maxSize - 1) / maxSize
	if f < 1 {
		return 1
	}
	return f
}
