package quickfits

import(
	"fmt"
	"time"

	"github.com/abworrall/quickfits/pkg/debayer"
	"github.com/abworrall/quickfits/pkg/downscale"
	"github.com/abworrall/quickfits/pkg/raster"
	"github.com/abworrall/quickfits/pkg/samples"
	"github.com/abworrall/quickfits/pkg/stretch"
)

// run takes the samples through every stage. Each stage hands a new
// buffer to the next; nothing is shared between them.
func run[T samples.Sample](p *Preview, pixData []byte, read func() ([]T, error)) error {
	tStart := time.Now()
	data, err := read()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", p.Filename, ErrDecodeFailure, err)
	}
	buf, err := samples.Wrap(data, p.in.Nx, p.in.Ny, p.in.Nc)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Filename, err)
	}
	if p.FlipVertical {
		buf.FlipVertical()
	}
	p.notify(Event{Stage:StageDecoded, Shape:buf.Descriptor(p.in.BitDepth)}, tStart)

	if p.mosaic() {
		tStart = time.Now()
		if buf, err = debayer.Reconstruct(buf, p.pattern, p.factor); err != nil {
			return fmt.Errorf("%s: %w", p.Filename, err)
		}
		p.notify(Event{Stage:StageReconstructed, Shape:buf.Descriptor(p.in.BitDepth)}, tStart)

	} else if p.factor > 1 {
		tStart = time.Now()
		if buf, err = downscale.Decimate(buf, p.factor); err != nil {
			return fmt.Errorf("%s: %w", p.Filename, err)
		}
		p.notify(Event{Stage:StageDecimated, Shape:buf.Descriptor(p.in.BitDepth)}, tStart)
	}

	if buf.Width != p.out.Nx || buf.Height != p.out.Ny || buf.Channels != p.out.Nc {
		return fmt.Errorf("%s: %w: pipeline made %s, expected %s", p.Filename, samples.ErrMalformedShape,
			buf.Descriptor(samples.OutputBitDepth), p.out)
	}

	// Full scale, for the linear view
	_, maxSample := samples.MinMax(buf.Data)
	scale := stretch.Identity(stretch.InputRange(p.in.BitDepth, float64(maxSample))).MaxInput()
	linear := raster.NewLinear(buf, scale)
	p.notify(Event{Stage:StagePrepared, Shape:buf.Descriptor(p.in.BitDepth), Linear:linear}, time.Now())

	tStart = time.Now()
	var planar []uint8
	var params []stretch.Params
	if IsTonemapper(p.Stretch) {
		planar, err = tonemap(p.Stretch, linear, buf.Channels)
	} else {
		planar, params, err = stretch.Run(buf, p.in.BitDepth, stretch.Mode(p.Stretch))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", p.Filename, err)
	}
	p.notify(Event{Stage:StageStretched, Shape:p.out, Params:params}, tStart)

	tStart = time.Now()
	if err := raster.Pack(pixData, planar, p.out); err != nil {
		return fmt.Errorf("%s: %w", p.Filename, err)
	}
	p.notify(Event{Stage:StagePacked, Shape:p.out, Pixels:pixData}, tStart)

	return nil
}
