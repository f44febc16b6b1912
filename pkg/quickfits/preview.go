// Package quickfits turns FITS images into small 8 bit previews: it
// reads the image, debayers or decimates it, auto-stretches each
// channel and packs the result into the byte layout a thumbnailer
// wants.
package quickfits

import(
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/abworrall/quickfits/pkg/debayer"
	"github.com/abworrall/quickfits/pkg/downscale"
	"github.com/abworrall/quickfits/pkg/fitsfile"
	"github.com/abworrall/quickfits/pkg/raster"
	"github.com/abworrall/quickfits/pkg/samples"
)

var(
	ErrDecodeFailure = errors.New("could not decode image")
	ErrBufferSize    = errors.New("output buffer has the wrong size")
	ErrClosed        = errors.New("preview is closed")
)

// A Source is where the samples come from; usually a FITS file.
type Source interface {
	Shape() samples.Descriptor
	Mosaic() string                 // raw BAYERPAT value, or ""
	HeaderText() string
	Float() bool                    // whether to call ReadFloat32 rather than ReadUint16
	ReadUint16() ([]uint16, error)
	ReadFloat32() ([]float32, error)
	Close() error
}

// A Preview is the handle for one image. Create it, ask it for the
// descriptors, call Pixels once, then Close it.
type Preview struct {
	Config
	Filename   string

	src        Source
	pattern    debayer.Pattern  // None unless we're going to debayer
	factor     int              // decimation, >= 1
	in         samples.Descriptor
	out        samples.Descriptor
	observers  []Observer
}

// Create opens a FITS file, and works out the shape of the preview. No
// pixels are read.
func Create(filename string, cfg Config, observers ...Observer) (*Preview, error) {
	f, err := fitsfile.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	p, err := New(filename, f, cfg, observers...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// New is Create for an already opened Source. The Preview owns src from
// here on, if there is no error.
func New(filename string, src Source, cfg Config, observers ...Observer) (*Preview, error) {
	tStart := time.Now()

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	p := Preview{
		Config:    cfg,
		Filename:  filename,
		src:       src,
		in:        src.Shape(),
		observers: observers,
	}

	if err := p.in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if err := p.resolvePattern(src.Mosaic()); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	p.factor = p.decimation()
	p.out = p.outputDescriptor()
	if p.out.Nx == 0 || p.out.Ny == 0 {
		return nil, fmt.Errorf("%s: %w: %s is too small for a preview (mosaic=%s, decimate=%d)",
			filename, samples.ErrMalformedShape, p.in, p.pattern, p.factor)
	}

	p.notify(Event{Stage:StageIngested, Shape:p.in}, tStart)

	return &p, nil
}

// resolvePattern decides whether to debayer. Only single channel images
// can be mosaics; a BAYERPAT on anything else is ignored.
func (p *Preview)resolvePattern(code string) error {
	p.pattern = debayer.None
	if p.in.Nc != 1 || code == "" {
		return nil
	}

	pat, err := debayer.ParsePattern(code)
	if err != nil {
		if p.UnknownMosaic == MosaicFail {
			return err
		}
		return nil // MosaicIgnore: treat it as a plain mono image
	}

	if p.LegacyGBRG {
		pat = pat.LegacyRouting()
	}
	// With an odd number of rows, flipping keeps every row's parity, so
	// the tile is unchanged.
	if p.FlipVertical && p.in.Ny%2 == 0 {
		pat = pat.FlipVertical()
	}
	p.pattern = pat
	return nil
}

func (p *Preview)mosaic() bool { return p.pattern != debayer.None }

func (p *Preview)decimation() int {
	if p.Downscale > 1 {
		return p.Downscale
	}
	if p.MaxPreviewSize > 0 {
		if p.mosaic() {
			// the debayer halves things anyway
			return downscale.FactorFor(p.in.Nx/2, p.in.Ny/2, p.MaxPreviewSize)
		}
		return downscale.FactorFor(p.in.Nx, p.in.Ny, p.MaxPreviewSize)
	}
	return 1
}

func (p *Preview)outputDescriptor() samples.Descriptor {
	if p.mosaic() {
		step := 2 * p.factor
		return samples.Descriptor{Nx:p.in.Nx/step, Ny:p.in.Ny/step, Nc:3, BitDepth:samples.OutputBitDepth}
	}
	return samples.Descriptor{Nx:p.in.Nx/p.factor, Ny:p.in.Ny/p.factor, Nc:p.in.Nc, BitDepth:samples.OutputBitDepth}
}

func (p *Preview)InputDescriptor() samples.Descriptor  { return p.in }
func (p *Preview)OutputDescriptor() samples.Descriptor { return p.out }
func (p *Preview)Pattern() debayer.Pattern             { return p.pattern }
func (p *Preview)Factor() int                          { return p.factor }

func (p *Preview)HeaderText() string {
	if p.src == nil {
		return ""
	}
	return p.src.HeaderText()
}

// Pixels runs the whole pipeline, writing OutputDescriptor().Size()
// bytes into pixData (RGBRGB... for color). On error, pixData should not
// be used.
func (p *Preview)Pixels(pixData []byte) error {
	if p.src == nil {
		return ErrClosed
	}
	if len(pixData) != p.out.Size() {
		return fmt.Errorf("%w: have %d bytes, want %s = %d", ErrBufferSize, len(pixData), p.out, p.out.Size())
	}

	if p.src.Float() {
		return run[float32](p, pixData, p.src.ReadFloat32)
	}
	return run[uint16](p, pixData, p.src.ReadUint16)
}

// Image is Pixels, wrapped up as a Gray or RGBA image.
func (p *Preview)Image() (image.Image, error) {
	pixData := make([]byte, p.out.Size())
	if err := p.Pixels(pixData); err != nil {
		return nil, err
	}
	return raster.ToImage(pixData, p.out)
}

// Close releases the source. The descriptors stay readable, but
// nothing else works afterwards.
func (p *Preview)Close() error {
	if p.src == nil {
		return ErrClosed
	}
	err := p.src.Close()
	p.src = nil
	return err
}

func (p *Preview)notify(e Event, tStart time.Time) {
	e.Filename = p.Filename
	e.Pattern = p.pattern
	e.Factor = p.factor
	e.Elapsed = time.Since(tStart)
	for _, o := range p.observers {
		o.Observe(e)
	}
}
