package samples

import "fmt"

// OutputBitDepth is what every preview comes out as.
const OutputBitDepth = 8

// A Descriptor is the logical shape of an image. BitDepth follows the
// FITS BITPIX convention: 8, 16, 32 for integers, -32, -64 for floats.
type Descriptor struct {
	Nx       int `yaml:"nx"`
	Ny       int `yaml:"ny"`
	Nc       int `yaml:"nc"`
	BitDepth int `yaml:"bitdepth"`
}

func (d Descriptor)String() string {
	return fmt.Sprintf("%dx%dx%d@%d", d.Nx, d.Ny, d.Nc, d.BitDepth)
}

func (d Descriptor)PlaneSize() int { return d.Nx * d.Ny }
func (d Descriptor)Size() int      { return d.Nx * d.Ny * d.Nc }
func (d Descriptor)IsFloat() bool  { return d.BitDepth < 0 }

// Validate rejects shapes the pipeline can't process: empty axes, or a
// channel count that is neither mono nor RGB.
func (d Descriptor)Validate() error {
	if d.Nx <= 0 || d.Ny <= 0 {
		return fmt.Errorf("%w: axes %dx%d", ErrMalformedShape, d.Nx, d.Ny)
	}
	if d.Nc != 1 && d.Nc != 3 {
		return fmt.Errorf("%w: %d channels, want 1 or 3", ErrMalformedShape, d.Nc)
	}
	return nil
}

// Descriptor returns the shape of the buffer, tagged with a bit depth.
func (b *Buffer[T])Descriptor(bitDepth int) Descriptor {
	return Descriptor{Nx:b.Width, Ny:b.Height, Nc:b.Channels, BitDepth:bitDepth}
}
