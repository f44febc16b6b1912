package raster

import(
	"errors"
	"fmt"

	"github.com/abworrall/quickfits/pkg/samples"
)

var ErrSize = errors.New("raster size mismatch")

// Pack copies planar 8 bit data into pixData, in the layout the host
// wants: mono is a straight copy, RGB is interleaved (RGBRGB...). The
// shape comes from d; pixData must be exactly d.Size() bytes, and no
// more than d.Size() bytes of planar are read.
func Pack(pixData, planar []uint8, d samples.Descriptor) error {
	n := d.PlaneSize()
	if d.Nc != 1 && d.Nc != 3 {
		return fmt.Errorf("%w: %d channels, want 1 or 3", samples.ErrMalformedShape, d.Nc)
	}
	if len(pixData) != d.Size() {
		return fmt.Errorf("%w: output buffer is %d bytes, want %s = %d", ErrSize, len(pixData), d, d.Size())
	}
	if len(planar) < d.Size() {
		return fmt.Errorf("%w: planar data is %d bytes, want %s = %d", ErrSize, len(planar), d, d.Size())
	}

	if d.Nc == 1 {
		copy(pixData, planar[:n])
		return nil
	}

	r, g, b := planar[0:n], planar[n:2*n], planar[2*n:3*n]
	for i:=0; i<n; i++ {
		pixData[3*i]   = r[i]
		pixData[3*i+1] = g[i]
		pixData[3*i+2] = b[i]
	}
	return nil
}
