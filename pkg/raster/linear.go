package raster

import(
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/quickfits/pkg/samples"
)

// Linear is an unstretched view of a sample buffer, as an HDR image:
// each sample is divided by Scale, so full scale input comes out as
// 1.0. Mono buffers show up as grey.
type Linear[T samples.Sample] struct {
	Buf   *samples.Buffer[T]
	Scale float64
}

func NewLinear[T samples.Sample](buf *samples.Buffer[T], scale float64) Linear[T] {
	if scale <= 0 {
		scale = 1
	}
	return Linear[T]{Buf:buf, Scale:scale}
}

// Implement image.Image
func (l Linear[T])ColorModel() color.Model { return hdrcolor.RGBModel }
func (l Linear[T])Bounds() image.Rectangle { return image.Rect(0, 0, l.Buf.Width, l.Buf.Height) }
func (l Linear[T])At(x, y int) color.Color { return l.HDRAt(x,y) }

// Implement hdr.Image
func (l Linear[T])Size() int               { return l.Buf.Width * l.Buf.Height }
func (l Linear[T])HDRAt(x, y int) hdrcolor.Color {
	if l.Buf.Channels == 1 {
		v := float64(l.Buf.At(x, y, 0)) / l.Scale
		return hdrcolor.RGB{R:v, G:v, B:v}
	}
	return hdrcolor.RGB{
		R: float64(l.Buf.At(x, y, 0)) / l.Scale,
		G: float64(l.Buf.At(x, y, 1)) / l.Scale,
		B: float64(l.Buf.At(x, y, 2)) / l.Scale,
	}
}

// WriteHDR outputs a Radiance RGBE file, which photoshop and other HDR
// tools can load.
func WriteHDR(img hdr.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return rgbe.Encode(writer, img)
	}
}
