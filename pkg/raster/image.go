package raster

// A few helper routines for golang's image libraries

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/tiff"

	"github.com/abworrall/quickfits/pkg/samples"
)

// ToImage wraps packed pixel data (see Pack) as an image.Image: Gray for
// mono, RGBA (opaque) for color. Mono pixels are not copied.
func ToImage(pixData []uint8, d samples.Descriptor) (image.Image, error) {
	if len(pixData) != d.Size() {
		return nil, fmt.Errorf("%w: have %d bytes, want %s = %d", ErrSize, len(pixData), d, d.Size())
	}
	r := image.Rect(0, 0, d.Nx, d.Ny)

	switch d.Nc {
	case 1:
		return &image.Gray{Pix:pixData, Stride:d.Nx, Rect:r}, nil

	case 3:
		img := image.NewRGBA(r)
		for i, j := 0, 0; i < len(pixData); i, j = i+3, j+4 {
			img.Pix[j]   = pixData[i]
			img.Pix[j+1] = pixData[i+1]
			img.Pix[j+2] = pixData[i+2]
			img.Pix[j+3] = 0xff
		}
		return img, nil
	}

	return nil, fmt.Errorf("%w: %d channels", samples.ErrMalformedShape, d.Nc)
}

// Annotate draws a one line caption into the top left corner, in
// white, using gg's built in font.
func Annotate(img image.Image, caption string) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetColor(color.Black)
	dc.DrawString(caption, 5, 15)
	dc.SetColor(color.White)
	dc.DrawString(caption, 4, 14)
	return dc.Image()
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

func WriteTIFF(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return tiff.Encode(writer, img, &tiff.Options{Compression:tiff.Deflate, Predictor:true})
	}
}

// Write picks the encoder from the format name ("png" or "tiff").
func Write(img image.Image, filename, format string) error {
	switch format {
	case "png", "":    return WritePNG(img, filename)
	case "tif", "tiff": return WriteTIFF(img, filename)
	}
	return fmt.Errorf("no output format named '%s'", format)
}
