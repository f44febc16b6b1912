package quickfits

// As well as the auto stretch, previews can be tonemapped by one of the
// operators from mdouchement/hdr. They see the linear data as an HDR
// image, and don't need any statistics from us.

import(
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"
)

var(
	Tonemappers = []string{"drago03", "durand", "icam06", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

func IsTonemapper(name string) bool {
	for _, t := range Tonemappers {
		if t == name {
			return true
		}
	}
	return false
}

// SetupTonemapper tweaks the tmo parameters for astro images, which are
// mostly dark sky with a few very bright stars.
func SetupTonemapper(name string, img hdr.Image) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 0.7            // lift the faint stuff a bit more than the default
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.MaxClipping = 0.999   // let the stars clip, not the nebula
		return op, nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Light = 0.01
		return op, nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted %s", name, ListTonemappers())
}

// tonemap runs the named operator, and returns its output as 8 bit
// planes with nc channels (mono comes out as luminance).
func tonemap(name string, img hdr.Image, nc int) ([]uint8, error) {
	op, err := SetupTonemapper(name, img)
	if err != nil {
		return nil, err
	}
	return toPlanar(op.Perform(), nc), nil
}

func toPlanar(img image.Image, nc int) []uint8 {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	out := make([]uint8, n*nc)

	i := 0
	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			c := img.At(x, y)
			if nc == 1 {
				out[i] = color.GrayModel.Convert(c).(color.Gray).Y
			} else {
				r, g, b, _ := c.RGBA()
				out[i]     = uint8(r >> 8)
				out[n+i]   = uint8(g >> 8)
				out[2*n+i] = uint8(b >> 8)
			}
			i++
		}
	}
	return out
}
