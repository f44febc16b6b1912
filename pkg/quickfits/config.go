package quickfits

import(
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/quickfits/pkg/stretch"
)

// What to do when BAYERPAT names a layout we don't know.
const(
	MosaicIgnore = "ignore" // treat the image as if it had no BAYERPAT
	MosaicFail   = "fail"   // refuse to make a preview
)

type Config struct {
	Verbosity      int

	Downscale      int     // Decimation factor; 0 or 1 means none (see MaxPreviewSize)
	MaxPreviewSize int     // If Downscale is unset, decimate until the longest side fits

	Stretch        string  // "auto", "linear", or one of the Tonemappers
	UnknownMosaic  string  // MosaicIgnore or MosaicFail

	LegacyGBRG     bool    // Debayer GBRG images as if they were GRBG, like older versions did
	FlipVertical   bool    // FITS rows go bottom-up; flip them (and the bayer pattern) first
}

func NewConfig() Config {
	return Config{
		Stretch:       string(stretch.Auto),
		UnknownMosaic: MosaicIgnore,
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Finalize fills in defaults, and checks that all the strategy names
// are ones we know about.
func (c *Config)Finalize() error {
	if c.Stretch == "" {
		c.Stretch = string(stretch.Auto)
	}
	if c.UnknownMosaic == "" {
		c.UnknownMosaic = MosaicIgnore
	}

	if !IsTonemapper(c.Stretch) {
		if _, err := stretch.ParseMode(c.Stretch); err != nil {
			return fmt.Errorf("%v, wanted auto, linear or one of %s", err, ListTonemappers())
		}
	}

	switch c.UnknownMosaic {
	case MosaicIgnore, MosaicFail:
	default:
		return fmt.Errorf("no UnknownMosaic policy named '%s', wanted %s or %s", c.UnknownMosaic, MosaicIgnore, MosaicFail)
	}

	if c.Downscale < 0 || c.MaxPreviewSize < 0 {
		return fmt.Errorf("Downscale (%d) and MaxPreviewSize (%d) can't be negative", c.Downscale, c.MaxPreviewSize)
	}

	return nil
}
