package quickfits

import(
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abworrall/quickfits/pkg/debayer"
	"github.com/abworrall/quickfits/pkg/fitsfile/fitstest"
	"github.com/abworrall/quickfits/pkg/samples"
)

type fakeSource struct {
	shape   samples.Descriptor
	mosaic  string
	header  string
	u16     []uint16
	f32     []float32
	readErr error
	closed  bool
}

func (f *fakeSource)Shape() samples.Descriptor { return f.shape }
func (f *fakeSource)Mosaic() string            { return f.mosaic }
func (f *fakeSource)HeaderText() string        { return f.header }
func (f *fakeSource)Float() bool               { return f.f32 != nil }
func (f *fakeSource)ReadUint16() ([]uint16, error) {
	return append([]uint16(nil), f.u16...), f.readErr
}
func (f *fakeSource)ReadFloat32() ([]float32, error) {
	return append([]float32(nil), f.f32...), f.readErr
}
func (f *fakeSource)Close() error {
	f.closed = true
	return nil
}

func mono16(w, h int) *fakeSource {
	return &fakeSource{
		shape: samples.Descriptor{Nx:w, Ny:h, Nc:1, BitDepth:16},
		u16:   make([]uint16, w*h),
	}
}

// tile fills a w x h mosaic by repeating the 2x2 block {a,b / c,d}.
func tile(w, h int, a, b, c, d uint16) []uint16 {
	out := make([]uint16, w*h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			switch {
			case y%2 == 0 && x%2 == 0:
				out[y*w+x] = a
			case y%2 == 0:
				out[y*w+x] = b
			case x%2 == 0:
				out[y*w+x] = c
			default:
				out[y*w+x] = d
			}
		}
	}
	return out
}

func desc(nx, ny, nc, bitDepth int) samples.Descriptor {
	return samples.Descriptor{Nx:nx, Ny:ny, Nc:nc, BitDepth:bitDepth}
}

func linearConfig() Config {
	cfg := NewConfig()
	cfg.Stretch = "linear"
	return cfg
}

func TestDescriptors(t *testing.T) {
	tests := []struct {
		name        string
		shape       samples.Descriptor
		mosaic      string
		downscale   int
		maxSize     int
		wantOut     samples.Descriptor
		wantPattern debayer.Pattern
		wantFactor  int
	}{
		{"mono", desc(10, 8, 1, 16), "", 0, 0, desc(10, 8, 1, 8), debayer.None, 1},
		{"rggb", desc(10, 8, 1, 16), "RGGB", 0, 0, desc(5, 4, 3, 8), debayer.RGGB, 1},
		{"padded bggr", desc(10, 8, 1, 16), " BGGR ", 0, 0, desc(5, 4, 3, 8), debayer.BGGR, 1},
		{"lowercase is no mosaic", desc(10, 8, 1, 16), "rggb", 0, 0, desc(10, 8, 1, 8), debayer.None, 1},
		{"mixed case is no mosaic", desc(10, 8, 1, 16), "Bggr", 0, 0, desc(10, 8, 1, 8), debayer.None, 1},
		{"unknown is no mosaic", desc(10, 8, 1, 16), "XYZZ", 0, 0, desc(10, 8, 1, 8), debayer.None, 1},
		{"color ignores bayerpat", desc(10, 8, 3, -32), "RGGB", 0, 0, desc(10, 8, 3, 8), debayer.None, 1},
		{"mono decimated", desc(10, 8, 1, 16), "", 2, 0, desc(5, 4, 1, 8), debayer.None, 2},
		{"rggb decimated", desc(10, 8, 1, 16), "RGGB", 2, 0, desc(2, 2, 3, 8), debayer.RGGB, 2},
		{"max size", desc(10, 8, 1, 16), "", 0, 4, desc(3, 2, 1, 8), debayer.None, 3},
		{"max size rggb", desc(20, 8, 1, 16), "RGGB", 0, 5, desc(5, 2, 3, 8), debayer.RGGB, 2},
		{"downscale beats max size", desc(10, 8, 1, 16), "", 2, 1, desc(5, 4, 1, 8), debayer.None, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Downscale = tt.downscale
			cfg.MaxPreviewSize = tt.maxSize

			src := &fakeSource{shape:tt.shape, mosaic:tt.mosaic}
			p, err := New("test", src, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.shape, p.InputDescriptor()); diff != "" {
				t.Errorf("input (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantOut, p.OutputDescriptor()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
			if p.Pattern() != tt.wantPattern || p.Factor() != tt.wantFactor {
				t.Errorf("got pattern %s factor %d, want %s %d", p.Pattern(), p.Factor(), tt.wantPattern, tt.wantFactor)
			}
		})
	}
}

func TestUnknownMosaicPolicy(t *testing.T) {
	cfg := NewConfig()
	cfg.UnknownMosaic = MosaicFail

	src := &fakeSource{shape:samples.Descriptor{Nx:4, Ny:4, Nc:1, BitDepth:16}, mosaic:"XYZZ"}
	if _, err := New("test", src, cfg); !errors.Is(err, debayer.ErrUnsupportedPattern) {
		t.Errorf("got %v, want ErrUnsupportedPattern", err)
	}

	// No BAYERPAT at all is fine, even when strict
	src.mosaic = ""
	if _, err := New("test", src, cfg); err != nil {
		t.Errorf("no mosaic, strict: %v", err)
	}
}

func TestMalformedShapes(t *testing.T) {
	for _, src := range []*fakeSource{
		{shape:samples.Descriptor{Nx:4, Ny:4, Nc:2, BitDepth:16}},
		{shape:samples.Descriptor{Nx:0, Ny:4, Nc:1, BitDepth:16}},
		{shape:samples.Descriptor{Nx:1, Ny:1, Nc:1, BitDepth:16}, mosaic:"RGGB"},
	} {
		if _, err := New("test", src, NewConfig()); !errors.Is(err, samples.ErrMalformedShape) {
			t.Errorf("%s: got %v, want ErrMalformedShape", src.shape, err)
		}
	}
}

func TestBadConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Stretch = "fattal02"
	if _, err := New("test", mono16(2, 2), cfg); err == nil {
		t.Errorf("expected an error for an unknown stretch")
	}
}

func TestPixelsBufferSize(t *testing.T) {
	p, err := New("test", mono16(4, 4), NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 15, 17} {
		if err := p.Pixels(make([]byte, n)); !errors.Is(err, ErrBufferSize) {
			t.Errorf("%d bytes: got %v, want ErrBufferSize", n, err)
		}
	}
}

func TestPixelsMono(t *testing.T) {
	src := mono16(2, 2)
	src.u16 = []uint16{0, 1000, 40000, 65535}

	p, err := New("test", src, linearConfig())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 4)
	if err := p.Pixels(out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0, 3, 155, 255}, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRoundTripRGGB(t *testing.T) {
	src := &fakeSource{
		shape:  samples.Descriptor{Nx:8, Ny:8, Nc:1, BitDepth:16},
		mosaic: "RGGB",
		u16:    tile(8, 8, 40000, 30000, 20000, 10000),
	}

	p, err := New("test", src, linearConfig())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, p.OutputDescriptor().Size())
	if err := p.Pixels(out); err != nil {
		t.Fatal(err)
	}

	// R=40000, G=(30000+20000)/2, B=10000, scaled by 255/65535
	want := []byte{155, 97, 38}
	if diff := cmp.Diff(want, out[0:3]); diff != "" {
		t.Errorf("pixel (0,0) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(out[0:3], out[len(out)-3:]); diff != "" {
		t.Errorf("last pixel differs from first (-first +last):\n%s", diff)
	}
}

func TestPixelsFloatColor(t *testing.T) {
	src := &fakeSource{
		shape: samples.Descriptor{Nx:2, Ny:1, Nc:3, BitDepth:-32},
		f32:   []float32{0, 100, 200, 50, 0, 255},
	}
	p, err := New("test", src, linearConfig())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 6)
	if err := p.Pixels(out); err != nil {
		t.Fatal(err)
	}
	// channels are stretched independently, each against a 0..255 range
	want := []byte{0, 200, 0, 100, 50, 255}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFlipVertical(t *testing.T) {
	cfg := linearConfig()
	cfg.FlipVertical = true

	src := mono16(1, 2)
	src.u16 = []uint16{0, 65535}
	p, err := New("test", src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 2)
	if err := p.Pixels(out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{255, 0}, out); diff != "" {
		t.Errorf("mono (-want +got):\n%s", diff)
	}

	// The red pixel must still come out red after the rows are swapped.
	// With an odd height the rows keep their parity, so the red sites
	// are at (0,0) and (0,2) either way.
	tests := []struct {
		name        string
		height      int
		data        []uint16
		flip        bool
		wantPattern debayer.Pattern
	}{
		{"even", 2, []uint16{65535, 0, 0, 0}, false, debayer.RGGB},
		{"even flipped", 2, []uint16{65535, 0, 0, 0}, true, debayer.GBRG},
		{"odd", 3, []uint16{65535, 0, 0, 0, 65535, 0}, false, debayer.RGGB},
		{"odd flipped", 3, []uint16{65535, 0, 0, 0, 65535, 0}, true, debayer.RGGB},
	}
	for _, tt := range tests {
		cfg.FlipVertical = tt.flip
		src := &fakeSource{
			shape:  samples.Descriptor{Nx:2, Ny:tt.height, Nc:1, BitDepth:16},
			mosaic: "RGGB",
			u16:    tt.data,
		}
		p, err := New("test", src, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if p.Pattern() != tt.wantPattern {
			t.Errorf("%s: pattern %s, want %s", tt.name, p.Pattern(), tt.wantPattern)
		}
		out := make([]byte, 3)
		if err := p.Pixels(out); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]byte{255, 0, 0}, out); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestLegacyGBRG(t *testing.T) {
	// GBRG: G at (0,0), B at (1,0), R at (0,1)
	data := []uint16{0, 65535, 1000, 0}

	tests := []struct {
		legacy bool
		want   []byte
	}{
		{false, []byte{3, 0, 255}},
		{true, []byte{255, 0, 3}}, // routed as GRBG, so red and blue swap
	}
	for _, tt := range tests {
		cfg := linearConfig()
		cfg.LegacyGBRG = tt.legacy
		src := &fakeSource{
			shape:  samples.Descriptor{Nx:2, Ny:2, Nc:1, BitDepth:16},
			mosaic: "GBRG",
			u16:    append([]uint16(nil), data...),
		}
		p, err := New("test", src, cfg)
		if err != nil {
			t.Fatal(err)
		}
		out := make([]byte, 3)
		if err := p.Pixels(out); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, out); diff != "" {
			t.Errorf("legacy=%v (-want +got):\n%s", tt.legacy, diff)
		}
	}
}

func TestAutoStretch(t *testing.T) {
	src := mono16(16, 16)
	for i := range src.u16 {
		src.u16[i] = uint16(900 + 100*(i%3))
	}
	p, err := New("test", src, NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	img, err := p.Image()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dx(); got != 16 {
		t.Errorf("width: got %d, want 16", got)
	}

	// the median lands near the 0.25 background target, the others either side
	out := make([]byte, 256)
	if err := p.Pixels(out); err != nil {
		t.Fatal(err)
	}
	if !(out[0] < out[1] && out[1] < out[2]) || out[1] < 55 || out[1] > 75 {
		t.Errorf("got %v for 900,1000,1100; want increasing, with 1000 around 64", out[:3])
	}
}

func TestDecodeFailure(t *testing.T) {
	src := mono16(2, 2)
	src.readErr = errors.New("disk on fire")
	p, err := New("test", src, NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Pixels(make([]byte, 4)); !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("got %v, want ErrDecodeFailure", err)
	}
}

func TestHeaderTextAndClose(t *testing.T) {
	src := mono16(2, 2)
	src.header = "OBJECT:M31; EXPTIME:300; "
	p, err := New("test", src, NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := p.HeaderText(); got != src.header {
		t.Errorf("HeaderText: got %q, want %q", got, src.header)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !src.closed {
		t.Errorf("source was not closed")
	}
	if err := p.Pixels(make([]byte, 4)); !errors.Is(err, ErrClosed) {
		t.Errorf("Pixels after Close: got %v, want ErrClosed", err)
	}
	if err := p.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}
	if p.OutputDescriptor().Size() != 4 {
		t.Errorf("descriptors should survive Close")
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	filename := fitstest.Write(t, dir, "osc.fits", fitstest.Uint16(
		tile(8, 8, 40000, 30000, 20000, 10000),
		[]int{8, 8},
		fitstest.Card{Key:"BAYERPAT", Value:"RGGB"},
		fitstest.Card{Key:"OBJECT", Value:"NGC 7000"},
	))

	p, err := Create(filename, linearConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if diff := cmp.Diff(samples.Descriptor{Nx:4, Ny:4, Nc:3, BitDepth:8}, p.OutputDescriptor()); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
	if got := p.HeaderText(); !strings.Contains(got, "BAYERPAT:RGGB; ") || !strings.Contains(got, "OBJECT:NGC 7000; ") {
		t.Errorf("HeaderText: got %q", got)
	}

	out := make([]byte, p.OutputDescriptor().Size())
	if err := p.Pixels(out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{155, 97, 38}, out[0:3]); diff != "" {
		t.Errorf("pixel (0,0) (-want +got):\n%s", diff)
	}

	if _, err := Create(filepath.Join(dir, "missing.fits"), NewConfig()); !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("missing file: got %v, want ErrDecodeFailure", err)
	}
}
