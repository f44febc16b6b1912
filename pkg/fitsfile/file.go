// Package fitsfile reads the first image out of a FITS file, with just
// enough metadata to build a preview.
package fitsfile

import(
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/abworrall/quickfits/pkg/samples"
)

var ErrNoImage = errors.New("no image HDU")

type File struct {
	Filename string
	Header
	samples.Descriptor

	bzero   float64
	bscale  float64

	closers  []io.Closer
	fitsFile *fitsio.File
	img       fitsio.Image
}

// Open parses the headers and picks the image; the pixels are not
// converted until one of the Read funcs is called. Files ending in .gz
// or .zst are decompressed on the fly.
func Open(filename string) (*File, error) {
	ff := File{Filename:filename}

	r, err := ff.openReader()
	if err != nil {
		ff.Close()
		return nil, err
	}

	f, err := fitsio.Open(r)
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("%s: %v", filename, err)
	}
	ff.fitsFile = f

	for _, hdu := range f.HDUs() {
		if img, ok := hdu.(fitsio.Image); ok && len(hdu.Header().Axes()) >= 2 {
			ff.img = img
			break
		}
	}
	if ff.img == nil {
		ff.Close()
		return nil, fmt.Errorf("%s: %w", filename, ErrNoImage)
	}

	hdr := ff.img.Header()
	ff.Header = newHeader(hdr)
	ff.bzero = cardFloat(hdr, "BZERO", 0)
	ff.bscale = cardFloat(hdr, "BSCALE", 1)

	if ff.Descriptor, err = descriptor(hdr.Axes(), hdr.Bitpix()); err != nil {
		ff.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return &ff, nil
}

func (f *File)openReader() (io.Reader, error) {
	osFile, err := os.Open(f.Filename)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, osFile)

	switch strings.ToLower(filepath.Ext(f.Filename)) {
	case ".gz":
		zr, err := gzip.NewReader(osFile)
		if err != nil {
			return nil, fmt.Errorf("%s: gzip: %v", f.Filename, err)
		}
		f.closers = append(f.closers, zr)
		return zr, nil

	case ".zst":
		zr, err := zstd.NewReader(osFile)
		if err != nil {
			return nil, fmt.Errorf("%s: zstd: %v", f.Filename, err)
		}
		f.closers = append(f.closers, zr.IOReadCloser())
		return zr, nil
	}

	return osFile, nil
}

func descriptor(axes []int, bitpix int) (samples.Descriptor, error) {
	d := samples.Descriptor{Nx:axes[0], Ny:axes[1], Nc:1, BitDepth:bitpix}
	if len(axes) > 2 {
		d.Nc = axes[2]
	}
	for i:=3; i<len(axes); i++ {
		if axes[i] > 1 {
			return d, fmt.Errorf("%w: %d axes %v", samples.ErrMalformedShape, len(axes), axes)
		}
	}
	switch bitpix {
	case 8, 16, 32, -32, -64:
	default:
		return d, fmt.Errorf("%w: BITPIX %d not supported", samples.ErrMalformedShape, bitpix)
	}
	return d, nil
}

func (f *File)String() string {
	return fmt.Sprintf("%s[%s, mosaic=%q]", f.Filename, f.Descriptor, f.Mosaic())
}

func (f *File)Shape() samples.Descriptor { return f.Descriptor }
func (f *File)HeaderText() string         { return f.Header.String() }

// Mosaic is the BAYERPAT header, if present. It is not checked.
func (f *File)Mosaic() string {
	v, _ := f.Get("BAYERPAT")
	return strings.TrimSpace(v)
}

// Float reports whether the samples should be read with ReadFloat32.
func (f *File)Float() bool {
	return f.BitDepth != 8 && f.BitDepth != 16
}

func (f *File)Close() error {
	var err error
	if f.fitsFile != nil {
		err = f.fitsFile.Close()
		f.fitsFile = nil
	}
	// innermost (decompressor) first
	for i := len(f.closers)-1; i >= 0; i-- {
		if err2 := f.closers[i].Close(); err == nil {
			err = err2
		}
	}
	f.closers = nil
	f.img = nil
	return err
}

// physical walks the raw big-endian data, calling fn with each
// sample's physical value (BZERO + BSCALE*raw).
func (f *File)physical(fn func(i int, v float64)) error {
	if f.img == nil {
		return fmt.Errorf("%s: file is closed", f.Filename)
	}

	raw := f.img.Raw()
	width := int(math.Abs(float64(f.BitDepth))) / 8
	n := f.Size()
	if len(raw) < n*width {
		return fmt.Errorf("%s: have %d bytes of data, want %d", f.Filename, len(raw), n*width)
	}

	be := binary.BigEndian
	for i:=0; i<n; i++ {
		b := raw[i*width:]
		var v float64
		switch f.BitDepth {
		case 8:   v = float64(b[0])
		case 16:  v = float64(int16(be.Uint16(b)))
		case 32:  v = float64(int32(be.Uint32(b)))
		case -32: v = float64(math.Float32frombits(be.Uint32(b)))
		case -64: v = math.Float64frombits(be.Uint64(b))
		}
		fn(i, f.bzero + f.bscale*v)
	}
	return nil
}

// ReadUint16 is for 8 and 16 bit integer images; values are clamped
// into [0,65535].
func (f *File)ReadUint16() ([]uint16, error) {
	out := make([]uint16, f.Size())
	err := f.physical(func(i int, v float64) {
		switch {
		case v <= 0:               out[i] = 0
		case v >= math.MaxUint16:  out[i] = math.MaxUint16
		default:                   out[i] = uint16(math.Round(v))
		}
	})
	return out, err
}

// ReadFloat32 is for everything else. NaNs (blank pixels) become 0.
func (f *File)ReadFloat32() ([]float32, error) {
	out := make([]float32, f.Size())
	err := f.physical(func(i int, v float64) {
		if math.IsNaN(v) {
			return
		}
		out[i] = float32(v)
	})
	return out, err
}
