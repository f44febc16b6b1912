// Package fitstest writes small, valid FITS files for tests.
package fitstest

import(
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const(
	blockSize = 2880
	cardSize  = 80
)

// A Card is an extra header card. Value may be a bool, an int, a
// float64 or a string.
type Card struct {
	Key   string
	Value interface{}
}

// Image is a primary HDU. Data must be a slice whose element type
// matches Bitpix ([]uint8, []int16, []int32, []float32, []float64); it
// is written big-endian, as is.
type Image struct {
	Bitpix int
	Axes   []int
	Cards  []Card
	Data   interface{}
}

// Uint16 builds a 16 bit image from unsigned samples, using the usual
// BZERO=32768 offset.
func Uint16(vals []uint16, axes []int, cards ...Card) Image {
	data := make([]int16, len(vals))
	for i, v := range vals {
		data[i] = int16(int32(v) - 32768)
	}
	return Image{
		Bitpix: 16,
		Axes:   axes,
		Cards:  append([]Card{{"BZERO", 32768}, {"BSCALE", 1}}, cards...),
		Data:   data,
	}
}

// Write puts img into dir/name, failing the test on any error, and
// returns the full path.
func Write(t testing.TB, dir, name string, img Image) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(card("SIMPLE", true))
	buf.WriteString(card("BITPIX", img.Bitpix))
	buf.WriteString(card("NAXIS", len(img.Axes)))
	for i, n := range img.Axes {
		buf.WriteString(card(fmt.Sprintf("NAXIS%d", i+1), n))
	}
	for _, c := range img.Cards {
		buf.WriteString(card(c.Key, c.Value))
	}
	buf.WriteString(fmt.Sprintf("%-80s", "END"))
	pad(&buf, ' ')

	if img.Data != nil {
		if err := binary.Write(&buf, binary.BigEndian, img.Data); err != nil {
			t.Fatalf("fitstest: encoding data: %v", err)
		}
		pad(&buf, 0)
	}

	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("fitstest: %v", err)
	}
	return filename
}

func card(key string, val interface{}) string {
	var s string
	switch v := val.(type) {
	case bool:
		tf := "F"
		if v {
			tf = "T"
		}
		s = fmt.Sprintf("%-8s= %20s", key, tf)
	case int:
		s = fmt.Sprintf("%-8s= %20d", key, v)
	case float64:
		s = fmt.Sprintf("%-8s= %20s", key, strings.ToUpper(fmt.Sprintf("%.6E", v)))
	case string:
		s = fmt.Sprintf("%-8s= '%-8s'", key, strings.ReplaceAll(v, "'", "''"))
	default:
		panic(fmt.Sprintf("fitstest: can't write a %T card", val))
	}
	return fmt.Sprintf("%-80s", s)[:cardSize]
}

func pad(buf *bytes.Buffer, b byte) {
	if rem := buf.Len() % blockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte{b}, blockSize-rem))
	}
}
