package fitsfile

import(
	"fmt"
	"strings"

	"github.com/astrogo/fitsio"
)

// An Entry is one header card, with its value rendered as text.
type Entry struct {
	Key   string
	Value string
}

// Header is the image's metadata, in the order the cards appear in the
// file. The structural cards (SIMPLE, BITPIX, NAXISn, ...) are left out;
// they show up in the Descriptor instead.
type Header []Entry

func (h Header)Get(key string) (string, bool) {
	for _, e := range h {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// String flattens the header as "key:value; " for every entry.
func (h Header)String() string {
	var sb strings.Builder
	for _, e := range h {
		fmt.Fprintf(&sb, "%s:%s; ", e.Key, e.Value)
	}
	return sb.String()
}

var structural = map[string]bool{
	"SIMPLE":true, "XTENSION":true, "BITPIX":true, "NAXIS":true,
	"EXTEND":true, "PCOUNT":true, "GCOUNT":true, "END":true,
}

func isStructural(key string) bool {
	if structural[key] {
		return true
	}
	return strings.HasPrefix(key, "NAXIS") && strings.Trim(key[5:], "0123456789") == ""
}

func newHeader(h *fitsio.Header) Header {
	ret := Header{}
	for _, k := range h.Keys() {
		if k == "" || isStructural(k) {
			continue
		}
		card := h.Get(k)
		if card == nil {
			continue
		}
		ret = append(ret, Entry{Key:k, Value:formatValue(card.Value)})
	}
	return ret
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:    return ""
	case bool:   if t { return "Yes" } else { return "No" }
	case string: return strings.TrimSpace(t)
	}
	return fmt.Sprintf("%v", v)
}

// cardFloat reads a numeric card, or returns def if it is missing or
// not a number.
func cardFloat(h *fitsio.Header, key string, def float64) float64 {
	card := h.Get(key)
	if card == nil {
		return def
	}
	switch t := card.Value.(type) {
	case int:     return float64(t)
	case int8:    return float64(t)
	case int16:   return float64(t)
	case int32:   return float64(t)
	case int64:   return float64(t)
	case float32: return float64(t)
	case float64: return t
	}
	return def
}
