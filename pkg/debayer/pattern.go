package debayer

import(
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedPattern = errors.New("unsupported mosaic pattern")

// A Pattern names the 2x2 color filter tile, reading the tile
// left-to-right, top-to-bottom. The zero value means "no mosaic".
type Pattern string

const(
	None Pattern = ""
	RGGB Pattern = "RGGB"
	BGGR Pattern = "BGGR"
	GBRG Pattern = "GBRG"
	GRBG Pattern = "GRBG"
)

// The four sites of a 2x2 tile, relative to its top-left sample.
type site int

const(
	cur site = iota
	right
	down
	downRight
)

// A layout says where each output plane reads from. Green is always
// the average of the two green sites.
type layout struct {
	R site
	G [2]site
	B site
}

var layouts = map[Pattern]layout{
	RGGB: {R:cur,       G:[2]site{right, down},    B:downRight},
	BGGR: {R:downRight, G:[2]site{right, down},    B:cur},
	GBRG: {R:down,      G:[2]site{cur, downRight}, B:right},
	GRBG: {R:right,     G:[2]site{cur, downRight}, B:down},
}

// ParsePattern accepts only the four known codes; anything else,
// including the empty string and lower case spellings, is
// ErrUnsupportedPattern. Surrounding whitespace is ignored, as header
// values are often padded.
func ParsePattern(code string) (Pattern, error) {
	p := Pattern(strings.TrimSpace(code))
	if _, exists := layouts[p]; !exists {
		return None, fmt.Errorf("%w: %q", ErrUnsupportedPattern, code)
	}
	return p, nil
}

func (p Pattern)Valid() bool {
	_, exists := layouts[p]
	return exists
}

func (p Pattern)String() string {
	if p == None {
		return "none"
	}
	return string(p)
}

// FlipVertical gives the pattern seen after the rows of the image have
// been reversed: the top and bottom halves of the tile swap.
func (p Pattern)FlipVertical() Pattern {
	if !p.Valid() {
		return p
	}
	s := []byte(p)
	s[0], s[2] = s[2], s[0]
	s[1], s[3] = s[3], s[1]
	return Pattern(s)
}

// LegacyRouting maps GBRG onto the GRBG layout, the way older builds of
// this viewer did. Only used when asked for, to reproduce old previews.
func (p Pattern)LegacyRouting() Pattern {
	if p == GBRG {
		return GRBG
	}
	return p
}
