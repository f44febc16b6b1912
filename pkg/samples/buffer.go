package samples

// A planar buffer of sensor samples, plus the shape info needed to walk it.

import(
	"errors"
	"fmt"
)

var ErrMalformedShape = errors.New("malformed image shape")

// Sample is the element type of a Buffer: raw 16-bit integer readouts,
// or floating point for everything else. Picked once per image.
type Sample interface {
	~uint16 | ~float32
}

// A Buffer holds Channels planes of Width*Height samples, one after
// the other ([plane0][plane1][plane2]), each plane row-major.
type Buffer[T Sample] struct {
	Width    int
	Height   int
	Channels int
	Data   []T
}

func New[T Sample](w, h, c int) *Buffer[T] {
	return &Buffer[T]{
		Width:    w,
		Height:   h,
		Channels: c,
		Data:     make([]T, w*h*c),
	}
}

// Wrap takes ownership of data; len(data) must be exactly w*h*c.
func Wrap[T Sample](data []T, w, h, c int) (*Buffer[T], error) {
	if w <= 0 || h <= 0 || c <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrMalformedShape, w, h, c)
	}
	if len(data) != w*h*c {
		return nil, fmt.Errorf("%w: have %d samples, want %dx%dx%d=%d", ErrMalformedShape, len(data), w, h, c, w*h*c)
	}
	return &Buffer[T]{Width:w, Height:h, Channels:c, Data:data}, nil
}

func (b *Buffer[T])PlaneSize() int            { return b.Width * b.Height }
func (b *Buffer[T])Index(x, y, ch int) int    { return ch*b.PlaneSize() + y*b.Width + x }
func (b *Buffer[T])At(x, y, ch int) T         { return b.Data[b.Index(x, y, ch)] }
func (b *Buffer[T])Set(x, y, ch int, v T)     { b.Data[b.Index(x, y, ch)] = v }

// Plane returns the samples of one channel. It aliases the buffer.
func (b *Buffer[T])Plane(ch int) []T {
	n := b.PlaneSize()
	return b.Data[ch*n : (ch+1)*n : (ch+1)*n]
}

func (b *Buffer[T])Copy() *Buffer[T] {
	b2 := New[T](b.Width, b.Height, b.Channels)
	copy(b2.Data, b.Data)
	return b2
}

// FlipVertical reverses the row order of every plane, in place.
func (b *Buffer[T])FlipVertical() {
	w := b.Width
	for ch:=0; ch<b.Channels; ch++ {
		p := b.Plane(ch)
		for top, bot := 0, b.Height-1; top < bot; top, bot = top+1, bot-1 {
			r1 := p[top*w : (top+1)*w]
			r2 := p[bot*w : (bot+1)*w]
			for i := range r1 {
				r1[i], r2[i] = r2[i], r1[i]
			}
		}
	}
}

// MinMax of a single plane.
func MinMax[T Sample](plane []T) (T, T) {
	if len(plane) == 0 {
		return 0, 0
	}
	min, max := plane[0], plane[0]
	for _, v := range plane[1:] {
		if v < min { min = v }
		if v > max { max = v }
	}
	return min, max
}

func (b *Buffer[T])String() string {
	min, max := MinMax(b.Data)
	return fmt.Sprintf("buf[%dx%dx%d, %T, vals{%v,%v}]", b.Width, b.Height, b.Channels, min, min, max)
}
