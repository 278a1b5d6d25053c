// Package heightfield stores 2-D scalar displacement maps and samples them
// in pixel space for the tessellator.
package heightfield

import (
	"fmt"
)

// Field is a row-major grid of scalar heights.
type Field struct {
	Width  int
	Height int
	Data   []float32
}

// New returns a zero field of the given size.
func New(width, height int) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid field size %dx%d", width, height)
	}
	return &Field{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}, nil
}

// At returns the height at texel (x, y). Coordinates outside the field are
// clamped to its border.
func (f *Field) At(x, y int) float32 {
	x = clampInt(x, 0, f.Width-1)
	y = clampInt(y, 0, f.Height-1)
	return f.Data[y*f.Width+x]
}

// Set stores the height at texel (x, y). Out-of-range writes are ignored.
func (f *Field) Set(x, y int, h float32) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Data[y*f.Width+x] = h
}

// Range returns the smallest and largest stored heights.
func (f *Field) Range() (lo, hi float32) {
	if len(f.Data) == 0 {
		return 0, 0
	}
	lo, hi = f.Data[0], f.Data[0]
	for _, h := range f.Data[1:] {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return lo, hi
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
