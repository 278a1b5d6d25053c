package heightfield

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/quadtess/pkg/math"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// Filter selects how a sampler reconstructs heights between texels.
type Filter string

const (
	FilterBilinear Filter = "bilinear"
	FilterNearest  Filter = "nearest"
)

var (
	_ tess.DisplacementSampler = Bilinear{}
	_ tess.DisplacementSampler = Nearest{}
)

// Bilinear samples a field with bilinear interpolation between the four
// texels around a pixel-space coordinate.
type Bilinear struct {
	Field *Field
}

// Sample returns the interpolated height at pixel coordinate (u, v).
// Coordinates are clamped to the field before the fractional part is taken,
// so any input is defined and everything outside the field reads the border
// texel. For u in (-1, 0) this returns column 0 rather than a blend of
// columns 0 and 1.
func (s Bilinear) Sample(u, v float64) float64 {
	f := s.Field
	u = math.Clamp(u, 0, float64(f.Width-1))
	v = math.Clamp(v, 0, float64(f.Height-1))

	baseU := gomath.Floor(u)
	baseV := gomath.Floor(v)
	fu := u - baseU
	fv := v - baseV

	x0 := clampInt(int(baseU), 0, f.Width-1)
	y0 := clampInt(int(baseV), 0, f.Height-1)
	x1 := min(x0+1, f.Width-1)
	y1 := min(y0+1, f.Height-1)

	s00 := float64(f.At(x0, y0))
	s10 := float64(f.At(x1, y0))
	s01 := float64(f.At(x0, y1))
	s11 := float64(f.At(x1, y1))

	bottom := s00 + (s10-s00)*fu
	top := s01 + (s11-s01)*fu
	return bottom + (top-bottom)*fv
}

// Nearest samples the texel containing a pixel-space coordinate.
type Nearest struct {
	Field *Field
}

// Sample returns the height of the texel nearest to (u, v).
func (s Nearest) Sample(u, v float64) float64 {
	f := s.Field
	u = math.Clamp(u, 0, float64(f.Width-1))
	v = math.Clamp(v, 0, float64(f.Height-1))
	return float64(f.At(int(gomath.Floor(u+0.5)), int(gomath.Floor(v+0.5))))
}

// ParseFilter returns the filter with the given name. The empty string
// selects bilinear.
func ParseFilter(name string) (Filter, error) {
	switch f := Filter(name); f {
	case "", FilterBilinear:
		return FilterBilinear, nil
	case FilterNearest:
		return FilterNearest, nil
	default:
		return "", fmt.Errorf("unknown height field filter %q", name)
	}
}

// NewSampler returns a sampler over f using the named filter.
func NewSampler(f *Field, filter Filter) (tess.DisplacementSampler, error) {
	filter, err := ParseFilter(string(filter))
	if err != nil {
		return nil, err
	}
	if filter == FilterNearest {
		return Nearest{Field: f}, nil
	}
	return Bilinear{Field: f}, nil
}
