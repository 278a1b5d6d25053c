package tess

import (
	gomath "math"
)

const (
	sampleEpsilon = 1e-9
	tieEpsilon    = 1e-12
)

// BoundarySamples returns the parameters k/rate that fall in [tMin, tMax],
// in increasing order. It returns nil when rate is not positive or the
// range holds no sample.
func BoundarySamples(rate int, tMin, tMax float64) []float64 {
	if rate <= 0 {
		return nil
	}
	k0 := clampInt(int(gomath.Ceil(float64(rate)*tMin-sampleEpsilon)), 0, rate)
	k1 := clampInt(int(gomath.Floor(float64(rate)*tMax+sampleEpsilon)), 0, rate)
	if k1 < k0 {
		return nil
	}

	samples := make([]float64, 0, k1-k0+1)
	for k := k0; k <= k1; k++ {
		samples = append(samples, float64(k)/float64(rate))
	}
	return samples
}

// NearestIndex rounds x to the nearest integer in [lo, hi]. An exact .5 tie
// rounds up when preferUp is set and down otherwise.
func NearestIndex(x float64, lo, hi int, preferUp bool) int {
	base := gomath.Floor(x)
	frac := x - base

	idx := int(base)
	switch {
	case frac > 0.5+tieEpsilon:
		idx++
	case frac < 0.5-tieEpsilon:
	case preferUp:
		idx++
	}
	return clampInt(idx, lo, hi)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
