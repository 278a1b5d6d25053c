package tess

// DisplacementSampler returns a scalar height at a pixel-space coordinate.
// Implementations must be pure and defined for any input, clamping
// out-of-range coordinates.
type DisplacementSampler interface {
	Sample(u, v float64) float64
}

// SamplerFunc adapts a function to DisplacementSampler.
type SamplerFunc func(u, v float64) float64

// Sample calls f(u, v).
func (f SamplerFunc) Sample(u, v float64) float64 {
	return f(u, v)
}
