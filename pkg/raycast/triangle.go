package raycast

import (
	gomath "math"

	"github.com/Faultbox/quadtess/pkg/math"
)

// parallelEpsilon rejects rays nearly parallel to a triangle's plane.
const parallelEpsilon = 1e-8

// IntersectTriangle intersects the ray's supporting line with triangle
// (a, b, c) using the Möller–Trumbore test. Both faces are hit. The returned
// t is signed: negative values lie behind the origin.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float64, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if gomath.Abs(det) < parallelEpsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	return edge2.Dot(q) * invDet, true
}
