package bake

import (
	"github.com/Faultbox/quadtess/pkg/math"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// rayOffset pulls probe origins just below the surface so rays starting on
// it still register a hit.
const rayOffset = 1e-6

// normalEpsilon keeps the normal blend finite when corner normals cancel.
const normalEpsilon = 1e-8

// samplePositions returns n evenly spaced values covering [0, 1]
// inclusive. A single sample sits at 0.
func samplePositions(n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		return out
	}
	for i := range n {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}

// ProbeRays returns an n x n grid of rays over the quad, v-major. Each ray
// starts at the bilinear surface point pulled back along the blended
// normal and points along that normal.
func ProbeRays(q tess.Quad, n int) (origins, directions []math.Vec3) {
	var pos, nor [4]math.Vec3
	for i, c := range q {
		pos[i] = c.Position
		nor[i] = c.Normal
	}

	ts := samplePositions(n)
	origins = make([]math.Vec3, 0, n*n)
	directions = make([]math.Vec3, 0, n*n)
	for _, v := range ts {
		for _, u := range ts {
			p := math.Bilinear3(pos, u, v)
			d := math.Bilinear3(nor, u, v)
			d = d.Scale(1 / (d.Length() + normalEpsilon))
			origins = append(origins, p.Sub(d.Scale(rayOffset)))
			directions = append(directions, d)
		}
	}
	return origins, directions
}
