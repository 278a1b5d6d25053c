package raycast

import (
	"errors"
	"fmt"

	"github.com/Faultbox/quadtess/pkg/math"
)

var (
	ErrRayMismatch  = errors.New("origin and direction counts differ")
	ErrBadIndexList = errors.New("invalid triangle index list")
)

// Intersector casts a batch of rays against an indexed triangle list and
// returns, per ray, the index of the triangle hit or -1 for a miss.
type Intersector interface {
	Intersect(origins, directions, vertices []math.Vec3, indices []uint32) ([]int, error)
}

// CPU is an in-process Intersector. Each ray reports the triangle nearest to
// its origin along its supporting line, in front of or behind the origin.
type CPU struct{}

var _ Intersector = CPU{}

// Intersect implements Intersector.
func (CPU) Intersect(origins, directions, vertices []math.Vec3, indices []uint32) ([]int, error) {
	if len(origins) != len(directions) {
		return nil, fmt.Errorf("%w: %d origins, %d directions", ErrRayMismatch, len(origins), len(directions))
	}
	if err := validateIndices(vertices, indices); err != nil {
		return nil, err
	}

	tree := buildBVH(vertices, indices)
	hits := make([]int, len(origins))
	for i := range origins {
		hits[i], _ = tree.nearest(NewRay(origins[i], directions[i]), vertices, indices)
	}
	return hits, nil
}

// HitDistance returns the signed distance along r to triangle tri, turning
// an Intersector hit id back into a distance.
func HitDistance(r Ray, vertices []math.Vec3, indices []uint32, tri int) (float64, bool) {
	if tri < 0 || 3*tri+2 >= len(indices) {
		return 0, false
	}
	return r.IntersectTriangle(
		vertices[indices[3*tri]],
		vertices[indices[3*tri+1]],
		vertices[indices[3*tri+2]],
	)
}

func validateIndices(vertices []math.Vec3, indices []uint32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of 3", ErrBadIndexList, len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrBadIndexList, idx, i, len(vertices))
		}
	}
	return nil
}
