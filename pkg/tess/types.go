// Package tess builds crack-free triangulations of quadrilateral surface
// patches.
//
// A patch is tessellated from four independent edge rates and an inner grid
// resolution. The inner grid is inset from each side by a transition band
// (the lift) and every band is stitched to its edge with two complementary
// triangle fans, so a patch always matches, vertex for vertex, the sampling
// chosen for a shared edge by its neighbour.
package tess

import (
	"errors"

	"github.com/Faultbox/quadtess/pkg/math"
)

var (
	// ErrCollapsedRegion is returned when opposite transition bands leave no
	// room for the inner region.
	ErrCollapsedRegion = errors.New("inner region collapsed")
	// ErrInvalidParams is returned for negative rates or non-finite lifts.
	ErrInvalidParams = errors.New("invalid tessellation params")
)

// Side identifies one edge of a quad patch.
type Side int

const (
	Bottom Side = iota // v = 0
	Right              // u = 1
	Top                // v = 1
	Left               // u = 0
)

var sideNames = [...]string{"bottom", "right", "top", "left"}

// String returns the side name.
func (s Side) String() string {
	if s < Bottom || s > Left {
		return "unknown"
	}
	return sideNames[s]
}

// Sides lists the four sides in emission order.
var Sides = [4]Side{Bottom, Right, Top, Left}

// Vertex is a patch vertex with all interpolated attributes.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
}

// Quad holds the four corners of a patch in winding order
// (0,0), (1,0), (1,1), (0,1).
type Quad [4]Vertex

// Triangle holds three indices into a mesh's vertex list.
type Triangle [3]uint32

// Mesh is the result of a tessellation call.
type Mesh[V any] struct {
	Vertices  []V
	Triangles []Triangle
}

// Params describes how a patch should be tessellated.
type Params struct {
	// Edge holds the subdivision rate of each side, indexed by Side.
	Edge [4]int
	// Inner holds the inner grid resolution along u and v.
	Inner [2]int
	// Lift optionally fixes the transition band width of each side, indexed
	// by Side. When nil the width is derived from Edge and Inner.
	Lift *[4]float64
	// I0PreferLower selects the exact-tie rule of the stitching fans. When
	// set, the edge-based fan rounds ties down and the inner-based fan rounds
	// them up; otherwise the other way around.
	I0PreferLower bool
}

// ResolvedParams is Params with the transition bands fixed. It is produced
// by Resolve and never shares state with the caller's Params.
type ResolvedParams struct {
	Edge          [4]int
	Inner         [2]int
	Lift          [4]float64
	I0PreferLower bool
}
