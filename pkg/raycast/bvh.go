package raycast

import (
	"slices"

	"github.com/Faultbox/quadtess/pkg/math"
)

// leafSize is the most triangles stored in one BVH leaf.
const leafSize = 4

// bvhNode is one node of a flattened bounding volume hierarchy. Inner nodes
// have count == 0 and index their children; leaves index a run of
// triangles in the order slice.
type bvhNode struct {
	box         AABB
	left, right int32
	first       int32
	count       int32
}

type bvhPrimitive struct {
	box    AABB
	center math.Vec3
	tri    int32
}

// bvh accelerates nearest-hit queries over a triangle list.
type bvh struct {
	nodes []bvhNode
	order []int32
}

func buildBVH(vertices []math.Vec3, indices []uint32) *bvh {
	n := len(indices) / 3
	prims := make([]bvhPrimitive, n)
	for i := range n {
		box := BoundsOf(
			vertices[indices[3*i]],
			vertices[indices[3*i+1]],
			vertices[indices[3*i+2]],
		)
		prims[i] = bvhPrimitive{box: box, center: box.Center(), tri: int32(i)}
	}

	b := &bvh{}
	if n > 0 {
		b.split(prims)
	}
	return b
}

// split appends the node covering prims and returns its index.
func (b *bvh) split(prims []bvhPrimitive) int32 {
	box := prims[0].box
	centers := AABB{Min: prims[0].center, Max: prims[0].center}
	for _, p := range prims[1:] {
		box = box.Union(p.box)
		centers.Min = centers.Min.Min(p.center)
		centers.Max = centers.Max.Max(p.center)
	}

	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{box: box})

	if len(prims) <= leafSize {
		b.nodes[idx].first = int32(len(b.order))
		b.nodes[idx].count = int32(len(prims))
		for _, p := range prims {
			b.order = append(b.order, p.tri)
		}
		return idx
	}

	// Median split along the widest axis of the centroid bounds.
	extent := centers.Max.Sub(centers.Min).Array()
	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}
	slices.SortFunc(prims, func(a, b bvhPrimitive) int {
		ca, cb := a.center.Array()[axis], b.center.Array()[axis]
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return int(a.tri - b.tri)
	})

	mid := len(prims) / 2
	left := b.split(prims[:mid])
	right := b.split(prims[mid:])
	b.nodes[idx].left = left
	b.nodes[idx].right = right
	return idx
}

// nearest returns the triangle whose hit lies closest to the ray origin
// along the supporting line, or -1. Equal distances resolve to the lower
// triangle index.
func (b *bvh) nearest(r Ray, vertices []math.Vec3, indices []uint32) (tri int, t float64) {
	tri = -1
	if len(b.nodes) == 0 {
		return tri, 0
	}

	bestAbs := 0.0
	stack := []int32{0}
	for len(stack) > 0 {
		node := b.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !r.CrossesAABB(node.box) {
			continue
		}
		if node.count == 0 {
			stack = append(stack, node.left, node.right)
			continue
		}

		for _, id := range b.order[node.first : node.first+node.count] {
			i := int(id)
			hitT, ok := r.IntersectTriangle(
				vertices[indices[3*i]],
				vertices[indices[3*i+1]],
				vertices[indices[3*i+2]],
			)
			if !ok {
				continue
			}
			abs := max(hitT, -hitT)
			if tri < 0 || abs < bestAbs || (abs == bestAbs && i < tri) {
				tri, t, bestAbs = i, hitT, abs
			}
		}
	}
	return tri, t
}
