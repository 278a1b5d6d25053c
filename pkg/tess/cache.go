package tess

import (
	gomath "math"

	"github.com/Faultbox/quadtess/pkg/math"
)

// keyScale is the fixed precision of cache keys: coordinates that round to
// the same multiple of 1e-9 share one vertex.
const keyScale = 1e9

type cacheKey struct {
	u, v int64
}

func makeKey(u, v float64) cacheKey {
	return cacheKey{int64(gomath.Round(u * keyScale)), int64(gomath.Round(v * keyScale))}
}

// BlendFunc produces the vertex at a parametric coordinate of a patch.
type BlendFunc[V any] func(u, v float64) V

// VertexCache deduplicates vertices by parametric coordinate. Inner grid
// and stitching fans compute shared seam coordinates independently; the
// cache makes them resolve to the same index.
//
// A VertexCache is not safe for concurrent use.
type VertexCache[V any] struct {
	blend    BlendFunc[V]
	index    map[cacheKey]uint32
	vertices []V
}

// NewVertexCache returns an empty cache producing vertices with blend.
func NewVertexCache[V any](blend BlendFunc[V]) *VertexCache[V] {
	return &VertexCache[V]{
		blend: blend,
		index: make(map[cacheKey]uint32),
	}
}

// Emit returns the index of the vertex at (u, v), creating it on first use.
// Coordinates are clamped to [0, 1].
func (c *VertexCache[V]) Emit(u, v float64) uint32 {
	u = math.Clamp(u, 0, 1)
	v = math.Clamp(v, 0, 1)

	key := makeKey(u, v)
	if idx, ok := c.index[key]; ok {
		return idx
	}

	idx := uint32(len(c.vertices))
	c.vertices = append(c.vertices, c.blend(u, v))
	c.index[key] = idx
	return idx
}

// Len returns the number of distinct vertices emitted so far.
func (c *VertexCache[V]) Len() int {
	return len(c.vertices)
}

// Vertices returns the emitted vertices in emission order.
func (c *VertexCache[V]) Vertices() []V {
	return c.vertices
}

// QuadBlend returns a BlendFunc interpolating all attributes of q. The
// normal is renormalised after blending. When sampler is non-nil each
// position is pushed along its normal by the height sampled at its UV.
func QuadBlend(q Quad, sampler DisplacementSampler) BlendFunc[Vertex] {
	var pos, nrm [4]math.Vec3
	var uvs [4]math.Vec2
	for i, c := range q {
		pos[i] = c.Position
		nrm[i] = c.Normal
		uvs[i] = c.UV
	}

	return func(u, v float64) Vertex {
		vtx := Vertex{
			Position: math.Bilinear3(pos, u, v),
			Normal:   math.Bilinear3(nrm, u, v).Normalize(),
			UV:       math.Bilinear2(uvs, u, v),
		}
		if sampler != nil {
			h := sampler.Sample(vtx.UV.X, vtx.UV.Y)
			vtx.Position = vtx.Position.Add(vtx.Normal.Scale(h))
		}
		return vtx
	}
}

// PointBlend returns a BlendFunc interpolating corner positions only.
func PointBlend(corners [4]math.Vec3) BlendFunc[math.Vec3] {
	return func(u, v float64) math.Vec3 {
		return math.Bilinear3(corners, u, v)
	}
}
