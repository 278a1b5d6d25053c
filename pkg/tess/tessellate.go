package tess

import (
	"github.com/Faultbox/quadtess/pkg/math"
)

// singularStep is the inner grid step below which nearest-index lookups
// along that axis are skipped.
const singularStep = 1e-12

// Tessellate triangulates q. When sampler is non-nil every vertex is
// displaced along its interpolated normal by the height sampled at its
// interpolated UV.
//
// All triangles are counter-clockwise in the patch's (u, v) parameter space.
// Tessellate never mutates p.
func Tessellate(q Quad, p Params, sampler DisplacementSampler) (Mesh[Vertex], error) {
	return Build(p, QuadBlend(q, sampler))
}

// TessellatePoints triangulates a patch given by its corner positions only,
// in winding order (0,0), (1,0), (1,1), (0,1).
func TessellatePoints(corners [4]math.Vec3, p Params) (Mesh[math.Vec3], error) {
	return Build(p, PointBlend(corners))
}

// Build runs the tessellation for any vertex type. blend is called once per
// distinct parametric coordinate.
func Build[V any](p Params, blend BlendFunc[V]) (Mesh[V], error) {
	rp, err := Resolve(p)
	if err != nil {
		return Mesh[V]{}, err
	}

	t := newTessellator(rp, blend)
	t.innerGrid()
	for _, s := range Sides {
		t.stitch(s)
	}
	t.closeDegenerate()

	return Mesh[V]{Vertices: t.cache.Vertices(), Triangles: t.tris}, nil
}

type tessellator[V any] struct {
	p      ResolvedParams
	du, dv float64
	cache  *VertexCache[V]
	tris   []Triangle
}

func newTessellator[V any](p ResolvedParams, blend BlendFunc[V]) *tessellator[V] {
	t := &tessellator[V]{p: p, cache: NewVertexCache(blend)}
	lift := p.Lift
	if iu := p.Inner[0]; iu > 0 {
		t.du = (1 - lift[Left] - lift[Right]) / float64(iu)
	}
	if iv := p.Inner[1]; iv > 0 {
		t.dv = (1 - lift[Bottom] - lift[Top]) / float64(iv)
	}
	return t
}

func (t *tessellator[V]) add(a, b, c uint32) {
	t.tris = append(t.tris, Triangle{a, b, c})
}

// innerU and innerV are the only places grid line coordinates are computed,
// so the grid and the stitching fans agree bit for bit.
func (t *tessellator[V]) innerU(j int) float64 {
	return t.p.Lift[Left] + float64(j)*t.du
}

func (t *tessellator[V]) innerV(j int) float64 {
	return t.p.Lift[Bottom] + float64(j)*t.dv
}

// innerGrid emits the regular iu x iv grid, two triangles per cell split
// along the same diagonal.
func (t *tessellator[V]) innerGrid() {
	iu, iv := t.p.Inner[0], t.p.Inner[1]
	if iu <= 0 || iv <= 0 {
		return
	}
	for jv := range iv {
		v0, v1 := t.innerV(jv), t.innerV(jv+1)
		for ju := range iu {
			u0, u1 := t.innerU(ju), t.innerU(ju+1)
			a := t.cache.Emit(u0, v0)
			b := t.cache.Emit(u1, v0)
			c := t.cache.Emit(u0, v1)
			d := t.cache.Emit(u1, v1)
			t.add(a, b, c)
			t.add(b, d, c)
		}
	}
}

// edgeFrame places one side's transition band in parameter space.
type edgeFrame struct {
	alongU   bool    // the edge parameter runs along u
	boundary float64 // fixed coordinate of the patch edge
	inner    float64 // fixed coordinate of the adjacent inner grid line
	ccw      bool    // (edge direction, inward direction) is counter-clockwise
}

func (f edgeFrame) uv(t, depth float64) (float64, float64) {
	if f.alongU {
		return t, depth
	}
	return depth, t
}

// band describes the inner grid line a side is stitched to.
type band struct {
	frame edgeFrame
	start float64
	step  float64
	count int
	at    func(j int) float64
}

func (t *tessellator[V]) bandOf(s Side) band {
	lift := t.p.Lift
	iu, iv := t.p.Inner[0], t.p.Inner[1]

	// The far grid lines are taken from the grid itself when it exists so
	// that both code paths produce identical coordinates.
	right, top := 1-lift[Right], 1-lift[Top]
	if iu > 0 {
		right = t.innerU(iu)
	}
	if iv > 0 {
		top = t.innerV(iv)
	}

	switch s {
	case Bottom:
		return band{edgeFrame{true, 0, lift[Bottom], true}, lift[Left], t.du, iu, t.innerU}
	case Right:
		return band{edgeFrame{false, 1, right, true}, lift[Bottom], t.dv, iv, t.innerV}
	case Top:
		return band{edgeFrame{true, 1, top, false}, lift[Left], t.du, iu, t.innerU}
	default:
		return band{edgeFrame{false, 0, lift[Left], false}, lift[Bottom], t.dv, iv, t.innerV}
	}
}

func (t *tessellator[V]) emit(f edgeFrame, along, depth float64) uint32 {
	return t.cache.Emit(f.uv(along, depth))
}

// stitch fills the transition band of side s with two fans. The I0 fan has
// one triangle per boundary segment, apex at the nearest inner line sample;
// the I1 fan has one triangle per inner segment, apex at the nearest
// boundary sample. The fans round exact ties in opposite directions so they
// never overlap.
func (t *tessellator[V]) stitch(s Side) {
	rate := t.p.Edge[s]
	b := t.bandOf(s)
	if rate <= 0 || b.count <= 0 || t.p.Lift[s] <= 0 {
		return
	}
	f := b.frame

	edge := BoundarySamples(rate, 0, 1)
	for k := 0; k+1 < len(edge); k++ {
		r := 0
		if b.step > singularStep {
			mid := (edge[k] + edge[k+1]) * 0.5
			r = NearestIndex((mid-b.start)/b.step, 0, b.count, !t.p.I0PreferLower)
		}
		e0 := t.emit(f, edge[k], f.boundary)
		e1 := t.emit(f, edge[k+1], f.boundary)
		apex := t.emit(f, b.at(r), f.inner)
		if f.ccw {
			t.add(e0, e1, apex)
		} else {
			t.add(e1, e0, apex)
		}
	}

	for j := range b.count {
		mid := b.start + (float64(j)+0.5)*b.step
		k := NearestIndex(float64(rate)*mid, 0, rate, t.p.I0PreferLower)
		i0 := t.emit(f, b.at(j), f.inner)
		i1 := t.emit(f, b.at(j+1), f.inner)
		apex := t.emit(f, float64(k)/float64(rate), f.boundary)
		if f.ccw {
			t.add(i1, i0, apex)
		} else {
			t.add(i0, i1, apex)
		}
	}
}

// closeDegenerate emits the bare quad when there is neither an inner grid
// nor a band to stitch.
func (t *tessellator[V]) closeDegenerate() {
	p := t.p
	if p.Inner[0] != 0 || p.Inner[1] != 0 {
		return
	}
	for _, s := range Sides {
		if p.Edge[s] != 1 {
			return
		}
	}
	a := t.cache.Emit(0, 0)
	b := t.cache.Emit(1, 0)
	c := t.cache.Emit(0, 1)
	d := t.cache.Emit(1, 1)
	t.add(a, b, c)
	t.add(b, d, c)
}
