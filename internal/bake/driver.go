package bake

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/quadtess/internal/logger"
	"github.com/Faultbox/quadtess/internal/workerpool"
	"github.com/Faultbox/quadtess/pkg/math"
	"github.com/Faultbox/quadtess/pkg/raycast"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// Sink receives each quad's rows. WriteBatch is only ever called from one
// goroutine, once per successful quad.
type Sink interface {
	WriteBatch(b Batch) error
}

// Driver sweeps edge rates over a set of quads.
type Driver struct {
	opts        Options
	intersector raycast.Intersector
	sampler     tess.DisplacementSampler
	log         *zap.Logger
}

// NewDriver creates a driver. A nil sampler tessellates without
// displacement; a nil log uses the global logger.
func NewDriver(opts Options, intersector raycast.Intersector, sampler tess.DisplacementSampler, log *zap.Logger) (*Driver, error) {
	if opts.MaxRate < 1 || opts.SamplesPerDim < 1 {
		return nil, fmt.Errorf("%w: max rate %d, samples per dim %d", ErrInvalidOptions, opts.MaxRate, opts.SamplesPerDim)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if intersector == nil {
		intersector = raycast.CPU{}
	}
	if log == nil {
		log = logger.Log
	}
	return &Driver{
		opts:        opts,
		intersector: intersector,
		sampler:     sampler,
		log:         log.Named("bake"),
	}, nil
}

// Run processes every quad on a fixed pool of workers and writes each
// finished quad's batch to sink as results complete. A quad that fails is
// logged and skipped. A sink error stops further writes; Run still waits
// for in-flight quads before returning it.
func (d *Driver) Run(quads []QuadPatch, ref Reference, sink Sink) (Stats, error) {
	stats := Stats{Quads: len(quads)}
	d.log.Info("starting rate sweep",
		zap.Int("quads", len(quads)),
		zap.Int("maxRate", d.opts.MaxRate),
		zap.Int("raysPerQuad", d.opts.SamplesPerDim*d.opts.SamplesPerDim),
		zap.Int("workers", d.opts.Workers))

	pool := workerpool.New[Batch](d.opts.Workers)
	defer pool.Close()

	for _, q := range quads {
		pool.Submit(q.ID, func() (Batch, error) {
			return d.ProcessQuad(q, ref)
		})
	}

	var sinkErr error
	completed := pool.Completed()
	for range quads {
		f := <-completed
		batch, err := f.Wait()
		if err != nil {
			stats.Failed++
			d.log.Error("quad failed", zap.Int("quad", f.ID), zap.Error(err))
			continue
		}
		if sinkErr != nil {
			continue
		}
		if err := sink.WriteBatch(batch); err != nil {
			sinkErr = fmt.Errorf("writing quad %d: %w", f.ID, err)
			d.log.Error("sink failed, draining remaining quads", zap.Int("quad", f.ID), zap.Error(err))
			continue
		}

		stats.Completed++
		stats.Rows += len(batch.Rows)
		stats.ParetoRows += len(batch.Pareto)
		d.log.Info("quad completed",
			zap.Int("quad", f.ID),
			zap.Int("done", stats.Completed),
			zap.Int("total", stats.Quads))
	}

	d.log.Info("rate sweep finished",
		zap.Int("completed", stats.Completed),
		zap.Int("failed", stats.Failed),
		zap.Int("rows", stats.Rows),
		zap.Int("paretoRows", stats.ParetoRows))
	return stats, sinkErr
}

// ProcessQuad measures every rate combination 1..MaxRate on each edge of
// one quad. The inner grid follows the edges: ((bottom+top)/2,
// (right+left)/2) with integer division.
func (d *Driver) ProcessQuad(q QuadPatch, ref Reference) (Batch, error) {
	origins, dirs := ProbeRays(q.Quad, d.opts.SamplesPerDim)

	tRef, err := d.distances(origins, dirs, ref.Vertices, ref.Indices)
	if err != nil {
		return Batch{}, fmt.Errorf("reference mesh: %w", err)
	}

	n := d.opts.MaxRate
	rows := make([]Row, 0, n*n*n*n)
	for bottom := 1; bottom <= n; bottom++ {
		for right := 1; right <= n; right++ {
			for top := 1; top <= n; top++ {
				for left := 1; left <= n; left++ {
					rates := [4]int{bottom, right, top, left}
					eps, err := d.epsilon(q.Quad, rates, origins, dirs, tRef)
					if err != nil {
						return Batch{}, fmt.Errorf("rates %v: %w", rates, err)
					}
					rows = append(rows, Row{QuadID: q.ID, Verts: q.Verts, Rates: rates, Epsilon: eps})
				}
			}
		}
	}

	return Batch{QuadID: q.ID, Rows: rows, Pareto: Pareto(rows)}, nil
}

// epsilon tessellates the quad at the given rates and returns the largest
// difference in hit distance against tRef, or -1 if no ray hits both.
func (d *Driver) epsilon(q tess.Quad, rates [4]int, origins, dirs []math.Vec3, tRef []float64) (float64, error) {
	p := tess.Params{
		Edge:  rates,
		Inner: [2]int{(rates[tess.Bottom] + rates[tess.Top]) / 2, (rates[tess.Right] + rates[tess.Left]) / 2},
	}
	mesh, err := tess.Tessellate(q, p, d.sampler)
	if err != nil {
		return 0, err
	}

	vertices := make([]math.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		vertices[i] = v.Position
	}
	indices := make([]uint32, 0, 3*len(mesh.Triangles))
	for _, t := range mesh.Triangles {
		indices = append(indices, t[0], t[1], t[2])
	}

	tTess, err := d.distances(origins, dirs, vertices, indices)
	if err != nil {
		return 0, fmt.Errorf("tessellated mesh: %w", err)
	}

	eps := -1.0
	for i := range tRef {
		if tRef[i] > 0 && tTess[i] > 0 {
			eps = max(eps, gomath.Abs(tRef[i]-tTess[i]))
		}
	}
	return eps, nil
}

// distances casts the rays and returns the unsigned hit distance per ray,
// or -1 for a miss.
func (d *Driver) distances(origins, dirs, vertices []math.Vec3, indices []uint32) ([]float64, error) {
	hits, err := d.intersector.Intersect(origins, dirs, vertices, indices)
	if err != nil {
		return nil, err
	}
	if len(hits) != len(origins) {
		return nil, fmt.Errorf("intersector returned %d hits for %d rays", len(hits), len(origins))
	}

	out := make([]float64, len(hits))
	for i, tri := range hits {
		out[i] = -1
		if tri < 0 {
			continue
		}
		t, ok := raycast.HitDistance(raycast.Ray{Origin: origins[i], Direction: dirs[i]}, vertices, indices, tri)
		if ok {
			out[i] = gomath.Abs(t)
		}
	}
	return out, nil
}
