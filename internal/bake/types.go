// Package bake generates tessellation training data. For every quad of a
// baked mesh it sweeps the per-edge rates, measures how far each
// tessellation strays from a reference surface, and compresses the sweep
// into a Pareto table of cheapest rates per error target.
package bake

import (
	"errors"
	"runtime"

	"github.com/Faultbox/quadtess/pkg/math"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// ErrInvalidOptions is returned for a non-positive rate or sample count.
var ErrInvalidOptions = errors.New("invalid bake options")

// maxDefaultWorkers caps the default worker count.
const maxDefaultWorkers = 8

// Options controls the rate sweep.
type Options struct {
	// MaxRate is the largest per-edge rate tried; rates run 1..MaxRate.
	MaxRate int
	// SamplesPerDim is the side of the square grid of probe rays per quad.
	SamplesPerDim int
	// Workers is the number of quads processed concurrently. Zero or
	// negative selects min(8, NumCPU).
	Workers int
}

// DefaultOptions returns the sweep used for training data.
func DefaultOptions() Options {
	return Options{
		MaxRate:       4,
		SamplesPerDim: 16,
		Workers:       DefaultWorkers(),
	}
}

// DefaultWorkers returns min(8, NumCPU).
func DefaultWorkers() int {
	return min(maxDefaultWorkers, runtime.NumCPU())
}

// QuadPatch is one quad of the baked mesh.
type QuadPatch struct {
	ID int
	// Verts are the baked-mesh position indices of the corners.
	Verts [4]int
	Quad  tess.Quad
}

// Reference is the triangle mesh the tessellations are measured against.
type Reference struct {
	Vertices []math.Vec3
	Indices  []uint32
}

// Row is the measured error of one rate combination on one quad.
type Row struct {
	QuadID int
	Verts  [4]int
	// Rates are the bottom, right, top and left edge rates.
	Rates [4]int
	// Epsilon is the largest distance between reference and tessellated
	// hits along the probe rays, or -1 when no ray hit both.
	Epsilon float64
}

// ParetoRow pairs an error target with the cheapest rates meeting it.
type ParetoRow struct {
	QuadID        int
	Verts         [4]int
	EpsilonTarget float64
	Rates         [4]int
}

// Batch is every row produced for one quad. Sinks write it as a unit.
type Batch struct {
	QuadID int
	Rows   []Row
	Pareto []ParetoRow
}

// Stats summarises a run.
type Stats struct {
	Quads      int
	Completed  int
	Failed     int
	Rows       int
	ParetoRows int
}
