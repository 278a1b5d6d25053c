package bake

import (
	"encoding/csv"
	"errors"
	gomath "math"
	"os"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/quadtess/internal/meshio"
	"github.com/Faultbox/quadtess/pkg/math"
	"github.com/Faultbox/quadtess/pkg/raycast"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// flatPatch returns a unit quad in the z=0 plane shifted by dx along x,
// with UVs in an 8x8 pixel field.
func flatPatch(id int, dx float64) QuadPatch {
	corner := func(x, y float64) tess.Vertex {
		return tess.Vertex{
			Position: math.Vec3{X: x + dx, Y: y},
			Normal:   math.Vec3{Z: 1},
			UV:       math.Vec2{X: 8 * x, Y: 8 * y},
		}
	}
	return QuadPatch{
		ID:    id,
		Verts: [4]int{4 * id, 4*id + 1, 4*id + 2, 4*id + 3},
		Quad:  tess.Quad{corner(0, 0), corner(1, 0), corner(1, 1), corner(0, 1)},
	}
}

// plane returns a 2-triangle reference covering [x0,x1]x[0,1] at z=0.
func plane(x0, x1 float64) Reference {
	return Reference{
		Vertices: []math.Vec3{{X: x0}, {X: x1}, {X: x1, Y: 1}, {X: x0, Y: 1}},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

// failingIntersector fails for rays whose first origin lies at or beyond
// x = limit and defers to the CPU intersector otherwise.
type failingIntersector struct {
	limit float64
	panic bool
}

func (f failingIntersector) Intersect(origins, dirs, vertices []math.Vec3, indices []uint32) ([]int, error) {
	if len(origins) > 0 && origins[0].X >= f.limit {
		if f.panic {
			panic("intersector crashed")
		}
		return nil, errors.New("device lost")
	}
	return raycast.CPU{}.Intersect(origins, dirs, vertices, indices)
}

type failingSink struct{ writes int }

func (s *failingSink) WriteBatch(Batch) error {
	s.writes++
	return errors.New("disk full")
}

func testOptions() Options {
	return Options{MaxRate: 2, SamplesPerDim: 4, Workers: 2}
}

func TestNewDriver_InvalidOptions(t *testing.T) {
	for _, opts := range []Options{{MaxRate: 0, SamplesPerDim: 4}, {MaxRate: 2, SamplesPerDim: 0}} {
		if _, err := NewDriver(opts, nil, nil, zap.NewNop()); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("NewDriver(%+v) error = %v, want ErrInvalidOptions", opts, err)
		}
	}
}

func TestProbeRays(t *testing.T) {
	origins, dirs := ProbeRays(flatPatch(0, 0).Quad, 3)
	if len(origins) != 9 || len(dirs) != 9 {
		t.Fatalf("got %d/%d rays, want 9", len(origins), len(dirs))
	}

	// v-major: index 1 is u=0.5, v=0.
	want := math.Vec3{X: 0.5, Y: 0, Z: -rayOffset}
	if origins[1].Distance(want) > 1e-12 {
		t.Errorf("origins[1] = %v, want %v", origins[1], want)
	}
	if origins[5].Distance(math.Vec3{X: 1, Y: 0.5, Z: -rayOffset}) > 1e-12 {
		t.Errorf("origins[5] = %v, want (1, 0.5)", origins[5])
	}
	for i, d := range dirs {
		if gomath.Abs(d.Z-1) > 1e-7 || d.X != 0 || d.Y != 0 {
			t.Errorf("dirs[%d] = %v, want +z", i, d)
		}
	}

	single, _ := ProbeRays(flatPatch(0, 0).Quad, 1)
	if len(single) != 1 || single[0].Distance(math.Vec3{Z: -rayOffset}) > 1e-12 {
		t.Errorf("single probe = %v, want the first corner", single)
	}
}

func TestProcessQuad_Displaced(t *testing.T) {
	sampler := tess.SamplerFunc(func(u, v float64) float64 { return 0.5 })
	d, err := NewDriver(testOptions(), raycast.CPU{}, sampler, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}

	batch, err := d.ProcessQuad(flatPatch(0, 0), plane(0, 1))
	if err != nil {
		t.Fatalf("ProcessQuad failed: %v", err)
	}
	if len(batch.Rows) != 16 {
		t.Fatalf("got %d rows, want 16", len(batch.Rows))
	}

	seen := make(map[[4]int]bool)
	for _, r := range batch.Rows {
		// Probe directions are scaled by 1/(1+1e-8), which stretches t.
		if gomath.Abs(r.Epsilon-0.5) > 1e-6 {
			t.Errorf("rates %v: epsilon = %v, want 0.5", r.Rates, r.Epsilon)
		}
		seen[r.Rates] = true
	}
	if len(seen) != 16 {
		t.Errorf("got %d distinct rate combinations, want 16", len(seen))
	}
	if batch.Rows[0].Rates != [4]int{1, 1, 1, 1} || batch.Rows[15].Rates != [4]int{2, 2, 2, 2} {
		t.Errorf("sweep order: first %v, last %v", batch.Rows[0].Rates, batch.Rows[15].Rates)
	}

	if len(batch.Pareto) != 16 {
		t.Fatalf("got %d pareto rows, want 16", len(batch.Pareto))
	}
	if last := batch.Pareto[len(batch.Pareto)-1]; last.Rates != [4]int{1, 1, 1, 1} {
		t.Errorf("last pareto rates = %v, want [1 1 1 1]", last.Rates)
	}
}

func TestProcessQuad_NoHits(t *testing.T) {
	d, err := NewDriver(testOptions(), raycast.CPU{}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}

	batch, err := d.ProcessQuad(flatPatch(0, 0), plane(5, 6))
	if err != nil {
		t.Fatalf("ProcessQuad failed: %v", err)
	}
	for _, r := range batch.Rows {
		if r.Epsilon != -1 {
			t.Errorf("rates %v: epsilon = %v, want -1", r.Rates, r.Epsilon)
		}
	}
	if len(batch.Pareto) != 0 {
		t.Errorf("got %d pareto rows without hits, want 0", len(batch.Pareto))
	}
}

func TestRun_SkipsFailedQuads(t *testing.T) {
	for _, panics := range []bool{false, true} {
		d, err := NewDriver(testOptions(), failingIntersector{limit: 10, panic: panics}, nil, zap.NewNop())
		if err != nil {
			t.Fatalf("NewDriver failed: %v", err)
		}

		quads := []QuadPatch{flatPatch(0, 0), flatPatch(1, 10), flatPatch(2, 2)}
		ref := plane(0, 20)
		sink := &MemorySink{}

		stats, err := d.Run(quads, ref, sink)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		want := Stats{Quads: 3, Completed: 2, Failed: 1, Rows: 32, ParetoRows: 32}
		if stats != want {
			t.Errorf("panic=%v: stats = %+v, want %+v", panics, stats, want)
		}

		var ids []int
		for _, b := range sink.Batches {
			ids = append(ids, b.QuadID)
			for _, r := range b.Rows {
				if r.QuadID != b.QuadID {
					t.Errorf("batch %d holds a row of quad %d", b.QuadID, r.QuadID)
				}
			}
		}
		slices.Sort(ids)
		if !slices.Equal(ids, []int{0, 2}) {
			t.Errorf("panic=%v: written quads = %v, want [0 2]", panics, ids)
		}
	}
}

func TestRun_SinkErrorStopsWrites(t *testing.T) {
	d, err := NewDriver(testOptions(), nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}

	sink := &failingSink{}
	quads := []QuadPatch{flatPatch(0, 0), flatPatch(1, 1), flatPatch(2, 2)}
	stats, err := d.Run(quads, plane(0, 3), sink)
	if err == nil {
		t.Fatal("Run should report the sink error")
	}
	if sink.writes != 1 {
		t.Errorf("sink written %d times after failing, want 1", sink.writes)
	}
	if stats.Completed != 0 {
		t.Errorf("stats.Completed = %d, want 0", stats.Completed)
	}
}

func TestQuadsFromOBJ(t *testing.T) {
	src := []byte(`v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 32 0
vt 32 32
vt 0 32
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`)
	obj, err := meshio.ParseOBJ(src)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	quads, err := QuadsFromOBJ(obj)
	if err != nil {
		t.Fatalf("QuadsFromOBJ failed: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("got %d quads, want 1", len(quads))
	}
	q := quads[0]
	if q.Verts != [4]int{0, 1, 2, 3} {
		t.Errorf("Verts = %v, want [0 1 2 3]", q.Verts)
	}
	if q.Quad[2].UV != (math.Vec2{X: 32, Y: 32}) || q.Quad[2].Position != (math.Vec3{X: 1, Y: 1}) {
		t.Errorf("corner 2 = %+v", q.Quad[2])
	}

	ref := ReferenceFromOBJ(obj)
	if len(ref.Indices) != 6 || len(ref.Vertices) != 4 {
		t.Errorf("reference has %d indices over %d vertices, want 6 over 4", len(ref.Indices), len(ref.Vertices))
	}
}

func TestCSVSink(t *testing.T) {
	base := t.TempDir() + "/mesh"
	sink, err := NewCSVSink(base)
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}

	batch := Batch{
		QuadID: 7,
		Rows: []Row{
			{QuadID: 7, Verts: [4]int{1, 2, 3, 4}, Rates: [4]int{1, 2, 3, 4}, Epsilon: 0.25},
			{QuadID: 7, Verts: [4]int{1, 2, 3, 4}, Rates: [4]int{2, 2, 2, 2}, Epsilon: -1},
		},
		Pareto: []ParetoRow{
			{QuadID: 7, Verts: [4]int{1, 2, 3, 4}, EpsilonTarget: 0.25, Rates: [4]int{1, 2, 3, 4}},
		},
	}
	if err := sink.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	quads := readCSV(t, base+QuadsSuffix)
	if len(quads) != 3 {
		t.Fatalf("quads CSV has %d records, want 3", len(quads))
	}
	if !slices.Equal(quads[0], quadsHeader) {
		t.Errorf("quads header = %v", quads[0])
	}
	if want := []string{"7", "1", "2", "3", "4", "1", "2", "3", "4", "0.25"}; !slices.Equal(quads[1], want) {
		t.Errorf("quads row = %v, want %v", quads[1], want)
	}
	if quads[2][9] != "-1" {
		t.Errorf("miss epsilon = %q, want -1", quads[2][9])
	}

	pareto := readCSV(t, base+ParetoSuffix)
	if want := []string{"7", "1", "2", "3", "4", "0.25", "1", "2", "3", "4"}; len(pareto) != 2 || !slices.Equal(pareto[1], want) {
		t.Errorf("pareto records = %v, want header + %v", pareto, want)
	}
}

func TestWritePoints(t *testing.T) {
	base := t.TempDir() + "/mesh"
	if err := WritePoints(base, []math.Vec3{{X: 1, Y: 2, Z: 3}, {X: -0.5}}); err != nil {
		t.Fatalf("WritePoints failed: %v", err)
	}

	points := readCSV(t, base+PointsSuffix)
	want := [][]string{pointsHeader, {"0", "1", "2", "3"}, {"1", "-0.5", "0", "0"}}
	if len(points) != len(want) {
		t.Fatalf("got %d records, want %d", len(points), len(want))
	}
	for i := range want {
		if !slices.Equal(points[i], want[i]) {
			t.Errorf("record %d = %v, want %v", i, points[i], want[i])
		}
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}
