package bake

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/Faultbox/quadtess/pkg/math"
)

// Output file suffixes appended to the output base path.
const (
	PointsSuffix = "_points.csv"
	QuadsSuffix  = "_quads.csv"
	ParetoSuffix = "_quads_pareto.csv"
)

var (
	pointsHeader = []string{"point_id", "x", "y", "z"}
	quadsHeader  = []string{
		"quad_id", "v0", "v1", "v2", "v3",
		"sample_rate_bottom", "sample_rate_right", "sample_rate_top", "sample_rate_left",
		"epsilon",
	}
	paretoHeader = []string{
		"quad_id", "v0", "v1", "v2", "v3",
		"epsilon_target",
		"sample_rate_bottom", "sample_rate_right", "sample_rate_top", "sample_rate_left",
	}
)

// MemorySink keeps batches in memory.
type MemorySink struct {
	mu      sync.Mutex
	Batches []Batch
}

// WriteBatch implements Sink.
func (s *MemorySink) WriteBatch(b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Batches = append(s.Batches, b)
	return nil
}

// CSVSink writes the full sweep and the Pareto table to two CSV files.
type CSVSink struct {
	quadsFile  *os.File
	paretoFile *os.File
	quads      *csv.Writer
	pareto     *csv.Writer
}

// NewCSVSink creates <base>_quads.csv and <base>_quads_pareto.csv and
// writes their headers.
func NewCSVSink(base string) (*CSVSink, error) {
	quadsFile, err := os.Create(base + QuadsSuffix)
	if err != nil {
		return nil, fmt.Errorf("creating quads CSV: %w", err)
	}
	paretoFile, err := os.Create(base + ParetoSuffix)
	if err != nil {
		quadsFile.Close()
		return nil, fmt.Errorf("creating pareto CSV: %w", err)
	}

	s := &CSVSink{
		quadsFile:  quadsFile,
		paretoFile: paretoFile,
		quads:      csv.NewWriter(quadsFile),
		pareto:     csv.NewWriter(paretoFile),
	}
	if err := s.writeHeaders(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *CSVSink) writeHeaders() error {
	if err := s.quads.Write(quadsHeader); err != nil {
		return err
	}
	if err := s.pareto.Write(paretoHeader); err != nil {
		return err
	}
	return s.flush()
}

// WriteBatch implements Sink. All rows of the batch are flushed before it
// returns.
func (s *CSVSink) WriteBatch(b Batch) error {
	for _, r := range b.Rows {
		rec := append(quadPrefix(r.QuadID, r.Verts), rateFields(r.Rates)...)
		rec = append(rec, formatFloat(r.Epsilon))
		if err := s.quads.Write(rec); err != nil {
			return err
		}
	}
	for _, r := range b.Pareto {
		rec := append(quadPrefix(r.QuadID, r.Verts), formatFloat(r.EpsilonTarget))
		rec = append(rec, rateFields(r.Rates)...)
		if err := s.pareto.Write(rec); err != nil {
			return err
		}
	}
	return s.flush()
}

func (s *CSVSink) flush() error {
	s.quads.Flush()
	s.pareto.Flush()
	return errors.Join(s.quads.Error(), s.pareto.Error())
}

// Close flushes and closes both files.
func (s *CSVSink) Close() error {
	return errors.Join(s.flush(), s.quadsFile.Close(), s.paretoFile.Close())
}

// WritePoints writes the baked-mesh positions to <base>_points.csv.
func WritePoints(base string, positions []math.Vec3) error {
	f, err := os.Create(base + PointsSuffix)
	if err != nil {
		return fmt.Errorf("creating points CSV: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(pointsHeader); err != nil {
		f.Close()
		return err
	}
	for id, p := range positions {
		rec := []string{strconv.Itoa(id), formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z)}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	return errors.Join(w.Error(), f.Close())
}

func quadPrefix(id int, verts [4]int) []string {
	return []string{
		strconv.Itoa(id),
		strconv.Itoa(verts[0]), strconv.Itoa(verts[1]),
		strconv.Itoa(verts[2]), strconv.Itoa(verts[3]),
	}
}

func rateFields(rates [4]int) []string {
	return []string{
		strconv.Itoa(rates[0]), strconv.Itoa(rates[1]),
		strconv.Itoa(rates[2]), strconv.Itoa(rates[3]),
	}
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
