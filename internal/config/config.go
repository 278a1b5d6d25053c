// Package config handles quadtess configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/quadtess/internal/bake"
	"github.com/Faultbox/quadtess/internal/logger"
	"github.com/Faultbox/quadtess/pkg/heightfield"
	"github.com/Faultbox/quadtess/pkg/math"
	"github.com/Faultbox/quadtess/pkg/tess"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all quadtess settings.
type Config struct {
	Quad         QuadConfig         `yaml:"quad"`
	Tessellation TessellationConfig `yaml:"tessellation"`
	Heightfield  HeightfieldConfig  `yaml:"heightfield"`
	Bake         BakeConfig         `yaml:"bake"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// CornerConfig is one quad corner.
type CornerConfig struct {
	Position []float64 `yaml:"position,flow"`
	Normal   []float64 `yaml:"normal,flow"`
	UV       []float64 `yaml:"uv,flow"` // Height-field pixels
}

// QuadConfig holds the patch tessellated by the tess command, corners in
// (0,0), (1,0), (1,1), (0,1) order.
type QuadConfig struct {
	Corners []CornerConfig `yaml:"corners"`
}

// TessellationConfig holds the per-patch rates.
type TessellationConfig struct {
	Edge          []int     `yaml:"edge,flow"`           // bottom, right, top, left
	Inner         []int     `yaml:"inner,flow"`          // iu, iv
	Lift          []float64 `yaml:"lift,flow,omitempty"` // derived when empty
	I0PreferLower bool      `yaml:"i0_prefer_lower"`
}

// HeightfieldConfig holds the displacement map settings.
type HeightfieldConfig struct {
	Path       string  `yaml:"path"` // No displacement when empty
	Scale      float64 `yaml:"scale"`
	Bias       float64 `yaml:"bias"`
	Filter     string  `yaml:"filter"`
	Resolution int     `yaml:"resolution"` // Native size when 0
}

// BakeConfig holds training-data generation settings.
type BakeConfig struct {
	BakedMesh     string `yaml:"baked_mesh"`     // Quad OBJ
	ReferenceMesh string `yaml:"reference_mesh"` // Triangle OBJ measured against
	OutputBase    string `yaml:"output_base"`    // Baked mesh path without extension when empty
	MaxRate       int    `yaml:"max_rate"`
	SamplesPerDim int    `yaml:"samples_per_dim"`
	Workers       int    `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	bakeOpts := bake.DefaultOptions()
	return &Config{
		Quad: QuadConfig{
			Corners: []CornerConfig{
				{Position: []float64{0, 0, 0}, Normal: []float64{0, 0, 1}, UV: []float64{0, 0}},
				{Position: []float64{1, 0, 0}, Normal: []float64{0, 0, 1}, UV: []float64{10, 0}},
				{Position: []float64{1, 1, 0}, Normal: []float64{0, 0, 1}, UV: []float64{10, 10}},
				{Position: []float64{0, 1, 0}, Normal: []float64{0, 0, 1}, UV: []float64{0, 10}},
			},
		},
		Tessellation: TessellationConfig{
			Edge:  []int{1, 1, 1, 1},
			Inner: []int{1, 1},
		},
		Heightfield: HeightfieldConfig{
			Scale:  1,
			Filter: string(heightfield.FilterBilinear),
		},
		Bake: BakeConfig{
			MaxRate:       bakeOpts.MaxRate,
			SamplesPerDim: bakeOpts.SamplesPerDim,
			Workers:       bakeOpts.Workers,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks shapes and ranges that YAML cannot express.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Quad.Corners) != 4 {
		fail("quad needs 4 corners, got %d", len(c.Quad.Corners))
	}
	for i, corner := range c.Quad.Corners {
		if len(corner.Position) != 3 || len(corner.Normal) != 3 || len(corner.UV) != 2 {
			fail("corner %d needs a 3-component position and normal and a 2-component uv", i)
		}
	}

	t := c.Tessellation
	if len(t.Edge) != 4 {
		fail("tessellation.edge needs 4 rates, got %d", len(t.Edge))
	}
	if len(t.Inner) != 2 {
		fail("tessellation.inner needs 2 dimensions, got %d", len(t.Inner))
	}
	if len(t.Lift) != 0 && len(t.Lift) != 4 {
		fail("tessellation.lift needs 4 values or none, got %d", len(t.Lift))
	}

	if _, err := heightfield.ParseFilter(c.Heightfield.Filter); err != nil {
		fail("heightfield: %v", err)
	}
	if c.Heightfield.Resolution < 0 {
		fail("heightfield.resolution must not be negative")
	}

	if c.Bake.MaxRate < 1 {
		fail("bake.max_rate must be at least 1, got %d", c.Bake.MaxRate)
	}
	if c.Bake.SamplesPerDim < 1 {
		fail("bake.samples_per_dim must be at least 1, got %d", c.Bake.SamplesPerDim)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		fail("logging: %v", err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TessQuad returns the configured quad. Call Validate first.
func (c *Config) TessQuad() tess.Quad {
	var q tess.Quad
	for i, corner := range c.Quad.Corners[:4] {
		q[i] = tess.Vertex{
			Position: vec3(corner.Position),
			Normal:   vec3(corner.Normal),
			UV:       math.Vec2{X: corner.UV[0], Y: corner.UV[1]},
		}
	}
	return q
}

// Params returns the configured tessellation parameters. Call Validate
// first.
func (c *Config) Params() tess.Params {
	t := c.Tessellation
	p := tess.Params{
		Edge:          [4]int(t.Edge),
		Inner:         [2]int(t.Inner),
		I0PreferLower: t.I0PreferLower,
	}
	if len(t.Lift) == 4 {
		lift := [4]float64(t.Lift)
		p.Lift = &lift
	}
	return p
}

// Options returns the height-field decoding options.
func (h HeightfieldConfig) Options() heightfield.Options {
	return heightfield.Options{Scale: h.Scale, Bias: h.Bias, Resolution: h.Resolution}
}

// Options returns the rate sweep options.
func (b BakeConfig) Options() bake.Options {
	return bake.Options{MaxRate: b.MaxRate, SamplesPerDim: b.SamplesPerDim, Workers: b.Workers}
}

func vec3(c []float64) math.Vec3 {
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}
}
