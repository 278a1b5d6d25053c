package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Overrides holds command-line overrides registered on a FlagSet. Zero
// values leave the loaded config untouched.
type Overrides struct {
	Debug       bool
	LogFile     string
	Edge        string
	Inner       string
	Lift        string
	PreferLower bool
	Heightfield string
	Workers     int
	MaxRate     int
	Samples     int
}

// RegisterFlags adds the override flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Also write logs to this rotating file")
	fs.StringVar(&o.Edge, "edge", "", "Edge rates as bottom,right,top,left")
	fs.StringVar(&o.Inner, "inner", "", "Inner grid as iu,iv")
	fs.StringVar(&o.Lift, "lift", "", "Transition band lift as bottom,right,top,left")
	fs.BoolVar(&o.PreferLower, "i0-prefer-lower", false, "Resolve I0 ties toward the lower index")
	fs.StringVar(&o.Heightfield, "heightfield", "", "Height field image path")
	fs.IntVar(&o.Workers, "workers", 0, "Concurrent quads during bake")
	fs.IntVar(&o.MaxRate, "max-rate", 0, "Largest edge rate swept during bake")
	fs.IntVar(&o.Samples, "samples", 0, "Probe rays per quad side during bake")
	return o
}

// apply applies CLI flag overrides to the config.
func (o *Overrides) apply(cfg *Config) error {
	if o == nil {
		return nil
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.Edge != "" {
		edge, err := ParseInts(o.Edge, 4)
		if err != nil {
			return fmt.Errorf("-edge: %w", err)
		}
		cfg.Tessellation.Edge = edge
	}
	if o.Inner != "" {
		inner, err := ParseInts(o.Inner, 2)
		if err != nil {
			return fmt.Errorf("-inner: %w", err)
		}
		cfg.Tessellation.Inner = inner
	}
	if o.Lift != "" {
		lift, err := ParseFloats(o.Lift, 4)
		if err != nil {
			return fmt.Errorf("-lift: %w", err)
		}
		cfg.Tessellation.Lift = lift
	}
	if o.PreferLower {
		cfg.Tessellation.I0PreferLower = true
	}
	if o.Heightfield != "" {
		cfg.Heightfield.Path = o.Heightfield
	}
	if o.Workers > 0 {
		cfg.Bake.Workers = o.Workers
	}
	if o.MaxRate > 0 {
		cfg.Bake.MaxRate = o.MaxRate
	}
	if o.Samples > 0 {
		cfg.Bake.SamplesPerDim = o.Samples
	}
	return nil
}

// ParseInts parses exactly n comma-separated integers.
func ParseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseFloats parses exactly n comma-separated numbers.
func ParseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
