// quadtess tessellates quad patches with crack-free transition bands and
// generates rate/error training data for baked quad meshes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/quadtess/internal/bake"
	"github.com/Faultbox/quadtess/internal/config"
	"github.com/Faultbox/quadtess/internal/logger"
	"github.com/Faultbox/quadtess/internal/meshio"
	"github.com/Faultbox/quadtess/pkg/heightfield"
	"github.com/Faultbox/quadtess/pkg/raycast"
	"github.com/Faultbox/quadtess/pkg/tess"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "tess":
		err = cmdTess(args)
	case "lift":
		err = cmdLift(args)
	case "bake":
		err = cmdBake(args)
	case "init":
		err = cmdInit(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`quadtess - adaptive quad patch tessellator

Usage:
  quadtess <command> [options]

Commands:
  tess [-config f] [-out mesh.obj]     Tessellate the configured quad
  lift -edge b,r,t,l -inner iu,iv      Print the resolved transition band lift
  bake [-config f]                     Sweep edge rates over a baked quad mesh
  init [-force] [path]                 Write a default config file

Every command except init accepts the config override flags; run
"quadtess <command> -h" to list them.

Examples:
  quadtess tess -edge 3,1,2,4 -inner 5,2 -out patch.obj
  quadtess lift -edge 1,1,1,1 -inner 1,1
  quadtess bake -config sphere.yaml -workers 4
  quadtess init quadtess.yaml`)
}

// setup parses the shared flags, loads the config and starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	configPath := fs.String("config", "", "Path to config file")
	overrides := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, nil
}

// loadSampler returns the configured displacement sampler, or nil when no
// height field is set.
func loadSampler(cfg config.HeightfieldConfig) (tess.DisplacementSampler, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	field, err := heightfield.Load(cfg.Path, cfg.Options())
	if err != nil {
		return nil, err
	}
	lo, hi := field.Range()
	logger.Info("loaded height field",
		zap.String("path", cfg.Path),
		zap.Int("width", field.Width),
		zap.Int("height", field.Height),
		zap.Float32("min", lo),
		zap.Float32("max", hi))

	return heightfield.NewSampler(field, heightfield.Filter(cfg.Filter))
}

func cmdTess(args []string) error {
	fs := flag.NewFlagSet("tess", flag.ExitOnError)
	out := fs.String("out", "", "Write the mesh to this OBJ file")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	sampler, err := loadSampler(cfg.Heightfield)
	if err != nil {
		return err
	}

	params := cfg.Params()
	resolved, err := tess.Resolve(params)
	if err != nil {
		return err
	}
	mesh, err := tess.Tessellate(cfg.TessQuad(), params, sampler)
	if err != nil {
		return err
	}

	logger.Info("tessellated quad",
		zap.Ints("edge", params.Edge[:]),
		zap.Ints("inner", params.Inner[:]),
		zap.Float64s("lift", resolved.Lift[:]),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", len(mesh.Triangles)))

	fmt.Printf("Vertices:  %d\n", len(mesh.Vertices))
	fmt.Printf("Triangles: %d\n", len(mesh.Triangles))
	fmt.Printf("Lift:      %s\n", formatLift(resolved.Lift))

	if *out != "" {
		if err := meshio.WriteOBJFile(*out, mesh); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *out)
	}
	return nil
}

func cmdLift(args []string) error {
	fs := flag.NewFlagSet("lift", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	resolved, err := tess.Resolve(cfg.Params())
	if err != nil {
		return err
	}
	fmt.Println(formatLift(resolved.Lift))
	return nil
}

func cmdBake(args []string) error {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	b := cfg.Bake
	if b.BakedMesh == "" || b.ReferenceMesh == "" {
		return errors.New("bake needs bake.baked_mesh and bake.reference_mesh")
	}

	baked, err := meshio.ParseOBJFile(b.BakedMesh)
	if err != nil {
		return fmt.Errorf("baked mesh: %w", err)
	}
	quads, err := bake.QuadsFromOBJ(baked)
	if err != nil {
		return fmt.Errorf("baked mesh: %w", err)
	}
	logger.Info("parsed baked mesh",
		zap.String("path", b.BakedMesh),
		zap.Int("vertices", len(baked.Positions)),
		zap.Int("quads", len(quads)))

	refOBJ, err := meshio.ParseOBJFile(b.ReferenceMesh)
	if err != nil {
		return fmt.Errorf("reference mesh: %w", err)
	}
	ref := bake.ReferenceFromOBJ(refOBJ)
	logger.Info("loaded reference mesh",
		zap.String("path", b.ReferenceMesh),
		zap.Int("vertices", len(ref.Vertices)),
		zap.Int("triangles", len(ref.Indices)/3))

	sampler, err := loadSampler(cfg.Heightfield)
	if err != nil {
		return err
	}

	base := b.OutputBase
	if base == "" {
		base = strings.TrimSuffix(b.BakedMesh, filepath.Ext(b.BakedMesh))
	}
	if err := bake.WritePoints(base, baked.Positions); err != nil {
		return err
	}

	sink, err := bake.NewCSVSink(base)
	if err != nil {
		return err
	}

	driver, err := bake.NewDriver(b.Options(), raycast.CPU{}, sampler, logger.Log)
	if err != nil {
		sink.Close()
		return err
	}
	stats, runErr := driver.Run(quads, ref, sink)
	if err := errors.Join(runErr, sink.Close()); err != nil {
		return err
	}

	fmt.Printf("Quads:       %d (%d failed)\n", stats.Completed, stats.Failed)
	fmt.Printf("Rows:        %d\n", stats.Rows)
	fmt.Printf("Pareto rows: %d\n", stats.ParetoRows)
	fmt.Printf("Points:      %s\n", base+bake.PointsSuffix)
	fmt.Printf("Quads CSV:   %s\n", base+bake.QuadsSuffix)
	fmt.Printf("Pareto CSV:  %s\n", base+bake.ParetoSuffix)
	return nil
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	path := "quadtess.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}

	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func formatLift(lift [4]float64) string {
	parts := make([]string, len(lift))
	for i, side := range tess.Sides {
		parts[i] = fmt.Sprintf("%s=%.6f", side, lift[i])
	}
	return strings.Join(parts, " ")
}
