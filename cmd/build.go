package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/chazu/plinth/pkg/config"
	"github.com/chazu/plinth/pkg/gisio"
	"github.com/chazu/plinth/pkg/layers"
	"github.com/chazu/plinth/pkg/project"
	"github.com/chazu/plinth/pkg/scene"
	"github.com/chazu/plinth/pkg/tessellate"
	"github.com/cheggaaa/pb"
)

type CmdBuild struct {
	global *GlobalOptions

	Config     string `short:"c" long:"config" description:"Project file (YAML)"`
	Height     string `long:"height" description:"Height attribute, overrides the project file"`
	SourceCRS  string `long:"source-crs" description:"Source reference system"`
	TargetCRS  string `long:"target-crs" description:"Target reference system, must be metric"`
	Kernel     string `short:"k" long:"kernel" description:"Geometry kernel (brep, sdfx or manifold)"`
	Workers    int    `short:"j" long:"workers" description:"Parallel solid builders"`
	Summary    string `long:"summary" description:"Write the scene report as JSON"`
	World      string `long:"world" description:"Write buildings in world coordinates as GeoJSON"`
	OBJ        string `long:"obj" description:"Write tessellated solids as OBJ"`
	NoProgress bool   `long:"no-progress" description:"Hide the progress bar"`
}

func init() {
	_, err := parser.AddCommand("build",
		"Build a scene",
		"Extrudes building footprints into a layered scene and writes the configured outputs",
		&CmdBuild{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdBuild) Usage() string {
	return "[-c project.yaml] [footprints.geojson]"
}

func (cmd CmdBuild) Execute(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("Too many arguments, Usage: %s", cmd.Usage())
	}

	cfg := &config.Project{}
	if cmd.Config != "" {
		var err error
		if cfg, err = config.Load(cmd.Config); err != nil {
			return err
		}
	}
	cmd.override(cfg, args)
	if cfg.Input == "" {
		return fmt.Errorf("No input specified, Usage: %s", cmd.Usage())
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("Invalid project: %s", err.Error())
	}

	var bar *pb.ProgressBar
	if !cmd.NoProgress {
		bar = pb.New(0)
		bar.Output = os.Stderr
	}
	r, err := Build(context.Background(), cfg, cmd.global.Logger(), bar)
	if err != nil {
		return fmt.Errorf("Failed to build: %s", err.Error())
	}
	fmt.Printf("%s: %d buildings, %d discarded, %d objects on %d layers\n",
		r.Name, r.Summary.Breps, len(r.Discards), r.Summary.Objects, r.Summary.Layers)
	return nil
}

func (cmd CmdBuild) override(cfg *config.Project, args []string) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if len(args) == 1 {
		cfg.Input = args[0]
	}
	set(&cfg.HeightField, cmd.Height)
	set(&cfg.SourceCRS, cmd.SourceCRS)
	set(&cfg.TargetCRS, cmd.TargetCRS)
	set(&cfg.Kernel, cmd.Kernel)
	set(&cfg.Output.Summary, cmd.Summary)
	set(&cfg.Output.World, cmd.World)
	set(&cfg.Output.OBJ, cmd.OBJ)
	if cmd.Workers > 0 {
		cfg.Workers = cmd.Workers
	}
	if cfg.Name == "" {
		base := filepath.Base(cfg.Input)
		cfg.Name = base[:len(base)-len(filepath.Ext(base))]
	}
}

// Report is the JSON scene summary written by build and read by inspect.
type Report struct {
	Name     string                    `json:"name"`
	Summary  scene.Summary             `json:"summary"`
	Layers   []*layers.Layer           `json:"layers"`
	Settings map[string]map[string]any `json:"settings"`
	Discards []project.Discard         `json:"discards"`
}

// Build runs the whole pipeline for cfg and writes its outputs. bar may be
// nil.
func Build(ctx context.Context, cfg *config.Project, logger *log.Logger, bar *pb.ProgressBar) (*Report, error) {
	// Step 1: Read the footprints.
	c, err := gisio.ReadFile(cfg.Input)
	if err != nil {
		return nil, err
	}

	// Step 2: Assemble the scene.
	o, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	o.Logger = logger
	if bar != nil {
		bar.Total = int64(c.Len())
		bar.Start()
		o.Progress = func() { bar.Increment() }
	}
	p, err := project.FromFeatures(ctx, c, o)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, err
	}

	// Step 3: Place the context layers.
	for _, cl := range cfg.Context {
		cc, err := gisio.ReadFile(cl.Input)
		if err != nil {
			return nil, err
		}
		if _, err := p.AddContext(cc, cl.Layer, cl.IDField); err != nil {
			return nil, err
		}
	}

	r := &Report{
		Name:     cfg.Name,
		Summary:  p.Scene.Summary(),
		Layers:   p.Scene.Layers.Layers(),
		Settings: p.Common,
		Discards: p.Diagnostics.Discards,
	}
	if r.Discards == nil {
		r.Discards = []project.Discard{}
	}

	// Step 4: Write the outputs.
	if path := cfg.Output.Summary; path != "" {
		if err := writeJSON(path, r); err != nil {
			return nil, err
		}
	}
	if path := cfg.Output.World; path != "" {
		world, err := p.ExportWorld()
		if err != nil {
			return nil, err
		}
		if err := mkdirFor(path); err != nil {
			return nil, err
		}
		if err := gisio.WriteFile(path, world); err != nil {
			return nil, err
		}
	}
	if path := cfg.Output.OBJ; path != "" {
		if err := writeOBJ(path, p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func writeOBJ(path string, p *project.Project) error {
	meshes, err := tessellate.Scene(p.Scene, p.Builder().Kernel())
	if err != nil {
		return err
	}
	if err := mkdirFor(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tessellate.WriteOBJ(f, meshes, p.Offset); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := mkdirFor(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Report{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Name == "" && r.Summary.Layers == 0 {
		return nil, errors.New(path + ": not a scene report")
	}
	return r, nil
}

func mkdirFor(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
