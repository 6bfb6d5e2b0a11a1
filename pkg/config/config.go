// Package config reads YAML project files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/chazu/plinth/pkg/feature"
	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/geom/geosops"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/kernel/brep"
	"github.com/chazu/plinth/pkg/kernel/manifold"
	"github.com/chazu/plinth/pkg/kernel/sdfx"
	"github.com/chazu/plinth/pkg/project"
	yaml "gopkg.in/yaml.v1"
)

// Kernel names.
const (
	KernelBrep     = "brep"
	KernelSdfx     = "sdfx"
	KernelManifold = "manifold"
)

// Geometry operation backends.
const (
	OpsPlanar = "planar"
	OpsGeos   = "geos"
)

// Project is one project file.
type Project struct {
	Name        string `yaml:"name"`
	Input       string `yaml:"input"`
	HeightField string `yaml:"height_field"`
	FIDField    string `yaml:"fid_field"`
	SourceCRS   string `yaml:"source_crs"`
	TargetCRS   string `yaml:"target_crs"`

	Template Template `yaml:"template"`

	Kernel  string `yaml:"kernel"`
	Ops     string `yaml:"ops"`
	Workers int    `yaml:"workers"`

	Context []*ContextLayer `yaml:"context"`
	Output  Output          `yaml:"output"`
}

// Template selects how energy templates are assigned.
type Template struct {
	Column       string                      `yaml:"column"`
	Map          map[interface{}]interface{} `yaml:"map"`
	MapToColumns []string                    `yaml:"map_to_columns"`
	Rules        string                      `yaml:"rules"`
}

// ContextLayer is an external collection placed on a context layer.
type ContextLayer struct {
	Input   string `yaml:"input"`
	Layer   string `yaml:"layer"`
	IDField string `yaml:"id_field"`
}

// Output lists the files written after a build. Empty paths are skipped.
type Output struct {
	Summary string `yaml:"summary"`
	World   string `yaml:"world"`
	OBJ     string `yaml:"obj"`
}

// Load reads the project file at path. Relative input and output paths are
// resolved against the file's directory.
func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	p.resolvePaths(filepath.Dir(path))
	return p, nil
}

// Parse decodes and validates a project file.
func Parse(r io.Reader) (*Project, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &Project{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the fields that cannot be defaulted.
func (p *Project) Validate() error {
	if p.HeightField == "" {
		return errors.New("height_field is required")
	}
	switch p.Kernel {
	case "", KernelBrep, KernelSdfx, KernelManifold:
	default:
		return fmt.Errorf("unknown kernel %q", p.Kernel)
	}
	switch p.Ops {
	case "", OpsPlanar, OpsGeos:
	default:
		return fmt.Errorf("unknown ops %q", p.Ops)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	if len(p.Template.Map) > 0 && len(p.Template.MapToColumns) == 0 {
		return errors.New("template map requires map_to_columns")
	}
	for i, c := range p.Context {
		if c == nil || c.Input == "" {
			return fmt.Errorf("context %d: input is required", i)
		}
	}
	return nil
}

func (p *Project) resolvePaths(dir string) {
	abs := func(s *string) {
		if *s != "" && !filepath.IsAbs(*s) {
			*s = filepath.Join(dir, *s)
		}
	}
	abs(&p.Input)
	abs(&p.Output.Summary)
	abs(&p.Output.World)
	abs(&p.Output.OBJ)
	for _, c := range p.Context {
		abs(&c.Input)
	}
}

// NewKernel returns the configured geometry kernel. The manifold kernel
// fails unless the binary was built with the manifold tag.
func (p *Project) NewKernel() (kernel.Kernel, error) {
	switch p.Kernel {
	case KernelSdfx:
		return sdfx.New(), nil
	case KernelManifold:
		return manifold.New()
	}
	return brep.New(), nil
}

// NewOps returns the configured geometry operations. The GEOS backend fails
// unless the binary was built with the geos tag.
func (p *Project) NewOps() (geom.Ops, error) {
	if p.Ops == OpsGeos {
		return geosops.New()
	}
	return geom.Planar{}, nil
}

// Options converts the file into assembler options.
func (p *Project) Options() (project.Options, error) {
	k, err := p.NewKernel()
	if err != nil {
		return project.Options{}, fmt.Errorf("config: %w", err)
	}
	ops, err := p.NewOps()
	if err != nil {
		return project.Options{}, fmt.Errorf("config: %w", err)
	}
	var tm map[string]any
	if len(p.Template.Map) > 0 {
		tm = stringMap(p.Template.Map)
	}
	return project.Options{
		HeightField:   p.HeightField,
		FIDField:      p.FIDField,
		SourceCRS:     p.SourceCRS,
		TargetCRS:     p.TargetCRS,
		TemplateField: p.Template.Column,
		TemplateMap:   tm,
		MapToColumns:  p.Template.MapToColumns,
		TemplateRules: p.Template.Rules,
		Kernel:        k,
		Ops:           ops,
		Workers:       p.Workers,
	}, nil
}

// stringMap converts yaml.v1's nested maps, formatting keys so numeric
// keys match the decimal strings that template lookups use.
func stringMap(m map[interface{}]interface{}) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[interface{}]interface{}); ok {
			v = stringMap(sub)
		}
		out[feature.Key(k)] = v
	}
	return out
}
