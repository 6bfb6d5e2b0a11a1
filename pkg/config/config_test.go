package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/kernel/brep"
	"github.com/chazu/plinth/pkg/kernel/sdfx"
	"github.com/cheekybits/is"
)

const sample = `
name: Manhattan blocks
input: footprints.geojson
height_field: height
fid_field: bin
source_crs: EPSG:4326
target_crs: EPSG:32618

template:
    map:
        Residential:
            1920: B_Res_0_WoodFrame
            1990: B_Res_0_Masonry
        Office: B_Off_0
    map_to_columns: [Use_Type, Year]

kernel: sdfx
workers: 4

context:
    - input: streets.geojson
      layer: umi::Context::Streets
    - input: /data/pois.geojson

output:
    summary: out/scene.json
    world: out/world.geojson
    obj: out/scene.obj
`

func TestParseConfig(t *testing.T) {
	is := is.New(t)

	p, err := Parse(strings.NewReader(sample))
	is.NoErr(err)
	is.NotNil(p)
	is.Equal(p.Name, "Manhattan blocks")
	is.Equal(p.Input, "footprints.geojson")
	is.Equal(p.HeightField, "height")
	is.Equal(p.FIDField, "bin")
	is.Equal(p.SourceCRS, "EPSG:4326")
	is.Equal(p.TargetCRS, "EPSG:32618")
	is.Equal(p.Kernel, KernelSdfx)
	is.Equal(p.Workers, 4)
	is.Equal(len(p.Template.MapToColumns), 2)
	is.Equal(len(p.Template.Map), 2)

	is.Equal(len(p.Context), 2)
	is.Equal(p.Context[0].Layer, "umi::Context::Streets")
	is.Equal(p.Context[1].Layer, "")
	is.Equal(p.Output.OBJ, "out/scene.obj")
}

func TestOptions(t *testing.T) {
	is := is.New(t)

	p, err := Parse(strings.NewReader(sample))
	is.NoErr(err)
	o, err := p.Options()
	is.NoErr(err)

	is.Equal(o.HeightField, "height")
	is.Equal(o.FIDField, "bin")
	is.Equal(o.MapToColumns, []string{"Use_Type", "Year"})
	_, ok := o.Kernel.(*sdfx.SdfxKernel)
	is.True(ok)
	_, ok = o.Ops.(geom.Planar)
	is.True(ok)

	res, ok := o.TemplateMap["Residential"].(map[string]any)
	is.True(ok)
	is.Equal(res["1920"], "B_Res_0_WoodFrame")
	is.Equal(res["1990"], "B_Res_0_Masonry")
	is.Equal(o.TemplateMap["Office"], "B_Off_0")
}

func TestDefaults(t *testing.T) {
	is := is.New(t)

	p, err := Parse(strings.NewReader("height_field: h\n"))
	is.NoErr(err)
	is.Equal(p.Kernel, "")
	k, err := p.NewKernel()
	is.NoErr(err)
	_, ok := k.(*brep.BrepKernel)
	is.True(ok)

	o, err := p.Options()
	is.NoErr(err)
	is.Nil(o.TemplateMap)
	is.Equal(o.Workers, 0)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no height", "input: a.geojson\n"},
		{"bad kernel", "height_field: h\nkernel: occt\n"},
		{"bad ops", "height_field: h\nops: jts\n"},
		{"negative workers", "height_field: h\nworkers: -1\n"},
		{"map without columns", "height_field: h\ntemplate:\n    map:\n        a: b\n"},
		{"context without input", "height_field: h\ncontext:\n    - layer: x\n"},
		{"bad yaml", "height_field: [h\n"},
		{"kernel names are case sensitive", "height_field: h\nkernel: Brep\n"},
	}
	for _, tt := range tests {
		if _, err := Parse(strings.NewReader(tt.in)); err == nil {
			t.Errorf("%s: Parse() error = nil", tt.name)
		}
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	is.NoErr(os.WriteFile(path, []byte(sample), 0o644))

	p, err := Load(path)
	is.NoErr(err)
	is.Equal(p.Input, filepath.Join(dir, "footprints.geojson"))
	is.Equal(p.Context[0].Input, filepath.Join(dir, "streets.geojson"))
	is.Equal(p.Context[1].Input, "/data/pois.geojson")
	is.Equal(p.Output.Summary, filepath.Join(dir, "out/scene.json"))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	is.Err(err)
}
