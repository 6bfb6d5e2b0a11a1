package cmd

import (
	"bytes"
	"context"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/chazu/plinth/pkg/config"
	"github.com/chazu/plinth/pkg/gisio"
	"github.com/chazu/plinth/pkg/layers"
	"github.com/chazu/plinth/pkg/project"
)

const footprints = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "EPSG:3857"}},
  "features": [
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[1000,2000],[1010,2000],[1010,2010],[1000,2010],[1000,2000]]]},
     "properties": {"height": 6, "fid": "a"}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[1020,2000],[1030,2000],[1030,2010],[1020,2010],[1020,2000]]]},
     "properties": {"height": 9, "fid": "b"}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[1040,2000],[1050,2000],[1050,2010],[1040,2000]]]},
     "properties": {"height": null, "fid": "c"}}
  ]
}`

const streets = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "EPSG:3857"}},
  "features": [
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[990,1990],[1060,1990]]},
     "properties": {"osmid": 42}}
  ]
}`

const projectFile = `
name: two blocks
input: footprints.geojson
height_field: height
target_crs: EPSG:3857
context:
    - input: streets.geojson
      layer: umi::Context::Streets
output:
    summary: out/scene.json
    world: out/world.geojson
    obj: out/scene.obj
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"footprints.geojson": footprints,
		"streets.geojson":    streets,
		"project.yaml":       projectFile,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func quiet() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestBuildWritesOutputs(t *testing.T) {
	dir := writeProject(t)
	cfg, err := config.Load(filepath.Join(dir, "project.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r, err := Build(context.Background(), cfg, quiet(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if r.Name != "two blocks" {
		t.Errorf("Name = %q", r.Name)
	}
	if r.Summary.Breps != 2 {
		t.Errorf("Breps = %d, want 2", r.Summary.Breps)
	}
	// Site boundary and one street.
	if r.Summary.Curves != 2 {
		t.Errorf("Curves = %d, want 2", r.Summary.Curves)
	}
	if got := r.Summary.PerLayer[layers.Shading]; got != 2 {
		t.Errorf("Shading objects = %d, want 2", got)
	}
	if got := r.Summary.PerLayer[layers.Streets]; got != 1 {
		t.Errorf("Streets objects = %d, want 1", got)
	}
	if len(r.Discards) != 1 || r.Discards[0].Stage != project.StageHeight || r.Discards[0].Index != 2 {
		t.Errorf("Discards = %+v, want row 2 missing height", r.Discards)
	}

	back, err := readReport(filepath.Join(dir, "out", "scene.json"))
	if err != nil {
		t.Fatalf("readReport() error = %v", err)
	}
	if back.Summary.Objects != r.Summary.Objects || len(back.Layers) != len(r.Layers) {
		t.Errorf("report round trip = %+v, want %+v", back.Summary, r.Summary)
	}
	if _, ok := back.Settings["project-settings"]["OriginalProjectedOrigin"]; !ok {
		t.Error("report is missing the projected origin")
	}

	world, err := gisio.ReadFile(filepath.Join(dir, "out", "world.geojson"))
	if err != nil {
		t.Fatalf("world export: %v", err)
	}
	if world.Len() != 2 {
		t.Fatalf("world features = %d, want 2", world.Len())
	}
	for _, f := range world.Features {
		if _, ok := f.Attributes["guid"]; !ok {
			t.Errorf("world feature %d has no guid", f.Index)
		}
	}

	obj, err := os.ReadFile(filepath.Join(dir, "out", "scene.obj"))
	if err != nil {
		t.Fatalf("obj export: %v", err)
	}
	if n := strings.Count(string(obj), "\no ") + boolInt(strings.HasPrefix(string(obj), "o ")); n != 2 {
		t.Errorf("obj objects = %d, want 2", n)
	}
	// Vertices are written back in projected coordinates.
	minX, minY := math.Inf(1), math.Inf(1)
	for _, line := range strings.Split(string(obj), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 4 || fields[0] != "v" {
			continue
		}
		x, _ := strconv.ParseFloat(fields[1], 64)
		y, _ := strconv.ParseFloat(fields[2], 64)
		minX, minY = math.Min(minX, x), math.Min(minY, y)
	}
	if math.Abs(minX-1000) > 1e-6 || math.Abs(minY-2000) > 1e-6 {
		t.Errorf("obj lower corner = (%v, %v), want (1000, 2000)", minX, minY)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestBuildFailures(t *testing.T) {
	dir := writeProject(t)

	cfg := &config.Project{Input: filepath.Join(dir, "missing.geojson"), HeightField: "height"}
	if _, err := Build(context.Background(), cfg, quiet(), nil); err == nil {
		t.Error("Build() with missing input error = nil")
	}

	cfg = &config.Project{Input: filepath.Join(dir, "footprints.geojson"), HeightField: "levels"}
	if _, err := Build(context.Background(), cfg, quiet(), nil); err == nil {
		t.Error("Build() with no heights error = nil")
	}

	cfg = &config.Project{
		Input:       filepath.Join(dir, "footprints.geojson"),
		HeightField: "height",
		Context:     []*config.ContextLayer{{Input: filepath.Join(dir, "footprints.geojson")}},
	}
	if _, err := Build(context.Background(), cfg, quiet(), nil); err != nil {
		t.Errorf("Build() with polygon context error = %v", err)
	}
}

func TestOverride(t *testing.T) {
	cfg := &config.Project{HeightField: "height", Kernel: config.KernelBrep, Workers: 2}
	cmd := CmdBuild{Height: "h", Kernel: config.KernelSdfx, OBJ: "x.obj"}
	cmd.override(cfg, []string{"data/blocks.geojson"})

	if cfg.Input != "data/blocks.geojson" || cfg.HeightField != "h" || cfg.Kernel != config.KernelSdfx {
		t.Errorf("override = %+v", cfg)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2 (flag unset)", cfg.Workers)
	}
	if cfg.Output.OBJ != "x.obj" || cfg.Output.World != "" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Name != "blocks" {
		t.Errorf("Name = %q, want blocks", cfg.Name)
	}
}

func TestInspect(t *testing.T) {
	dir := writeProject(t)
	cfg, err := config.Load(filepath.Join(dir, "project.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(context.Background(), cfg, quiet(), nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "out", "scene.json")

	var buf bytes.Buffer
	if err := (CmdInspect{out: &buf}).Execute([]string{path}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "two blocks") {
		t.Errorf("inspect output missing project name:\n%s", buf.String())
	}

	buf.Reset()
	if err := (CmdInspect{out: &buf, Layers: true}).Execute([]string{path}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), layers.SiteBoundary+"\t") {
		t.Errorf("layer listing missing site boundary:\n%s", buf.String())
	}

	if err := (CmdInspect{out: &buf}).Execute(nil); err == nil {
		t.Error("Execute() without a report error = nil")
	}
	if err := (CmdInspect{out: &buf}).Execute([]string{filepath.Join(dir, "footprints.geojson")}); err == nil {
		t.Error("Execute() on a non-report error = nil")
	}
}
