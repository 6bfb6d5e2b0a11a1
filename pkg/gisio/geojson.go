// Package gisio reads and writes feature collections as GeoJSON.
package gisio

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/chazu/plinth/pkg/feature"
	"github.com/chazu/plinth/pkg/geom"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
)

// DefaultCRS is assumed when a document has no "crs" member.
const DefaultCRS = "EPSG:4326"

// ReadFile reads a GeoJSON feature collection from path.
func ReadFile(path string) (*feature.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ReadGeoJSON(f)
	if err != nil {
		return nil, fmt.Errorf("gisio: %s: %w", path, err)
	}
	return c, nil
}

// ReadGeoJSON decodes a feature collection. Feature order gives the row
// index, and a feature id is copied into the "fid" property when that
// property is absent.
func ReadGeoJSON(r io.Reader) (*feature.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("gisio: decode: %w", err)
	}

	out := &feature.Collection{CRS: crsName(fc.CRS), Features: make([]*feature.Feature, len(fc.Features))}
	for i, gf := range fc.Features {
		g, err := toOrb(gf.Geometry)
		if err != nil {
			return nil, fmt.Errorf("gisio: feature %d: %w", i, err)
		}
		f := &feature.Feature{Index: i, Geometry: g, Attributes: make(map[string]any, len(gf.Properties)+1)}
		for k, v := range gf.Properties {
			f.Attributes[k] = v
		}
		if gf.ID != nil {
			if _, ok := f.Attributes["fid"]; !ok {
				f.Attributes["fid"] = gf.ID
			}
		}
		out.Features[i] = f
	}
	return out, nil
}

var epsgURN = regexp.MustCompile(`(?i)EPSG:(?:[0-9.]*:)?(\d+)$`)

// crsName reads the legacy named "crs" member.
func crsName(m map[string]interface{}) string {
	props, _ := m["properties"].(map[string]interface{})
	name, _ := props["name"].(string)
	if name == "" {
		return DefaultCRS
	}
	if strings.HasSuffix(strings.ToUpper(name), "CRS84") {
		return DefaultCRS
	}
	if sm := epsgURN.FindStringSubmatch(name); sm != nil {
		return "EPSG:" + sm[1]
	}
	return name
}

func toOrb(g *geojson.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	switch g.Type {
	case geojson.GeometryPoint:
		return point(g.Point), nil
	case geojson.GeometryMultiPoint:
		return orb.MultiPoint(points(g.MultiPoint)), nil
	case geojson.GeometryLineString:
		return orb.LineString(points(g.LineString)), nil
	case geojson.GeometryMultiLineString:
		out := make(orb.MultiLineString, len(g.MultiLineString))
		for i, l := range g.MultiLineString {
			out[i] = points(l)
		}
		return out, nil
	case geojson.GeometryPolygon:
		return polygon(g.Polygon), nil
	case geojson.GeometryMultiPolygon:
		out := make(orb.MultiPolygon, len(g.MultiPolygon))
		for i, p := range g.MultiPolygon {
			out[i] = polygon(p)
		}
		return out, nil
	case geojson.GeometryCollection:
		out := make(orb.Collection, len(g.Geometries))
		for i, c := range g.Geometries {
			o, err := toOrb(c)
			if err != nil {
				return nil, err
			}
			out[i] = o
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown geometry type %q", g.Type)
}

func point(c []float64) orb.Point {
	if len(c) < 2 {
		return orb.Point{math.NaN(), math.NaN()}
	}
	return orb.Point{c[0], c[1]}
}

func points(cs [][]float64) []orb.Point {
	out := make([]orb.Point, len(cs))
	for i, c := range cs {
		out[i] = point(c)
	}
	return out
}

func polygon(rs [][][]float64) orb.Polygon {
	out := make(orb.Polygon, len(rs))
	for i, r := range rs {
		out[i] = points(r)
	}
	return out
}

// WriteFile writes c to path as GeoJSON.
func WriteFile(path string, c *feature.Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGeoJSON(f, c); err != nil {
		f.Close()
		return fmt.Errorf("gisio: %s: %w", path, err)
	}
	return f.Close()
}

// WriteGeoJSON encodes c. Systems other than DefaultCRS are written as a
// named "crs" member. NaN attribute values become null.
func WriteGeoJSON(w io.Writer, c *feature.Collection) error {
	fc := geojson.NewFeatureCollection()
	if c.CRS != "" && !strings.EqualFold(c.CRS, DefaultCRS) {
		fc.CRS = map[string]interface{}{
			"type":       "name",
			"properties": map[string]interface{}{"name": c.CRS},
		}
	}
	for i, f := range c.Features {
		g, err := fromOrb(f.Geometry)
		if err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		gf := geojson.NewFeature(g)
		for k, v := range f.Attributes {
			if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
				v = nil
			}
			gf.Properties[k] = v
		}
		fc.AddFeature(gf)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func fromOrb(g orb.Geometry) (*geojson.Geometry, error) {
	switch t := g.(type) {
	case nil:
		return nil, nil
	case orb.Point:
		return geojson.NewPointGeometry([]float64{t[0], t[1]}), nil
	case orb.MultiPoint:
		return geojson.NewMultiPointGeometry(coords(t)...), nil
	case orb.LineString:
		return geojson.NewLineStringGeometry(coords(t)), nil
	case orb.MultiLineString:
		ls := make([][][]float64, len(t))
		for i, l := range t {
			ls[i] = coords(l)
		}
		return geojson.NewMultiLineStringGeometry(ls...), nil
	case orb.Polygon:
		return geojson.NewPolygonGeometry(rings(t)), nil
	case orb.MultiPolygon:
		ps := make([][][][]float64, len(t))
		for i, p := range t {
			ps[i] = rings(p)
		}
		return geojson.NewMultiPolygonGeometry(ps...), nil
	case orb.Collection:
		gs := make([]*geojson.Geometry, len(t))
		for i, c := range t {
			o, err := fromOrb(c)
			if err != nil {
				return nil, err
			}
			gs[i] = o
		}
		return geojson.NewCollectionGeometry(gs...), nil
	}
	return nil, geom.Unsupported("", g)
}

func coords(pts []orb.Point) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

func rings(p orb.Polygon) [][][]float64 {
	out := make([][][]float64, len(p))
	for i, r := range p {
		out[i] = coords(r)
	}
	return out
}
