// Package feature holds the input records of a footprint dataset: one planar
// geometry plus its attribute columns and stable identifier.
package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Feature is one input row.
//
// Index is the row's position in the original collection and is preserved
// through filtering and multi-part explosion so diagnostics can always name
// the source row. Part is the sub-index inside an exploded multi-part row.
type Feature struct {
	Index      int
	Part       int
	FID        string
	Geometry   orb.Geometry
	Attributes map[string]any
}

// Attr returns the named attribute.
func (f *Feature) Attr(name string) (any, bool) {
	if f.Attributes == nil {
		return nil, false
	}
	v, ok := f.Attributes[name]
	return v, ok
}

// Set assigns an attribute, creating the map if needed.
func (f *Feature) Set(name string, v any) {
	if f.Attributes == nil {
		f.Attributes = make(map[string]any)
	}
	f.Attributes[name] = v
}

// Clone returns a copy with its own attribute map. The geometry is shared.
func (f *Feature) Clone() *Feature {
	c := *f
	c.Attributes = make(map[string]any, len(f.Attributes))
	for k, v := range f.Attributes {
		c.Attributes[k] = v
	}
	return &c
}

// Height returns the numeric value of the named attribute. Missing, null,
// empty and non-finite values report false.
func (f *Feature) Height(field string) (float64, bool) {
	v, ok := f.Attr(field)
	if !ok {
		return 0, false
	}
	return Number(v)
}

// Number converts an attribute value to a finite float.
func Number(v any) (float64, bool) {
	var x float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int64:
		x = float64(t)
	case int32:
		x = float64(t)
	case uint:
		x = float64(t)
	case uint64:
		x = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		x = p
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// IsUnset reports whether an attribute value counts as missing: absent, nil,
// an empty string or NaN.
func IsUnset(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	return false
}

// Key formats an attribute value as a lookup key. Integral numbers print
// without a fractional part so 1.0 and "1" match.
func Key(v any) string {
	if x, ok := Number(v); ok {
		if _, isStr := v.(string); !isStr {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
	}
	return fmt.Sprint(v)
}

// Collection is an in-memory feature collection with its source reference
// system definition ("EPSG:4326", a proj4 string or WKT). CRS may be empty
// when the source file carried none.
type Collection struct {
	CRS      string
	Features []*Feature
}

// Len returns the number of features.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// Geometries returns the geometries in feature order.
func (c *Collection) Geometries() []orb.Geometry {
	out := make([]orb.Geometry, len(c.Features))
	for i, f := range c.Features {
		out[i] = f.Geometry
	}
	return out
}

// Explode splits MultiPolygon features into one feature per part. Each part
// keeps the original Index and gets a Part number counted per source row.
// Other geometries pass through with Part 0.
func Explode(fs []*Feature) []*Feature {
	out := make([]*Feature, 0, len(fs))
	for _, f := range fs {
		mp, ok := f.Geometry.(orb.MultiPolygon)
		if !ok || len(mp) <= 1 {
			c := f.Clone()
			c.Part = 0
			out = append(out, c)
			continue
		}
		for i, p := range mp {
			c := f.Clone()
			c.Part = i
			c.Geometry = p
			out = append(out, c)
		}
	}
	return out
}
