// Package crs parses coordinate reference systems and moves geometry
// collections into a metric, origin-centred working frame and back.
package crs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// WebMercator is the proj4 definition of EPSG:3857.
const WebMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

const (
	wgs84 = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"
	nad83 = "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs"
	merc  = "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"
)

var epsg = map[int]string{
	4326:   wgs84,
	4269:   nad83,
	3857:   WebMercator,
	900913: WebMercator,
	3395:   merc,
}

// ProjectionError reports an unusable, missing or non-cartesian reference
// system.
type ProjectionError struct {
	System string
	Reason string
}

func (e *ProjectionError) Error() string {
	if e.System == "" {
		return "crs: " + e.Reason
	}
	return fmt.Sprintf("crs: %s: %s", e.System, e.Reason)
}

// System is a parsed reference system.
type System struct {
	// Name is the definition as given, e.g. "EPSG:3857".
	Name string
	// Code is the EPSG code, 0 when the definition was not an EPSG code.
	Code int
	// Def is the proj4 string or WKT handed to the projection library.
	Def string

	sr *proj.SR
}

// Parse accepts "EPSG:<code>" (case insensitive), a proj4 string or WKT.
func Parse(def string) (*System, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, &ProjectionError{Reason: "empty reference system definition"}
	}
	s := &System{Name: def, Def: def}
	if code, ok := epsgCode(def); ok {
		d, err := epsgDef(code)
		if err != nil {
			return nil, err
		}
		s.Code = code
		s.Name = "EPSG:" + strconv.Itoa(code)
		s.Def = d
	}
	sr, err := proj.Parse(s.Def)
	if err != nil {
		return nil, &ProjectionError{System: def, Reason: err.Error()}
	}
	s.sr = sr
	return s, nil
}

// MustParse is like Parse but panics on error.
func MustParse(def string) *System {
	s, err := Parse(def)
	if err != nil {
		panic(err)
	}
	return s
}

func epsgCode(def string) (int, bool) {
	i := strings.IndexByte(def, ':')
	if i < 0 || !strings.EqualFold(def[:i], "epsg") {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(def[i+1:]))
	if err != nil {
		return 0, false
	}
	return code, true
}

func epsgDef(code int) (string, error) {
	if d, ok := epsg[code]; ok {
		return d, nil
	}
	zone := code % 100
	switch {
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=WGS84 +datum=WGS84 +units=m +no_defs", zone), nil
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +ellps=WGS84 +datum=WGS84 +units=m +no_defs", zone), nil
	}
	return "", &ProjectionError{System: "EPSG:" + strconv.Itoa(code), Reason: "unknown EPSG code"}
}

// UTM returns the WGS84 UTM zone system for zone (1-60) in the given
// hemisphere.
func UTM(zone int, north bool) (*System, error) {
	if zone < 1 || zone > 60 {
		return nil, &ProjectionError{Reason: fmt.Sprintf("utm zone %d out of range", zone)}
	}
	base := 32600
	if !north {
		base = 32700
	}
	return Parse("EPSG:" + strconv.Itoa(base+zone))
}

// IsGeographic reports whether the system uses angular coordinates.
func (s *System) IsGeographic() bool {
	return s.sr.Name == "longlat"
}

// IsCartesian reports whether the system is planar with metre units.
func (s *System) IsCartesian() bool {
	if s.IsGeographic() {
		return false
	}
	return s.sr.ToMeter <= 1.0000001 && s.sr.ToMeter >= 0.999999
}

// Equal reports whether two systems share a definition.
func (s *System) Equal(o *System) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Def == o.Def
}

// String returns the system name.
func (s *System) String() string {
	if s == nil {
		return ""
	}
	return s.Name
}

// Transformer returns a coordinate transform from s to dst.
func (s *System) Transformer(dst *System) (proj.Transformer, error) {
	t, err := s.sr.NewTransform(dst.sr)
	if err != nil {
		return nil, &ProjectionError{System: dst.Name, Reason: fmt.Sprintf("transform from %s: %v", s.Name, err)}
	}
	return t, nil
}
