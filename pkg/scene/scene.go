// Package scene holds the composed 3D model: every point, curve and solid,
// the layer namespace they are organised in, and the reference frame
// (projected CRS plus recentering offset) their coordinates live in.
package scene

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/plinth/pkg/crs"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/layers"
	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"
)

// ErrFrameLocked is returned when the reference frame is changed after
// geometry has been added.
var ErrFrameLocked = errors.New("scene: reference frame is locked once geometry has been added")

// Kind tags the geometry carried by an Object.
type Kind int

const (
	KindPoint Kind = iota
	KindCurve
	KindBrep
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindCurve:
		return "curve"
	case KindBrep:
		return "brep"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Attributes are the mutable properties of an object.
type Attributes struct {
	LayerID         uuid.UUID
	Name            string
	Color           layers.Color
	ColorFromObject bool
	UserStrings     map[string]string
}

// SetUserString stores a string attribute.
func (a *Attributes) SetUserString(key, value string) {
	if a.UserStrings == nil {
		a.UserStrings = make(map[string]string)
	}
	a.UserStrings[key] = value
}

// UserString returns a string attribute.
func (a *Attributes) UserString(key string) (string, bool) {
	v, ok := a.UserStrings[key]
	return v, ok
}

// Object is one scene entry. The geometry is owned by the scene and never
// mutated after insertion; only Attributes change.
type Object struct {
	ID         uuid.UUID
	Kind       Kind
	Geometry   kernel.Geometry
	Attributes Attributes

	bounds rtreego.Rect
}

// Bounds implements rtreego.Spatial over the XY footprint.
func (o *Object) Bounds() rtreego.Rect {
	return o.bounds
}

// objectSpace seeds deterministic object handles.
var objectSpace = uuid.MustParse("3f9e2b64-0c71-4d5a-8e13-b7a2c6d40f95")

// Scene owns objects and layers. It is not safe for concurrent writers.
type Scene struct {
	Layers *layers.Namespace

	crs    *crs.System
	offset crs.Offset

	objects []*Object
	byID    map[uuid.UUID]*Object
	index   *rtreego.Rtree
	seq     uint64
}

// New returns an empty scene with the base layers seeded.
func New() *Scene {
	ns := layers.New()
	// Seeding only fails on malformed paths; the base paths are constant.
	if err := ns.SeedBase(); err != nil {
		panic(err)
	}
	return &Scene{
		Layers: ns,
		byID:   make(map[uuid.UUID]*Object),
		index:  rtreego.NewTree(2, 25, 50),
	}
}

// SetReferenceFrame sets the projected CRS and recentering offset. It
// fails with ErrFrameLocked once any object exists.
func (s *Scene) SetReferenceFrame(sys *crs.System, off crs.Offset) error {
	if len(s.objects) > 0 {
		return ErrFrameLocked
	}
	s.crs = sys
	s.offset = off
	return nil
}

// CRS returns the scene's reference system, or nil if unset.
func (s *Scene) CRS() *crs.System {
	return s.crs
}

// Offset returns the recentering offset. World coordinates are scene
// coordinates plus the offset.
func (s *Scene) Offset() crs.Offset {
	return s.offset
}

// AddPoint registers a point.
func (s *Scene) AddPoint(p kernel.Point, attrs Attributes) (uuid.UUID, error) {
	return s.add(KindPoint, p, attrs)
}

// AddCurve registers a polyline.
func (s *Scene) AddCurve(pl kernel.Polyline, attrs Attributes) (uuid.UUID, error) {
	if len(pl) < 2 {
		return uuid.Nil, fmt.Errorf("scene: curve needs at least two points, got %d", len(pl))
	}
	return s.add(KindCurve, pl, attrs)
}

// AddBrep registers a kernel solid or surface.
func (s *Scene) AddBrep(b kernel.Solid, attrs Attributes) (uuid.UUID, error) {
	if b == nil {
		return uuid.Nil, errors.New("scene: nil solid")
	}
	return s.add(KindBrep, b, attrs)
}

func (s *Scene) add(kind Kind, g kernel.Geometry, attrs Attributes) (uuid.UUID, error) {
	if s.Layers.FindByID(attrs.LayerID) == nil {
		return uuid.Nil, fmt.Errorf("scene: unknown layer %s", attrs.LayerID)
	}
	s.seq++
	o := &Object{
		ID:         uuid.NewSHA1(objectSpace, []byte(strconv.FormatUint(s.seq, 10))),
		Kind:       kind,
		Geometry:   g,
		Attributes: attrs,
		bounds:     rect(g),
	}
	s.objects = append(s.objects, o)
	s.byID[o.ID] = o
	s.index.Insert(o)
	return o.ID, nil
}

// rect converts a bounding box to an rtreego rectangle. Degenerate extents
// are padded since rtreego rejects zero lengths.
func rect(g kernel.Geometry) rtreego.Rect {
	min, max := g.BoundingBox()
	const pad = 1e-9
	w, h := max[0]-min[0], max[1]-min[1]
	if w < pad {
		w = pad
	}
	if h < pad {
		h = pad
	}
	r, _ := rtreego.NewRect(rtreego.Point{min[0], min[1]}, []float64{w, h})
	return r
}

// Find returns the object with the given handle, or nil.
func (s *Scene) Find(id uuid.UUID) *Object {
	return s.byID[id]
}

// Objects returns every object in insertion order.
func (s *Scene) Objects() []*Object {
	return append([]*Object(nil), s.objects...)
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// ObjectsOnLayer returns the objects assigned to a layer.
func (s *Scene) ObjectsOnLayer(id uuid.UUID) []*Object {
	var out []*Object
	for _, o := range s.objects {
		if o.Attributes.LayerID == id {
			out = append(out, o)
		}
	}
	return out
}

// MoveToLayer reassigns an object.
func (s *Scene) MoveToLayer(id, layer uuid.UUID) error {
	o := s.byID[id]
	if o == nil {
		return fmt.Errorf("scene: no object %s", id)
	}
	if s.Layers.FindByID(layer) == nil {
		return fmt.Errorf("scene: unknown layer %s", layer)
	}
	o.Attributes.LayerID = layer
	return nil
}

// Search returns the objects whose XY bounding box intersects the box
// [min, max], in insertion order.
func (s *Scene) Search(min, max [2]float64) []*Object {
	w, h := max[0]-min[0], max[1]-min[1]
	if w <= 0 {
		w = 1e-9
	}
	if h <= 0 {
		h = 1e-9
	}
	q, err := rtreego.NewRect(rtreego.Point{min[0], min[1]}, []float64{w, h})
	if err != nil {
		return nil
	}
	hits := make(map[*Object]bool)
	for _, sp := range s.index.SearchIntersect(q) {
		hits[sp.(*Object)] = true
	}
	out := make([]*Object, 0, len(hits))
	for _, o := range s.objects {
		if hits[o] {
			out = append(out, o)
		}
	}
	return out
}

// Summary counts the scene's contents.
type Summary struct {
	Objects  int            `json:"objects"`
	Points   int            `json:"points"`
	Curves   int            `json:"curves"`
	Breps    int            `json:"breps"`
	Layers   int            `json:"layers"`
	CRS      string         `json:"crs"`
	Offset   crs.Offset     `json:"offset"`
	PerLayer map[string]int `json:"perLayer"`
}

// Summary returns object counts per kind and per layer.
func (s *Scene) Summary() Summary {
	sum := Summary{
		Objects:  len(s.objects),
		Layers:   s.Layers.Len(),
		CRS:      s.crs.String(),
		Offset:   s.offset,
		PerLayer: make(map[string]int),
	}
	for _, o := range s.objects {
		switch o.Kind {
		case KindPoint:
			sum.Points++
		case KindCurve:
			sum.Curves++
		case KindBrep:
			sum.Breps++
		}
		if l := s.Layers.FindByID(o.Attributes.LayerID); l != nil {
			sum.PerLayer[l.FullPath]++
		}
	}
	return sum
}
