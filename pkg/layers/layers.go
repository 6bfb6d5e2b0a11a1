// Package layers maintains a hierarchical namespace of named, colored
// layers addressed by "::"-joined full paths.
package layers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Delimiter joins path segments in canonical full paths.
const Delimiter = "::"

// Base layer paths seeded into every project.
const (
	Root           = "umi"
	Buildings      = "umi::Buildings"
	Context        = "umi::Context"
	SiteBoundary   = "umi::Context::Site boundary"
	Streets        = "umi::Context::Streets"
	Parks          = "umi::Context::Parks"
	BoundaryObject = "umi::Context::Boundary objects"
	Shading        = "umi::Context::Shading"
	Trees          = "umi::Context::Trees"
)

// BaseLayers lists the seeded layers with their colors, in creation order.
var BaseLayers = []struct {
	Path  string
	Color Color
}{
	{Buildings, Color{0, 0, 0, 255}},
	{Context, Color{0, 0, 0, 255}},
	{SiteBoundary, Color{255, 0, 255, 255}},
	{Streets, Color{0, 0, 0, 255}},
	{Parks, Color{0, 127, 0, 255}},
	{BoundaryObject, Color{0, 0, 0, 255}},
	{Shading, Color{191, 63, 63, 255}},
	{Trees, Color{63, 191, 127, 255}},
}

// layerSpace seeds deterministic layer identities.
var layerSpace = uuid.MustParse("7d1c34f2-5a8e-4b1f-9d0c-2e6f4a9b8c31")

// Layer is one node of the namespace. ParentID is uuid.Nil for roots.
type Layer struct {
	ID       uuid.UUID `json:"id"`
	Index    int       `json:"index"`
	Name     string    `json:"name"`
	FullPath string    `json:"fullPath"`
	ParentID uuid.UUID `json:"parentId"`
	Color    Color     `json:"color"`
}

// IsRoot reports whether the layer has no parent.
func (l *Layer) IsRoot() bool {
	return l.ParentID == uuid.Nil
}

// AmbiguousNameError reports a leaf-name lookup matching several layers.
type AmbiguousNameError struct {
	Name  string
	Count int
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("layers: %d layers are named %q, look up by full path instead", e.Count, e.Name)
}

// Namespace owns a set of layers. It is not safe for concurrent writers.
type Namespace struct {
	byPath map[string]*Layer
	byID   map[uuid.UUID]*Layer
	order  []*Layer
}

// New returns an empty namespace.
func New() *Namespace {
	return &Namespace{
		byPath: make(map[string]*Layer),
		byID:   make(map[uuid.UUID]*Layer),
	}
}

// AddLayer creates the layer at a "::"-delimited path, creating missing
// ancestors in black. Adding an existing path returns the existing layer.
func (n *Namespace) AddLayer(path string) (*Layer, error) {
	return n.AddLayerWithDelimiter(path, Delimiter)
}

// AddLayerWithDelimiter is AddLayer with a custom delimiter. The stored
// full path always uses "::", so segments may not contain it.
func (n *Namespace) AddLayerWithDelimiter(path, delim string) (*Layer, error) {
	if delim == "" {
		return nil, fmt.Errorf("layers: empty delimiter")
	}
	segs := strings.Split(path, delim)
	for i, s := range segs {
		segs[i] = strings.TrimSpace(s)
		if segs[i] == "" {
			return nil, fmt.Errorf("layers: empty segment in path %q", path)
		}
		if strings.Contains(segs[i], Delimiter) {
			return nil, fmt.Errorf("layers: segment %q in path %q contains %q", segs[i], path, Delimiter)
		}
	}

	var parent *Layer
	for i := range segs {
		full := strings.Join(segs[:i+1], Delimiter)
		if l, ok := n.byPath[full]; ok {
			parent = l
			continue
		}
		l := &Layer{
			ID:       uuid.NewSHA1(layerSpace, []byte(full)),
			Index:    len(n.order),
			Name:     segs[i],
			FullPath: full,
			Color:    Black,
		}
		if parent != nil {
			l.ParentID = parent.ID
		}
		n.byPath[full] = l
		n.byID[l.ID] = l
		n.order = append(n.order, l)
		parent = l
	}
	return parent, nil
}

// SetColor changes a layer's color.
func (n *Namespace) SetColor(id uuid.UUID, c Color) error {
	l, ok := n.byID[id]
	if !ok {
		return fmt.Errorf("layers: no layer %s", id)
	}
	l.Color = c
	return nil
}

// SeedBase adds the base layers and resets their colors. Calling it again
// creates nothing new.
func (n *Namespace) SeedBase() error {
	for _, b := range BaseLayers {
		l, err := n.AddLayer(b.Path)
		if err != nil {
			return err
		}
		l.Color = b.Color
	}
	return nil
}

// FindByID returns the layer with the given identity, or nil.
func (n *Namespace) FindByID(id uuid.UUID) *Layer {
	return n.byID[id]
}

// FindByFullPath returns the layer at a canonical full path, or nil.
func (n *Namespace) FindByFullPath(path string) *Layer {
	return n.byPath[path]
}

// FindByName returns the single layer whose leaf name is name, or nil.
// Several matches return an *AmbiguousNameError.
func (n *Namespace) FindByName(name string) (*Layer, error) {
	var found []*Layer
	for _, l := range n.order {
		if l.Name == name {
			found = append(found, l)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	return nil, &AmbiguousNameError{Name: name, Count: len(found)}
}

// Children returns the direct children of a layer in creation order.
func (n *Namespace) Children(id uuid.UUID) []*Layer {
	var out []*Layer
	for _, l := range n.order {
		if l.ParentID == id && l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// Roots returns the top-level layers.
func (n *Namespace) Roots() []*Layer {
	return n.Children(uuid.Nil)
}

// Layers returns every layer in creation order.
func (n *Namespace) Layers() []*Layer {
	return append([]*Layer(nil), n.order...)
}

// Len returns the number of layers.
func (n *Namespace) Len() int {
	return len(n.order)
}
