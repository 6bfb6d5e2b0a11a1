// Package tessellate converts the solids of a scene into triangle meshes
// and writes them as Wavefront OBJ.
package tessellate

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/plinth/pkg/crs"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/scene"
)

// Scene meshes every solid object of s with k, in insertion order. Each
// mesh is named after its object and carries the full path of its layer.
// Solids that tessellate to nothing are skipped.
func Scene(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	var out []*kernel.Mesh
	for _, o := range s.Objects() {
		if o.Kind != scene.KindBrep {
			continue
		}
		solid, ok := o.Geometry.(kernel.Solid)
		if !ok {
			return nil, fmt.Errorf("tessellate: object %s: geometry %T is not a solid", o.ID, o.Geometry)
		}
		m, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for object %s: %w", o.ID, err)
		}
		if m == nil || m.IsEmpty() {
			continue
		}
		m.Name = o.Attributes.Name
		if m.Name == "" {
			m.Name = o.ID.String()
		}
		if l := s.Layers.FindByID(o.Attributes.LayerID); l != nil {
			m.Layer = l.FullPath
		}
		out = append(out, m)
	}
	return out, nil
}

// WriteOBJ writes meshes as one OBJ object each, grouped by layer through
// usemtl. Vertices are shifted back by off so the file is in projected
// world coordinates; pass a zero offset to keep the local frame.
func WriteOBJ(w io.Writer, meshes []*kernel.Mesh, off crs.Offset) error {
	bw := bufio.NewWriter(w)
	base := 1
	for _, m := range meshes {
		fmt.Fprintf(bw, "o %s\n", objName(m.Name))
		if m.Layer != "" {
			fmt.Fprintf(bw, "usemtl %s\n", objName(m.Layer))
		}
		for i := 0; i+2 < len(m.Vertices); i += 3 {
			fmt.Fprintf(bw, "v %s %s %s\n",
				ftoa(m.Vertices[i]+off.X), ftoa(m.Vertices[i+1]+off.Y), ftoa(m.Vertices[i+2]))
		}
		hasNormals := len(m.Normals) == len(m.Vertices)
		if hasNormals {
			for i := 0; i+2 < len(m.Normals); i += 3 {
				fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(m.Normals[i]), ftoa(m.Normals[i+1]), ftoa(m.Normals[i+2]))
			}
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			a, b, c := base+int(m.Indices[t]), base+int(m.Indices[t+1]), base+int(m.Indices[t+2])
			if hasNormals {
				fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
			} else {
				fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
			}
		}
		base += m.VertexCount()
	}
	return bw.Flush()
}

// objName makes s safe for a single OBJ token.
func objName(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
