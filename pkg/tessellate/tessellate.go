// Package tessellate walks scene objects and produces world-space
// triangle meshes, one per visible object. Exporters and the render
// surface consume the resulting parts.
package tessellate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/scene"
)

// Part is one object placed in the world.
type Part struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Color uint32     `json:"color"`
	Mesh  *mesh.Mesh `json:"mesh"`
}

// Tessellate places every visible object in world space. Hidden objects
// are skipped. The objects are only read.
func Tessellate(objects []scene.Object) ([]Part, error) {
	var parts []Part
	for _, o := range objects {
		if !o.Visible {
			continue
		}
		p, err := place(o)
		if err != nil {
			return nil, fmt.Errorf("tessellate: object %s: %w", o.ID, err)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func place(o scene.Object) (Part, error) {
	if o.Mesh == nil {
		return Part{}, fmt.Errorf("no mesh")
	}
	if err := o.Mesh.Validate(); err != nil {
		return Part{}, err
	}
	color, err := ObjectColor(o)
	if err != nil {
		return Part{}, err
	}
	m := World(o.Mesh, o.Transform.Matrix())
	m.Name = o.Name
	return Part{ID: o.ID, Name: o.Name, Color: color, Mesh: m}, nil
}

// World returns a copy of m with every vertex carried through model and
// fresh vertex normals. A mirroring model reverses triangle winding so
// faces keep pointing outward.
func World(m *mesh.Mesh, model mgl64.Mat4) *mesh.Mesh {
	vertices := make([]float32, len(m.Vertices))
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		v := mgl64.Vec3{float64(m.Vertices[i]), float64(m.Vertices[i+1]), float64(m.Vertices[i+2])}
		w := mgl64.TransformCoordinate(v, model)
		vertices[i], vertices[i+1], vertices[i+2] = float32(w[0]), float32(w[1]), float32(w[2])
	}
	indices := append([]uint32(nil), m.Indices...)
	if model.Mat3().Det() < 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
		}
	}
	out := mesh.New(vertices, indices)
	out.Name = m.Name
	return out.WithNormals()
}

// ObjectColor returns the display color of o: its override if set,
// otherwise its material color.
func ObjectColor(o scene.Object) (uint32, error) {
	if o.Color != "" {
		return ParseColor(o.Color)
	}
	mat, err := material.Lookup(o.Material)
	if err != nil {
		return 0, err
	}
	return mat.Color, nil
}

// ParseColor reads "#rrggbb" or "rrggbb".
func ParseColor(s string) (uint32, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return 0, fmt.Errorf("tessellate: bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("tessellate: bad color %q: %w", s, err)
	}
	return uint32(v), nil
}
