package meshio

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/tessellate"
)

// WriteGLB writes parts as a binary glTF. Each part becomes a node with its
// own mesh and a material carrying the part color.
func WriteGLB(w io.Writer, parts []tessellate.Part) error {
	doc := gltf.NewDocument()
	for _, p := range parts {
		m := p.Mesh
		if m.Normals == nil {
			m = m.WithNormals()
		}
		positions := make([][3]float32, m.VertexCount())
		normals := make([][3]float32, m.VertexCount())
		for i := range positions {
			copy(positions[i][:], m.Vertices[i*3:i*3+3])
			copy(normals[i][:], m.Normals[i*3:i*3+3])
		}

		mat := len(doc.Materials)
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: p.Name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: rgba(p.Color),
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(0.8),
			},
		})

		prim := &gltf.Primitive{
			Indices: gltf.Index(modeler.WriteIndices(doc, m.Indices)),
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, positions),
				gltf.NORMAL:   modeler.WriteNormal(doc, normals),
			},
			Material: gltf.Index(mat),
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: p.Name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: p.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("meshio: write glb: %w", err)
	}
	return nil
}

func rgba(c uint32) *[4]float64 {
	return &[4]float64{
		float64(c>>16&0xff) / 255,
		float64(c>>8&0xff) / 255,
		float64(c&0xff) / 255,
		1,
	}
}

// ReadGLTF decodes a glTF document with embedded buffers (GLB or data URIs)
// and returns one mesh per glTF mesh, in document order. Non-triangle
// primitives are skipped; node transforms are not applied.
func ReadGLTF(r io.Reader) ([]*mesh.Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("meshio: read gltf: %w", err)
	}
	var out []*mesh.Mesh
	for mi, gm := range doc.Meshes {
		var (
			vertices []float32
			indices  []uint32
		)
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}
			pos, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[pos], nil)
			if err != nil {
				return nil, fmt.Errorf("meshio: gltf mesh %d: %w", mi, err)
			}
			base := uint32(len(vertices) / 3)
			for _, p := range positions {
				vertices = append(vertices, p[0], p[1], p[2])
			}
			if prim.Indices == nil {
				for i := range positions {
					indices = append(indices, base+uint32(i))
				}
				continue
			}
			idx, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("meshio: gltf mesh %d: %w", mi, err)
			}
			for _, i := range idx {
				indices = append(indices, base+i)
			}
		}
		m := mesh.New(vertices, indices)
		m.Name = gm.Name
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("meshio: gltf mesh %d: %w", mi, err)
		}
		out = append(out, m)
	}
	return out, nil
}
