// Package mesh defines the indexed triangle mesh shared by the kernels,
// the topology operators and the exporters. A Mesh is treated as an
// immutable value: every operator returns a new Mesh with a fresh revision
// and never writes to its input.
package mesh

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrMissingIndices is returned when an operator is handed a mesh
	// without an index buffer.
	ErrMissingIndices = errors.New("mesh: missing index buffer")

	// ErrFaceOutOfRange is returned when a face index does not address a
	// triangle of the mesh.
	ErrFaceOutOfRange = errors.New("mesh: face index out of range")

	// ErrIndexOutOfRange is returned when an index points past the vertex buffer.
	ErrIndexOutOfRange = errors.New("mesh: vertex index out of range")

	// ErrMalformed is returned for buffers whose length is not a multiple of 3.
	ErrMalformed = errors.New("mesh: malformed buffer")
)

// revisionCounter hands out mesh revisions. Revisions only need to be
// distinct, never dense.
var revisionCounter atomic.Uint64

// NextRevision returns a revision number not used by any earlier mesh.
func NextRevision() uint64 {
	return revisionCounter.Add(1)
}

// Mesh is an indexed triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // optional, per vertex
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`
	Revision uint64    `json:"revision"`
}

// New builds a mesh from flat buffers and stamps it with a new revision.
// The buffers are owned by the returned mesh.
func New(vertices []float32, indices []uint32) *Mesh {
	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Revision: NextRevision(),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) mgl32.Vec3 {
	o := int(i) * 3
	return mgl32.Vec3{m.Vertices[o], m.Vertices[o+1], m.Vertices[o+2]}
}

// Face returns the vertex indices of triangle f.
func (m *Mesh) Face(f int) [3]uint32 {
	o := f * 3
	return [3]uint32{m.Indices[o], m.Indices[o+1], m.Indices[o+2]}
}

// FaceNormal returns the unit normal of triangle f following its winding.
// Degenerate triangles report ok=false.
func (m *Mesh) FaceNormal(f int) (mgl32.Vec3, bool) {
	t := m.Face(f)
	return triangleNormal(m.Vertex(t[0]), m.Vertex(t[1]), m.Vertex(t[2]))
}

// FaceCentroid returns the average of the three corners of triangle f.
func (m *Mesh) FaceCentroid(f int) mgl32.Vec3 {
	t := m.Face(f)
	return m.Vertex(t[0]).Add(m.Vertex(t[1])).Add(m.Vertex(t[2])).Mul(1.0 / 3.0)
}

// Bounds returns the axis-aligned bounds of all vertices. An empty mesh
// reports zero vectors.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	if m.IsEmpty() {
		return min, max
	}
	min = m.Vertex(0)
	max = min
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(uint32(i))
		for k := 0; k < 3; k++ {
			if v[k] < min[k] {
				min[k] = v[k]
			}
			if v[k] > max[k] {
				max[k] = v[k]
			}
		}
	}
	return min, max
}

// Validate checks the buffer shapes and that every index addresses a vertex.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: %d vertex floats", ErrMalformed, len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrMalformed, len(m.Indices))
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at offset %d, %d vertices", ErrIndexOutOfRange, idx, i, n)
		}
	}
	return nil
}

// Clone returns a deep copy carrying a new revision.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: append([]float32(nil), m.Vertices...),
		Indices:  append([]uint32(nil), m.Indices...),
		Name:     m.Name,
		Revision: NextRevision(),
	}
	if m.Normals != nil {
		c.Normals = append([]float32(nil), m.Normals...)
	}
	return c
}

// WithNormals returns a copy of m with area-weighted vertex normals.
// The revision is kept since topology and positions are unchanged.
func (m *Mesh) WithNormals() *Mesh {
	normals := make([]float32, len(m.Vertices))
	for f := 0; f < m.TriangleCount(); f++ {
		t := m.Face(f)
		a, b, c := m.Vertex(t[0]), m.Vertex(t[1]), m.Vertex(t[2])
		// The unnormalized cross product weights by triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range t {
			o := int(idx) * 3
			normals[o] += n[0]
			normals[o+1] += n[1]
			normals[o+2] += n[2]
		}
	}
	for o := 0; o+2 < len(normals); o += 3 {
		n := mgl32.Vec3{normals[o], normals[o+1], normals[o+2]}
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		normals[o], normals[o+1], normals[o+2] = n[0], n[1], n[2]
	}
	return &Mesh{
		Vertices: m.Vertices,
		Normals:  normals,
		Indices:  m.Indices,
		Name:     m.Name,
		Revision: m.Revision,
	}
}

// checkIndexed verifies that m can be addressed by face index.
func checkIndexed(m *Mesh) error {
	if m == nil || len(m.Indices) == 0 {
		return ErrMissingIndices
	}
	return m.Validate()
}

// checkFaces verifies that every face index addresses a triangle of m.
func checkFaces(m *Mesh, faces []int) error {
	n := m.TriangleCount()
	for _, f := range faces {
		if f < 0 || f >= n {
			return fmt.Errorf("%w: face %d, mesh has %d triangles", ErrFaceOutOfRange, f, n)
		}
	}
	return nil
}

func triangleNormal(a, b, c mgl32.Vec3) (mgl32.Vec3, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-12 {
		return mgl32.Vec3{}, false
	}
	return n.Mul(1 / l), true
}

func appendVertex(buf []float32, v mgl32.Vec3) []float32 {
	return append(buf, v[0], v[1], v[2])
}
