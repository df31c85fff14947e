package mesh

import "math"

// weldKey is a vertex position snapped to a grid so that nearly equal
// float positions hash to the same key.
type weldKey struct {
	x, y, z int64
}

func quantize(x, y, z float32, tolerance float64) weldKey {
	if tolerance <= 0 {
		tolerance = 1e-9
	}
	scale := 1.0 / tolerance
	return weldKey{
		x: int64(math.Round(float64(x) * scale)),
		y: int64(math.Round(float64(y) * scale)),
		z: int64(math.Round(float64(z) * scale)),
	}
}

// Builder accumulates triangles given by corner positions and welds equal
// corners into shared vertices.
type Builder struct {
	tolerance float64
	vertices  []float32
	indices   []uint32
	lookup    map[weldKey]uint32
}

// NewBuilder returns a Builder merging corners closer than tolerance.
func NewBuilder(tolerance float64) *Builder {
	return &Builder{
		tolerance: tolerance,
		lookup:    make(map[weldKey]uint32),
	}
}

// Vertex returns the index of the vertex at (x,y,z), adding it if needed.
func (b *Builder) Vertex(x, y, z float32) uint32 {
	key := quantize(x, y, z, b.tolerance)
	if idx, ok := b.lookup[key]; ok {
		return idx
	}
	idx := uint32(len(b.vertices) / 3)
	b.vertices = append(b.vertices, x, y, z)
	b.lookup[key] = idx
	return idx
}

// Triangle adds a triangle from three corner positions. Triangles that
// collapse after welding are dropped.
func (b *Builder) Triangle(a, c, d [3]float32) {
	i0 := b.Vertex(a[0], a[1], a[2])
	i1 := b.Vertex(c[0], c[1], c[2])
	i2 := b.Vertex(d[0], d[1], d[2])
	if i0 == i1 || i1 == i2 || i2 == i0 {
		return
	}
	b.indices = append(b.indices, i0, i1, i2)
}

// Mesh returns the welded mesh.
func (b *Builder) Mesh() *Mesh {
	return New(b.vertices, b.indices)
}

// Weld merges vertices of m whose positions agree within tolerance and
// rewrites the index buffer to match. Triangles that collapse are dropped.
func Weld(m *Mesh, tolerance float64) *Mesh {
	b := NewBuilder(tolerance)
	for f := 0; f < m.TriangleCount(); f++ {
		t := m.Face(f)
		var corners [3][3]float32
		for k, vi := range t {
			v := m.Vertex(vi)
			corners[k] = [3]float32{v[0], v[1], v[2]}
		}
		b.Triangle(corners[0], corners[1], corners[2])
	}
	out := b.Mesh()
	out.Name = m.Name
	return out
}
