package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxSubdivideIterations bounds Subdivide. Each pass quadruples the
// triangle count.
const MaxSubdivideIterations = 4

var (
	// ErrTooManyIterations is returned by Subdivide above the iteration cap.
	ErrTooManyIterations = errors.New("mesh: too many subdivision iterations")
	// ErrNegativeIterations is returned by Subdivide for a negative count.
	ErrNegativeIterations = errors.New("mesh: negative subdivision iterations")
)

// ---------------------------------------------------------------------------
// Extrude
// ---------------------------------------------------------------------------

// ExtrudeFaces lifts the selected faces along their own normals by distance.
//
// Each original vertex touched by the selection gets exactly one lifted copy,
// so two selected faces sharing an edge still share it after the lift. Every
// edge of a selected face gets a two-triangle wall joining it to its lifted
// edge, and the face itself is replaced by its lifted cap with the winding
// reversed. Unselected triangles are copied first, in their original order.
func ExtrudeFaces(m *Mesh, faces []int, distance float32) (*Mesh, error) {
	if err := checkIndexed(m); err != nil {
		return nil, fmt.Errorf("extrude: %w", err)
	}
	if err := checkFaces(m, faces); err != nil {
		return nil, fmt.Errorf("extrude: %w", err)
	}
	faces = normalizeFaces(faces)
	selected := faceSet(faces)

	vertices := make([]float32, len(m.Vertices), len(m.Vertices)+len(faces)*9)
	copy(vertices, m.Vertices)
	indices := passThrough(m, selected, len(faces)*21)

	lifted := make(map[uint32]uint32, len(faces)*3)
	for _, f := range faces {
		tri := m.Face(f)
		// A degenerate face has no direction to lift along; its lifted
		// vertices coincide with the originals.
		normal, _ := m.FaceNormal(f)
		offset := normal.Mul(distance)

		var top [3]uint32
		for k, vi := range tri {
			li, ok := lifted[vi]
			if !ok {
				li = uint32(len(vertices) / 3)
				vertices = appendVertex(vertices, m.Vertex(vi).Add(offset))
				lifted[vi] = li
			}
			top[k] = li
		}

		for k := 0; k < 3; k++ {
			next := (k + 1) % 3
			indices = append(indices,
				tri[k], tri[next], top[k],
				tri[next], top[next], top[k],
			)
		}
		indices = append(indices, top[0], top[2], top[1])
	}

	out := New(vertices, indices)
	out.Name = m.Name
	return out, nil
}

// ---------------------------------------------------------------------------
// Inset
// ---------------------------------------------------------------------------

// InsetFaces shrinks each selected face toward its centroid by amount
// (clamped to [0,1]) and bridges the original edges to the inset edges.
// Inset vertices belong to a single face and are never shared.
func InsetFaces(m *Mesh, faces []int, amount float32) (*Mesh, error) {
	if err := checkIndexed(m); err != nil {
		return nil, fmt.Errorf("inset: %w", err)
	}
	if err := checkFaces(m, faces); err != nil {
		return nil, fmt.Errorf("inset: %w", err)
	}
	amount = mgl32.Clamp(amount, 0, 1)
	faces = normalizeFaces(faces)
	selected := faceSet(faces)

	vertices := make([]float32, len(m.Vertices), len(m.Vertices)+len(faces)*9)
	copy(vertices, m.Vertices)
	indices := passThrough(m, selected, len(faces)*21)

	for _, f := range faces {
		tri := m.Face(f)
		center := m.FaceCentroid(f)

		var inner [3]uint32
		for k, vi := range tri {
			inner[k] = uint32(len(vertices) / 3)
			v := m.Vertex(vi)
			vertices = appendVertex(vertices, v.Add(center.Sub(v).Mul(amount)))
		}

		indices = append(indices, inner[0], inner[1], inner[2])
		for k := 0; k < 3; k++ {
			next := (k + 1) % 3
			indices = append(indices,
				tri[k], tri[next], inner[k],
				tri[next], inner[next], inner[k],
			)
		}
	}

	out := New(vertices, indices)
	out.Name = m.Name
	return out, nil
}

// ---------------------------------------------------------------------------
// Subdivide
// ---------------------------------------------------------------------------

// edgeKey identifies an undirected edge.
type edgeKey struct {
	lo, hi uint32
}

func newEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// Subdivide splits every triangle into four using edge midpoints, repeated
// iterations times. Midpoints are shared between the triangles on either
// side of an edge.
func Subdivide(m *Mesh, iterations int) (*Mesh, error) {
	if err := checkIndexed(m); err != nil {
		return nil, fmt.Errorf("subdivide: %w", err)
	}
	if iterations < 0 {
		return nil, fmt.Errorf("subdivide: %w: %d", ErrNegativeIterations, iterations)
	}
	if iterations > MaxSubdivideIterations {
		return nil, fmt.Errorf("subdivide: %w: %d (max %d)", ErrTooManyIterations, iterations, MaxSubdivideIterations)
	}

	cur := m.Clone()
	for pass := 0; pass < iterations; pass++ {
		cur = subdivideOnce(cur)
	}
	cur.Normals = nil
	return cur, nil
}

func subdivideOnce(m *Mesh) *Mesh {
	nTri := m.TriangleCount()
	vertices := make([]float32, len(m.Vertices), len(m.Vertices)+nTri*9/2)
	copy(vertices, m.Vertices)
	indices := make([]uint32, 0, nTri*12)
	midpoints := make(map[edgeKey]uint32, nTri*3/2)

	midpoint := func(a, b uint32) uint32 {
		key := newEdgeKey(a, b)
		if idx, ok := midpoints[key]; ok {
			return idx
		}
		idx := uint32(len(vertices) / 3)
		vertices = appendVertex(vertices, m.Vertex(a).Add(m.Vertex(b)).Mul(0.5))
		midpoints[key] = idx
		return idx
	}

	for f := 0; f < nTri; f++ {
		t := m.Face(f)
		m0 := midpoint(t[0], t[1])
		m1 := midpoint(t[1], t[2])
		m2 := midpoint(t[2], t[0])
		indices = append(indices,
			t[0], m0, m2,
			m0, t[1], m1,
			m2, m1, t[2],
			m0, m1, m2,
		)
	}

	out := New(vertices, indices)
	out.Name = m.Name
	return out
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// normalizeFaces returns a sorted copy of faces without duplicates.
func normalizeFaces(faces []int) []int {
	out := append([]int(nil), faces...)
	sort.Ints(out)
	w := 0
	for i, f := range out {
		if i > 0 && f == out[i-1] {
			continue
		}
		out[w] = f
		w++
	}
	return out[:w]
}

func faceSet(faces []int) map[int]struct{} {
	s := make(map[int]struct{}, len(faces))
	for _, f := range faces {
		s[f] = struct{}{}
	}
	return s
}

// passThrough copies every unselected triangle of m in order. extra reserves
// capacity for the triangles the caller is about to add.
func passThrough(m *Mesh, selected map[int]struct{}, extra int) []uint32 {
	out := make([]uint32, 0, len(m.Indices)-len(selected)*3+extra)
	for f := 0; f < m.TriangleCount(); f++ {
		if _, ok := selected[f]; ok {
			continue
		}
		o := f * 3
		out = append(out, m.Indices[o], m.Indices[o+1], m.Indices[o+2])
	}
	return out
}
