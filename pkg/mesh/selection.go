package mesh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// Selection is a set of face indices bound to the mesh revision it was
// made against. A selection taken on one revision says nothing about any
// other revision, so callers check Stale before using it.
type Selection struct {
	Revision uint64 `json:"revision"`
	faces    map[int]struct{}
}

// NewSelection returns a selection on m containing the given faces.
// Out-of-range faces are dropped.
func NewSelection(m *Mesh, faces ...int) *Selection {
	s := &Selection{faces: make(map[int]struct{})}
	if m == nil {
		return s
	}
	s.Revision = m.Revision
	n := m.TriangleCount()
	for _, f := range faces {
		if f >= 0 && f < n {
			s.faces[f] = struct{}{}
		}
	}
	return s
}

// Toggle adds f if absent and removes it otherwise. It reports whether f
// is selected afterwards.
func (s *Selection) Toggle(f int) bool {
	if _, ok := s.faces[f]; ok {
		delete(s.faces, f)
		return false
	}
	s.faces[f] = struct{}{}
	return true
}

// Has reports whether f is selected.
func (s *Selection) Has(f int) bool {
	_, ok := s.faces[f]
	return ok
}

// Len returns the number of selected faces.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.faces)
}

// Faces returns the selected face indices in ascending order.
func (s *Selection) Faces() []int {
	if s == nil {
		return nil
	}
	out := lo.Keys(s.faces)
	sort.Ints(out)
	return out
}

// Stale reports whether the selection was made against a different
// revision than m.
func (s *Selection) Stale(m *Mesh) bool {
	return s == nil || m == nil || s.Revision != m.Revision
}

// SelectionNormal returns the normalized average of the normals of faces.
// An empty selection, or one whose normals cancel out, yields +Y.
func SelectionNormal(m *Mesh, faces []int) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, f := range faces {
		if f < 0 || f >= m.TriangleCount() {
			continue
		}
		if n, ok := m.FaceNormal(f); ok {
			sum = sum.Add(n)
		}
	}
	if sum.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}
	}
	return sum.Normalize()
}

// SelectionCentroid returns the average of the face centroids of faces.
// An empty selection yields the origin.
func SelectionCentroid(m *Mesh, faces []int) mgl32.Vec3 {
	var sum mgl32.Vec3
	n := 0
	for _, f := range faces {
		if f < 0 || f >= m.TriangleCount() {
			continue
		}
		sum = sum.Add(m.FaceCentroid(f))
		n++
	}
	if n == 0 {
		return sum
	}
	return sum.Mul(1 / float32(n))
}
