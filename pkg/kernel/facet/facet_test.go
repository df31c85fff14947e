package facet

import (
	"testing"

	"github.com/chazu/kiln/pkg/kernel"
	"github.com/chazu/kiln/pkg/mesh"
)

func build(t *testing.T, s kernel.Solid, err error) *mesh.Mesh {
	t.Helper()
	if err != nil {
		t.Fatalf("solid failed: %v", err)
	}
	m, err := New().ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("mesh invalid: %v", err)
	}
	return m
}

func TestCounts(t *testing.T) {
	k := New()
	tests := []struct {
		name      string
		solid     func() (kernel.Solid, error)
		triangles int
		vertices  int
	}{
		{"box", func() (kernel.Solid, error) { return k.Box(10, 10, 10) }, 12, 24},
		{"sphere", func() (kernel.Solid, error) { return k.Sphere(5, 32, 16) }, 960, 482},
		{"cylinder", func() (kernel.Solid, error) { return k.Cylinder(5, 5, 10, 32) }, 128, 130},
		{"cone", func() (kernel.Solid, error) { return k.Cone(5, 10, 32) }, 64, 66},
		{"segments clamped", func() (kernel.Solid, error) { return k.Sphere(1, 1, 1) }, 6, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.solid()
			m := build(t, s, err)
			if got := m.TriangleCount(); got != tt.triangles {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			if got := m.VertexCount(); got != tt.vertices {
				t.Errorf("VertexCount() = %d, want %d", got, tt.vertices)
			}
		})
	}
}

// Solids are convex and centered, so every face normal points away from
// the origin.
func TestFacesPointOutward(t *testing.T) {
	k := New()
	solids := map[string]func() (kernel.Solid, error){
		"box":     func() (kernel.Solid, error) { return k.Box(2, 4, 6) },
		"sphere":  func() (kernel.Solid, error) { return k.Sphere(3, 12, 8) },
		"frustum": func() (kernel.Solid, error) { return k.Cylinder(1, 3, 4, 10) },
		"cone":    func() (kernel.Solid, error) { return k.Cone(2, 5, 10) },
		"funnel":  func() (kernel.Solid, error) { return k.Cylinder(2, 0, 5, 10) },
	}
	for name, fn := range solids {
		t.Run(name, func(t *testing.T) {
			s, err := fn()
			m := build(t, s, err)
			for f := 0; f < m.TriangleCount(); f++ {
				n, ok := m.FaceNormal(f)
				if !ok {
					t.Fatalf("face %d is degenerate", f)
				}
				if d := n.Dot(m.FaceCentroid(f)); d <= 0 {
					t.Fatalf("face %d points inward (n·c = %v)", f, d)
				}
			}
		})
	}
}

func TestSphereIsClosed(t *testing.T) {
	s, err := New().Sphere(1, 16, 8)
	m := build(t, s, err)
	edges := make(map[[2]uint32]int)
	for f := 0; f < m.TriangleCount(); f++ {
		tri := m.Face(f)
		for k := 0; k < 3; k++ {
			edges[[2]uint32{tri[k], tri[(k+1)%3]}]++
		}
	}
	for e, n := range edges {
		if n != 1 {
			t.Fatalf("directed edge %v used %d times", e, n)
		}
		if edges[[2]uint32{e[1], e[0]}] != 1 {
			t.Fatalf("edge %v has no opposite", e)
		}
	}
}

func TestToMeshReturnsCopies(t *testing.T) {
	k := New()
	s, err := k.Box(1, 1, 1)
	a := build(t, s, err)
	b := build(t, s, err)
	a.Vertices[0] = 99
	if b.Vertices[0] == 99 {
		t.Fatal("meshes share vertex storage")
	}
	if a.Revision == b.Revision {
		t.Fatal("copies share a revision")
	}
}
