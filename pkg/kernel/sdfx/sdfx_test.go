package sdfx

import (
	"math"
	"testing"
)

func TestBox(t *testing.T) {
	k := New(32)
	box, err := k.Box(100, 50, 25)
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("mesh invalid: %v", err)
	}
	// Welding must have shared corners between triangles.
	if mesh.VertexCount() >= len(mesh.Indices) {
		t.Fatalf("vertex count %d not below index count %d; mesh was not welded", mesh.VertexCount(), len(mesh.Indices))
	}
	min, max := mesh.Bounds()
	if math.Abs(float64(max[0]-min[0])-100) > 5 {
		t.Errorf("box x extent = %v, want about 100", max[0]-min[0])
	}
}

func TestCylinderStandsOnY(t *testing.T) {
	k := New(32)
	cyl, err := k.Cylinder(10, 10, 50, 32)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	min, max := cyl.BoundingBox()
	if h := max[1] - min[1]; math.Abs(h-50) > 1e-6 {
		t.Fatalf("cylinder y extent = %v, want 50", h)
	}
	if w := max[2] - min[2]; math.Abs(w-20) > 1e-6 {
		t.Fatalf("cylinder z extent = %v, want 20", w)
	}
	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	t.Logf("cylinder triangle count: %d", mesh.TriangleCount())
}

func TestConeAndFrustum(t *testing.T) {
	k := New(24)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"cone", func() error {
			s, err := k.Cone(5, 10, 32)
			if err != nil {
				return err
			}
			_, err = k.ToMesh(s)
			return err
		}},
		{"frustum", func() error {
			s, err := k.Cylinder(2, 5, 10, 32)
			if err != nil {
				return err
			}
			_, err = k.ToMesh(s)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
		})
	}
}

func TestSphereVolumeApproximation(t *testing.T) {
	k := New(48)
	s, err := k.Sphere(5, 0, 0)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	// Signed volume of the closed surface via the divergence theorem.
	var vol float64
	for f := 0; f < m.TriangleCount(); f++ {
		tri := m.Face(f)
		a, b, c := m.Vertex(tri[0]), m.Vertex(tri[1]), m.Vertex(tri[2])
		vol += float64(a.Dot(b.Cross(c))) / 6
	}
	want := 4.0 / 3.0 * math.Pi * 125
	if math.Abs(math.Abs(vol)-want)/want > 0.05 {
		t.Fatalf("sphere volume = %v, want within 5%% of %v", vol, want)
	}
}

func TestDefaultCells(t *testing.T) {
	if k := New(0); k.cells != DefaultMeshCells {
		t.Fatalf("cells = %d, want %d", k.cells, DefaultMeshCells)
	}
}
