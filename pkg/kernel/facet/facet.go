// Package facet implements the kernel.Kernel interface by generating
// indexed polygonal meshes directly, with the same segment counts a
// browser scene library uses for its built-in geometries. Every triangle
// winds counter-clockwise seen from outside.
package facet

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/kiln/pkg/kernel"
	"github.com/chazu/kiln/pkg/mesh"
)

// Compile-time interface check.
var _ kernel.Kernel = (*FacetKernel)(nil)

const (
	minRadialSegments = 3
	minHeightSegments = 2
)

// facetSolid is a finished mesh.
type facetSolid struct {
	m *mesh.Mesh
}

// BoundingBox returns the axis-aligned bounding box.
func (s *facetSolid) BoundingBox() (min, max [3]float64) {
	lo, hi := s.m.Bounds()
	for i := 0; i < 3; i++ {
		min[i] = float64(lo[i])
		max[i] = float64(hi[i])
	}
	return min, max
}

// FacetKernel implements kernel.Kernel with generated polygon meshes.
type FacetKernel struct{}

// New returns a new FacetKernel.
func New() *FacetKernel {
	return &FacetKernel{}
}

// Name implements kernel.Kernel.
func (k *FacetKernel) Name() string { return "facet" }

// Box creates a width × height × depth box with four vertices per side so
// each side shades flat.
func (k *FacetKernel) Box(width, height, depth float64) (kernel.Solid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("facet: box %gx%gx%g: %w", width, height, depth, kernel.ErrInvalidDimension)
	}
	half := mgl32.Vec3{float32(width / 2), float32(height / 2), float32(depth / 2)}
	x, y, z := mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}

	// Each side is (normal, u, v) with u × v = normal.
	sides := [6][3]mgl32.Vec3{
		{x, y, z},
		{x.Mul(-1), z, y},
		{y, z, x},
		{y.Mul(-1), x, z},
		{z, x, y},
		{z.Mul(-1), y, x},
	}

	vertices := make([]float32, 0, 24*3)
	indices := make([]uint32, 0, 36)
	for _, s := range sides {
		n, u, v := s[0], s[1], s[2]
		base := uint32(len(vertices) / 3)
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1]))
			vertices = append(vertices, p[0]*half[0], p[1]*half[1], p[2]*half[2])
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return solid("Box", vertices, indices), nil
}

// Sphere creates a UV sphere. Each pole is a single vertex and the seam
// is shared, so the mesh is closed.
func (k *FacetKernel) Sphere(radius float64, widthSegments, heightSegments int) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("facet: sphere radius %g: %w", radius, kernel.ErrInvalidDimension)
	}
	segs := max(widthSegments, minRadialSegments)
	rings := max(heightSegments, minHeightSegments)

	vertices := make([]float32, 0, (2+(rings-1)*segs)*3)
	vertices = append(vertices, 0, float32(radius), 0)
	for ring := 1; ring < rings; ring++ {
		phi := float64(ring) * math.Pi / float64(rings)
		for seg := 0; seg < segs; seg++ {
			theta := float64(seg) * 2 * math.Pi / float64(segs)
			vertices = append(vertices,
				float32(radius*math.Sin(phi)*math.Cos(theta)),
				float32(radius*math.Cos(phi)),
				float32(radius*math.Sin(phi)*math.Sin(theta)),
			)
		}
	}
	vertices = append(vertices, 0, float32(-radius), 0)
	bottom := uint32(len(vertices)/3 - 1)

	at := func(ring, seg int) uint32 {
		switch ring {
		case 0:
			return 0
		case rings:
			return bottom
		}
		return uint32(1 + (ring-1)*segs + seg%segs)
	}

	indices := make([]uint32, 0, 2*segs*(rings-1)*3)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segs; seg++ {
			a, c := at(ring, seg), at(ring, seg+1)
			b, d := at(ring+1, seg), at(ring+1, seg+1)
			if ring != 0 {
				indices = append(indices, a, c, b)
			}
			if ring != rings-1 {
				indices = append(indices, c, d, b)
			}
		}
	}
	return solid("Sphere", vertices, indices), nil
}

// Cylinder creates a capped frustum. A zero radius collapses that end to
// a single apex vertex with no cap.
func (k *FacetKernel) Cylinder(radiusTop, radiusBottom, height float64, radialSegments int) (kernel.Solid, error) {
	if radiusTop < 0 || radiusBottom < 0 || (radiusTop == 0 && radiusBottom == 0) || height <= 0 {
		return nil, fmt.Errorf("facet: cylinder r=%g/%g h=%g: %w", radiusTop, radiusBottom, height, kernel.ErrInvalidDimension)
	}
	vertices, indices := frustum(radiusTop, radiusBottom, height, max(radialSegments, minRadialSegments))
	return solid("Cylinder", vertices, indices), nil
}

// Cone creates a cone with its apex up.
func (k *FacetKernel) Cone(radius, height float64, radialSegments int) (kernel.Solid, error) {
	if radius <= 0 || height <= 0 {
		return nil, fmt.Errorf("facet: cone r=%g h=%g: %w", radius, height, kernel.ErrInvalidDimension)
	}
	vertices, indices := frustum(0, radius, height, max(radialSegments, minRadialSegments))
	return solid("Cone", vertices, indices), nil
}

// ToMesh returns a copy of the solid's mesh.
func (k *FacetKernel) ToMesh(s kernel.Solid) (*mesh.Mesh, error) {
	fs, ok := s.(*facetSolid)
	if !ok {
		return nil, fmt.Errorf("facet: foreign solid %T", s)
	}
	return fs.m.Clone(), nil
}

func solid(name string, vertices []float32, indices []uint32) *facetSolid {
	m := mesh.New(vertices, indices)
	m.Name = name
	return &facetSolid{m: m}
}

// frustum builds the side and caps of a cylinder around Y. Caps get their
// own ring of vertices so they shade flat.
func frustum(rTop, rBottom, height float64, segs int) ([]float32, []uint32) {
	var vertices []float32
	var indices []uint32
	hh := float32(height / 2)

	add := func(x, y, z float32) uint32 {
		vertices = append(vertices, x, y, z)
		return uint32(len(vertices)/3 - 1)
	}
	ring := func(r float64, y float32) []uint32 {
		if r == 0 {
			apex := add(0, y, 0)
			out := make([]uint32, segs)
			for i := range out {
				out[i] = apex
			}
			return out
		}
		out := make([]uint32, segs)
		for i := range out {
			theta := float64(i) * 2 * math.Pi / float64(segs)
			out[i] = add(float32(r*math.Sin(theta)), y, float32(r*math.Cos(theta)))
		}
		return out
	}

	top, bottom := ring(rTop, hh), ring(rBottom, -hh)
	for i := 0; i < segs; i++ {
		j := (i + 1) % segs
		if rTop > 0 {
			indices = append(indices, top[i], bottom[i], top[j])
		}
		if rBottom > 0 {
			indices = append(indices, top[j], bottom[i], bottom[j])
		}
	}

	if rTop > 0 {
		center := add(0, hh, 0)
		rim := ring(rTop, hh)
		for i := 0; i < segs; i++ {
			indices = append(indices, center, rim[i], rim[(i+1)%segs])
		}
	}
	if rBottom > 0 {
		center := add(0, -hh, 0)
		rim := ring(rBottom, -hh)
		for i := 0; i < segs; i++ {
			indices = append(indices, center, rim[(i+1)%segs], rim[i])
		}
	}
	return vertices, indices
}
