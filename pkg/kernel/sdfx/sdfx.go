// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Surfaces come out of
// marching cubes as a triangle soup and are welded into an indexed mesh.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/kiln/pkg/kernel"
	"github.com/chazu/kiln/pkg/mesh"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest axis of a solid.
const DefaultMeshCells = 64

// weldTolerance merges marching-cubes corners that coincide.
const weldTolerance = 1e-5

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel. cells <= 0 selects DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Name implements kernel.Kernel.
func (k *SdfxKernel) Name() string { return "sdfx" }

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) (sdf.SDF3, bool) {
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, false
	}
	return ss.s, true
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// yUp turns an sdfx solid built around Z so that its axis runs along Y.
func yUp(s sdf.SDF3) sdf.SDF3 {
	return sdf.Transform3D(s, sdf.RotateX(-math.Pi/2))
}

// Box creates a box centered on the origin.
func (k *SdfxKernel) Box(width, height, depth float64) (kernel.Solid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("sdfx: box %gx%gx%g: %w", width, height, depth, kernel.ErrInvalidDimension)
	}
	s, err := sdf.Box3D(v3.Vec{X: width, Y: height, Z: depth}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	return wrap(s), nil
}

// Sphere creates a sphere. The segment counts are ignored since SDF
// represents smooth surfaces.
func (k *SdfxKernel) Sphere(radius float64, _, _ int) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sdfx: sphere radius %g: %w", radius, kernel.ErrInvalidDimension)
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return wrap(s), nil
}

// Cylinder creates a cylinder, or a truncated cone when the radii differ.
func (k *SdfxKernel) Cylinder(radiusTop, radiusBottom, height float64, _ int) (kernel.Solid, error) {
	if radiusTop < 0 || radiusBottom < 0 || (radiusTop == 0 && radiusBottom == 0) || height <= 0 {
		return nil, fmt.Errorf("sdfx: cylinder r=%g/%g h=%g: %w", radiusTop, radiusBottom, height, kernel.ErrInvalidDimension)
	}
	var (
		s   sdf.SDF3
		err error
	)
	if radiusTop == radiusBottom {
		s, err = sdf.Cylinder3D(height, radiusTop, 0)
	} else {
		s, err = sdf.Cone3D(height, radiusBottom, radiusTop, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	return wrap(yUp(s)), nil
}

// Cone creates a cone with its apex up.
func (k *SdfxKernel) Cone(radius, height float64, _ int) (kernel.Solid, error) {
	if radius <= 0 || height <= 0 {
		return nil, fmt.Errorf("sdfx: cone r=%g h=%g: %w", radius, height, kernel.ErrInvalidDimension)
	}
	s, err := sdf.Cone3D(height, radius, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cone: %w", err)
	}
	return wrap(yUp(s)), nil
}

// ToMesh converts a solid to an indexed triangle mesh using marching
// cubes, welding coincident corners.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*mesh.Mesh, error) {
	sdf3, ok := unwrap(s)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign solid %T", s)
	}

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles")
	}

	b := mesh.NewBuilder(weldTolerance)
	for _, tri := range triangles {
		var corners [3][3]float32
		for j := 0; j < 3; j++ {
			corners[j] = [3]float32{float32(tri[j].X), float32(tri[j].Y), float32(tri[j].Z)}
		}
		b.Triangle(corners[0], corners[1], corners[2])
	}
	return b.Mesh(), nil
}
