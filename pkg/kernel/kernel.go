// Package kernel defines the abstract geometry kernel interface.
// Implementations (facet, sdfx) turn primitive parameters into solids and
// solids into indexed triangle meshes. The kernel abstraction allows
// swapping backends without changing the rest of the system.
package kernel

import (
	"errors"

	"github.com/chazu/kiln/pkg/mesh"
)

// ErrInvalidDimension is returned for a non-positive size or radius.
var ErrInvalidDimension = errors.New("kernel: invalid dimension")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface. Every solid is
// centered on the origin with Y up; round solids have their axis on Y.
type Kernel interface {
	// Name identifies the kernel in configuration.
	Name() string

	Box(width, height, depth float64) (Solid, error)
	Sphere(radius float64, widthSegments, heightSegments int) (Solid, error)
	// Cylinder allows one of the radii to be zero.
	Cylinder(radiusTop, radiusBottom, height float64, radialSegments int) (Solid, error)
	Cone(radius, height float64, radialSegments int) (Solid, error)

	// ToMesh returns a fresh indexed mesh of s.
	ToMesh(s Solid) (*mesh.Mesh, error)
}
