// Package primitive describes the parametric solids a scene object can be
// made of and builds their meshes through a kernel.
package primitive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/kiln/pkg/kernel"
	"github.com/chazu/kiln/pkg/mesh"
)

var (
	// ErrUnknownType is returned for a primitive type outside Types.
	ErrUnknownType = errors.New("primitive: unknown type")
	// ErrInvalidParams is returned for a non-positive dimension.
	ErrInvalidParams = errors.New("primitive: invalid parameters")
)

// Type is a primitive kind.
type Type string

const (
	Cube     Type = "cube"
	Sphere   Type = "sphere"
	Cylinder Type = "cylinder"
	Cone     Type = "cone"
)

var types = []Type{Cube, Sphere, Cylinder, Cone}

// Types returns every primitive type.
func Types() []Type {
	return append([]Type(nil), types...)
}

// ParseType converts a type name.
func ParseType(s string) (Type, error) {
	for _, t := range types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Title returns the display form used in default object names.
func (t Type) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Params is the geometry record of a primitive. Each type reads only its
// own fields: cube Width/Height/Depth; sphere Radius/WidthSegments/
// HeightSegments; cylinder RadiusTop/RadiusBottom/Height/RadialSegments;
// cone Radius/Height/RadialSegments.
type Params struct {
	Width          float64 `json:"width,omitempty" toml:"width,omitempty"`
	Height         float64 `json:"height,omitempty" toml:"height,omitempty"`
	Depth          float64 `json:"depth,omitempty" toml:"depth,omitempty"`
	Radius         float64 `json:"radius,omitempty" toml:"radius,omitempty"`
	WidthSegments  int     `json:"widthSegments,omitempty" toml:"width_segments,omitempty"`
	HeightSegments int     `json:"heightSegments,omitempty" toml:"height_segments,omitempty"`
	RadiusTop      float64 `json:"radiusTop,omitempty" toml:"radius_top,omitempty"`
	RadiusBottom   float64 `json:"radiusBottom,omitempty" toml:"radius_bottom,omitempty"`
	RadialSegments int     `json:"radialSegments,omitempty" toml:"radial_segments,omitempty"`
}

// Defaults returns the geometry a new object of type t starts with.
func Defaults(t Type) (Params, error) {
	switch t {
	case Cube:
		return Params{Width: 10, Height: 10, Depth: 10}, nil
	case Sphere:
		return Params{Radius: 5, WidthSegments: 32, HeightSegments: 16}, nil
	case Cylinder:
		return Params{RadiusTop: 5, RadiusBottom: 5, Height: 10, RadialSegments: 32}, nil
	case Cone:
		return Params{Radius: 5, Height: 10, RadialSegments: 32}, nil
	}
	return Params{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// WithDefaults fills zero fields of p from the defaults of t.
func WithDefaults(t Type, p Params) (Params, error) {
	d, err := Defaults(t)
	if err != nil {
		return Params{}, err
	}
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	filli := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&p.Width, d.Width)
	fill(&p.Height, d.Height)
	fill(&p.Depth, d.Depth)
	fill(&p.Radius, d.Radius)
	fill(&p.RadiusTop, d.RadiusTop)
	fill(&p.RadiusBottom, d.RadiusBottom)
	filli(&p.WidthSegments, d.WidthSegments)
	filli(&p.HeightSegments, d.HeightSegments)
	filli(&p.RadialSegments, d.RadialSegments)
	return p, nil
}

// Validate checks the fields type t reads.
func (p Params) Validate(t Type) error {
	bad := func(field string, v float64) error {
		return fmt.Errorf("%w: %s %s = %g", ErrInvalidParams, t, field, v)
	}
	switch t {
	case Cube:
		for _, f := range []struct {
			name string
			v    float64
		}{{"width", p.Width}, {"height", p.Height}, {"depth", p.Depth}} {
			if f.v <= 0 {
				return bad(f.name, f.v)
			}
		}
	case Sphere:
		if p.Radius <= 0 {
			return bad("radius", p.Radius)
		}
	case Cylinder:
		if p.RadiusTop < 0 {
			return bad("radiusTop", p.RadiusTop)
		}
		if p.RadiusBottom < 0 || (p.RadiusTop == 0 && p.RadiusBottom == 0) {
			return bad("radiusBottom", p.RadiusBottom)
		}
		if p.Height <= 0 {
			return bad("height", p.Height)
		}
	case Cone:
		if p.Radius <= 0 {
			return bad("radius", p.Radius)
		}
		if p.Height <= 0 {
			return bad("height", p.Height)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return nil
}

// Solid creates the kernel solid for t.
func Solid(k kernel.Kernel, t Type, p Params) (kernel.Solid, error) {
	if err := p.Validate(t); err != nil {
		return nil, err
	}
	switch t {
	case Cube:
		return k.Box(p.Width, p.Height, p.Depth)
	case Sphere:
		return k.Sphere(p.Radius, p.WidthSegments, p.HeightSegments)
	case Cylinder:
		return k.Cylinder(p.RadiusTop, p.RadiusBottom, p.Height, p.RadialSegments)
	default:
		return k.Cone(p.Radius, p.Height, p.RadialSegments)
	}
}

// Build returns the mesh of a primitive in its local frame.
func Build(k kernel.Kernel, t Type, p Params) (*mesh.Mesh, error) {
	s, err := Solid(k, t, p)
	if err != nil {
		return nil, fmt.Errorf("primitive: build %s: %w", t, err)
	}
	m, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("primitive: build %s: %w", t, err)
	}
	m.Name = t.Title()
	return m, nil
}
