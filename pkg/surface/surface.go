// Package surface builds open parametric surfaces: wave sheets, spiral
// tubes and Möbius strips. They are display and export geometry only; an
// open surface encloses no volume, so no engineering properties are
// derived from them.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/mesh"
)

var (
	// ErrInvalidParams is returned for a non-positive size or segment count.
	ErrInvalidParams = errors.New("surface: invalid parameters")
	// ErrUnknownKind is returned for a surface kind outside Kinds.
	ErrUnknownKind = errors.New("surface: unknown kind")
)

// Func maps (u, v) in [0,1]² to a point. Y is up.
type Func func(u, v float64) mgl64.Vec3

// Parametric samples fn on a slices x stacks grid and returns the
// triangulated sheet. Seam vertices are not shared.
func Parametric(fn Func, slices, stacks int) (*mesh.Mesh, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil surface function", ErrInvalidParams)
	}
	if slices < 1 || stacks < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidParams, slices, stacks)
	}
	row := slices + 1
	vertices := make([]float32, 0, row*(stacks+1)*3)
	for j := 0; j <= stacks; j++ {
		v := float64(j) / float64(stacks)
		for i := 0; i <= slices; i++ {
			p := fn(float64(i)/float64(slices), v)
			vertices = append(vertices, float32(p[0]), float32(p[1]), float32(p[2]))
		}
	}
	indices := make([]uint32, 0, slices*stacks*6)
	for j := 0; j < stacks; j++ {
		for i := 0; i < slices; i++ {
			a := uint32(j*row + i)
			b := a + 1
			c := a + uint32(row)
			d := c + 1
			indices = append(indices, a, c, b, b, c, d)
		}
	}
	return mesh.New(vertices, indices), nil
}

// ---------------------------------------------------------------------------
// Wave
// ---------------------------------------------------------------------------

// WaveParams shape a rippled sheet in the XZ plane.
type WaveParams struct {
	Width         float64 `json:"width"`
	Depth         float64 `json:"depth"`
	WidthSegments int     `json:"widthSegments"`
	DepthSegments int     `json:"depthSegments"`
	Amplitude     float64 `json:"amplitude"`
	Frequency     float64 `json:"frequency"`
}

// DefaultWave is a 2x2 sheet with a 0.2 ripple.
func DefaultWave() WaveParams {
	return WaveParams{Width: 2, Depth: 2, WidthSegments: 32, DepthSegments: 32, Amplitude: 0.2, Frequency: 2}
}

// Wave returns a sheet centered on the origin whose height is
// amplitude * sin(x*frequency) * cos(z*frequency).
func Wave(p WaveParams) (*mesh.Mesh, error) {
	if p.Width <= 0 || p.Depth <= 0 {
		return nil, fmt.Errorf("%w: wave %gx%g", ErrInvalidParams, p.Width, p.Depth)
	}
	m, err := Parametric(func(u, v float64) mgl64.Vec3 {
		x := (u - 0.5) * p.Width
		z := (v - 0.5) * p.Depth
		return mgl64.Vec3{x, p.Amplitude * math.Sin(x*p.Frequency) * math.Cos(z*p.Frequency), z}
	}, p.WidthSegments, p.DepthSegments)
	if err != nil {
		return nil, err
	}
	m.Name = "Wave"
	return m, nil
}

// ---------------------------------------------------------------------------
// Spiral
// ---------------------------------------------------------------------------

// SpiralParams shape a tube swept along a helix around Y.
type SpiralParams struct {
	Radius       float64 `json:"radius"`
	Height       float64 `json:"height"`
	Turns        float64 `json:"turns"`
	Segments     int     `json:"segments"`
	TubeRadius   float64 `json:"tubeRadius"`
	TubeSegments int     `json:"tubeSegments"`
}

// DefaultSpiral is three turns of radius 1 over a height of 2.
func DefaultSpiral() SpiralParams {
	return SpiralParams{Radius: 1, Height: 2, Turns: 3, Segments: 100, TubeRadius: 0.1, TubeSegments: 8}
}

// Spiral returns an open tube along a helix centered on the origin. The
// tube cross-section is framed by the direction toward the axis, which is
// always perpendicular to the helix tangent.
func Spiral(p SpiralParams) (*mesh.Mesh, error) {
	if p.Radius <= 0 || p.Height <= 0 || p.Turns <= 0 || p.TubeRadius <= 0 {
		return nil, fmt.Errorf("%w: spiral radius=%g height=%g turns=%g tube=%g",
			ErrInvalidParams, p.Radius, p.Height, p.Turns, p.TubeRadius)
	}
	sweep := p.Turns * 2 * math.Pi
	m, err := Parametric(func(u, v float64) mgl64.Vec3 {
		a := u * sweep
		sin, cos := math.Sincos(a)
		center := mgl64.Vec3{cos * p.Radius, u*p.Height - p.Height/2, sin * p.Radius}
		tangent := mgl64.Vec3{-sin * p.Radius * sweep, p.Height, cos * p.Radius * sweep}.Normalize()
		inward := mgl64.Vec3{-cos, 0, -sin}
		binormal := tangent.Cross(inward)
		phi := v * 2 * math.Pi
		return center.Add(inward.Mul(math.Cos(phi) * p.TubeRadius)).Add(binormal.Mul(math.Sin(phi) * p.TubeRadius))
	}, p.Segments, p.TubeSegments)
	if err != nil {
		return nil, err
	}
	m.Name = "Spiral"
	return m, nil
}

// ---------------------------------------------------------------------------
// Möbius strip
// ---------------------------------------------------------------------------

// MobiusParams shape a one-sided strip around Y.
type MobiusParams struct {
	Radius   float64 `json:"radius"`
	Width    float64 `json:"width"`
	Segments int     `json:"segments"`
}

// DefaultMobius is a strip of radius 1 and width 0.5.
func DefaultMobius() MobiusParams {
	return MobiusParams{Radius: 1, Width: 0.5, Segments: 64}
}

// Mobius returns the strip sampled with Segments steps around and
// Segments/4 (at least one) across.
func Mobius(p MobiusParams) (*mesh.Mesh, error) {
	if p.Radius <= 0 || p.Width <= 0 {
		return nil, fmt.Errorf("%w: mobius radius=%g width=%g", ErrInvalidParams, p.Radius, p.Width)
	}
	across := max(p.Segments/4, 1)
	m, err := Parametric(func(u, v float64) mgl64.Vec3 {
		a := u * 2 * math.Pi
		s := (v - 0.5) * p.Width
		r := p.Radius + s*math.Cos(a/2)
		return mgl64.Vec3{r * math.Cos(a), s * math.Sin(a/2), r * math.Sin(a)}
	}, p.Segments, across)
	if err != nil {
		return nil, err
	}
	m.Name = "Mobius"
	return m, nil
}

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind names a surface generator.
type Kind string

const (
	KindWave   Kind = "wave"
	KindSpiral Kind = "spiral"
	KindMobius Kind = "mobius"
)

// Kinds returns every surface kind.
func Kinds() []Kind { return []Kind{KindWave, KindSpiral, KindMobius} }

// Default builds kind k with its default parameters.
func Default(k Kind) (*mesh.Mesh, error) {
	switch k {
	case KindWave:
		return Wave(DefaultWave())
	case KindSpiral:
		return Spiral(DefaultSpiral())
	case KindMobius:
		return Mobius(DefaultMobius())
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}
