package gizmo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/pick"
)

// Ring is a flat annulus around Axis, used for rotation handles.
type Ring struct {
	Center    mgl64.Vec3
	Axis      mgl64.Vec3
	Radius    float64
	Thickness float64
}

// IntersectRay implements pick.Shape. A ray running inside the ring plane
// never hits.
func (r Ring) IntersectRay(ray pick.Ray) (float64, bool) {
	n := r.Axis.Normalize()
	denom := ray.Direction.Dot(n)
	if math.Abs(denom) < 1e-9 {
		return 0, false
	}
	t := r.Center.Sub(ray.Origin).Dot(n) / denom
	if t < 0 {
		return 0, false
	}
	d := ray.At(t).Sub(r.Center).Len()
	if math.Abs(d-r.Radius) > r.Thickness {
		return 0, false
	}
	return t, true
}

// cube returns an axis-aligned box of half size h around c.
func cube(c mgl64.Vec3, h float64) pick.Box {
	e := mgl64.Vec3{h, h, h}
	return pick.Box{Min: c.Sub(e), Max: c.Add(e)}
}

// arrow returns the pickable shaft of an axis handle.
func arrow(origin, dir mgl64.Vec3, size float64) pick.Segment {
	return pick.Segment{
		A:      origin,
		B:      origin.Add(dir.Mul(size)),
		Radius: 0.1 * size,
	}
}
