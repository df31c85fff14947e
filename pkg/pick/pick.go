// Package pick turns 2D pointer positions into 3D rays and resolves those
// rays against gizmo handles, interaction planes and meshes. Every function
// is stateless.
package pick

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelEpsilon is the |dot(direction, normal)| below which a ray is
// treated as parallel to a plane.
const parallelEpsilon = 1e-9

// ErrDegenerateView is returned by ResolveRay for an empty viewport or a
// camera whose matrices cannot be inverted.
var ErrDegenerateView = errors.New("pick: degenerate viewport or camera")

// Ray is a half line. Direction is unit length when produced by ResolveRay.
type Ray struct {
	Origin    mgl64.Vec3 `json:"origin"`
	Direction mgl64.Vec3 `json:"direction"`
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Plane is an infinite plane through Point with unit Normal.
type Plane struct {
	Normal mgl64.Vec3 `json:"normal"`
	Point  mgl64.Vec3 `json:"point"`
}

// Viewport is the pointer-space rectangle the scene is drawn into.
type Viewport struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Aspect returns width over height.
func (v Viewport) Aspect() float64 {
	if v.Height == 0 {
		return 1
	}
	return v.Width / v.Height
}

// ResolveRay unprojects the pointer position (x, y), in the same space as
// vp with y growing downwards, through cam into a world-space ray starting
// on the near plane.
func ResolveRay(x, y float64, vp Viewport, cam Camera) (Ray, error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return Ray{}, ErrDegenerateView
	}
	ndcX := 2*(x-vp.Left)/vp.Width - 1
	ndcY := 1 - 2*(y-vp.Top)/vp.Height

	inv := cam.Projection(vp.Aspect()).Mul4(cam.View()).Inv()
	if inv == (mgl64.Mat4{}) {
		return Ray{}, ErrDegenerateView
	}
	near := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, 1}, inv)
	dir := far.Sub(near)
	if dir.Len() == 0 || math.IsNaN(dir.Len()) {
		return Ray{}, ErrDegenerateView
	}
	return Ray{Origin: near, Direction: dir.Normalize()}, nil
}

// IntersectPlane returns the point where r crosses p. It reports false when
// the ray is parallel to the plane or the plane lies behind the ray origin.
func IntersectPlane(r Ray, p Plane) (mgl64.Vec3, bool) {
	t, ok := planeParam(r, p)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return r.At(t), true
}

func planeParam(r Ray, p Plane) (float64, bool) {
	denom := r.Direction.Dot(p.Normal)
	if math.Abs(denom) < parallelEpsilon {
		return 0, false
	}
	t := p.Point.Sub(r.Origin).Dot(p.Normal) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}
