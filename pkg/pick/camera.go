package pick

import "github.com/go-gl/mathgl/mgl64"

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
	Up       mgl64.Vec3 `json:"up"`
	FovY     float64    `json:"fov"` // vertical field of view in degrees
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
}

// DefaultCamera matches the modeler's initial view.
func DefaultCamera() Camera {
	return Camera{
		Position: mgl64.Vec3{10, 10, 10},
		Target:   mgl64.Vec3{0, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     75,
		Near:     0.1,
		Far:      1000,
	}
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl64.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(c.Position, c.Target, up)
}

// Projection returns the perspective matrix for the given aspect ratio.
func (c Camera) Projection(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Forward returns the unit view direction. A camera sitting on its target
// looks down -Z.
func (c Camera) Forward() mgl64.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// DistanceTo returns the distance from the camera to p.
func (c Camera) DistanceTo(p mgl64.Vec3) float64 {
	return p.Sub(c.Position).Len()
}
