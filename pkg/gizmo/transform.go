package gizmo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an object's placement: position, XYZ Euler rotation in
// radians, and per-axis scale.
type Transform struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// Identity is the transform of a freshly placed object.
func Identity() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Quat returns the rotation as a quaternion. The Euler order is XYZ:
// the matrix is Rx * Ry * Rz.
func (t Transform) Quat() mgl64.Quat {
	return EulerToQuat(t.Rotation)
}

// Matrix returns the local-to-world matrix T * R * S.
func (t Transform) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Quat().Mat4()).
		Mul4(mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// ApproxEqual reports whether two transforms agree within 1e-9.
func (t Transform) ApproxEqual(o Transform) bool {
	const eps = 1e-9
	return t.Position.ApproxEqualThreshold(o.Position, eps) &&
		t.Rotation.ApproxEqualThreshold(o.Rotation, eps) &&
		t.Scale.ApproxEqualThreshold(o.Scale, eps)
}

// EulerToQuat converts XYZ Euler angles to a quaternion.
func EulerToQuat(e mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(e.X(), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(e.Y(), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(e.Z(), mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

// QuatToEuler converts a quaternion back to XYZ Euler angles.
func QuatToEuler(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m22, m23 := m.At(1, 1), m.At(1, 2)
	m32, m33 := m.At(2, 1), m.At(2, 2)

	y := math.Asin(mgl64.Clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		return mgl64.Vec3{math.Atan2(-m23, m33), y, math.Atan2(-m12, m11)}
	}
	// Gimbal lock: fold the Z rotation into X.
	return mgl64.Vec3{math.Atan2(m32, m22), y, 0}
}
