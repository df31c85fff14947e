package pick

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/mesh"
)

// NodeID identifies a pickable node. Callers keep whatever they need to
// know about a node in their own table keyed by NodeID.
type NodeID uint32

// Shape is something a ray can hit.
type Shape interface {
	// IntersectRay returns the smallest non-negative ray parameter at which
	// r meets the shape.
	IntersectRay(r Ray) (float64, bool)
}

// Handle is a pickable node.
type Handle struct {
	ID    NodeID
	Shape Shape
}

// Hit is the result of a successful pick.
type Hit struct {
	ID    NodeID     `json:"id"`
	T     float64    `json:"t"`
	Point mgl64.Vec3 `json:"point"`
}

// IntersectHandles returns the handle r hits first. Ties keep the earlier
// handle in the slice.
func IntersectHandles(r Ray, handles []Handle) (Hit, bool) {
	best := Hit{T: math.Inf(1)}
	found := false
	for _, h := range handles {
		if h.Shape == nil {
			continue
		}
		t, ok := h.Shape.IntersectRay(r)
		if !ok || t >= best.T {
			continue
		}
		best = Hit{ID: h.ID, T: t, Point: r.At(t)}
		found = true
	}
	return best, found
}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

// Sphere is a ball around Center.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// IntersectRay implements Shape.
func (s Sphere) IntersectRay(r Ray) (float64, bool) {
	oc := r.Origin.Sub(s.Center)
	a := r.Direction.Dot(r.Direction)
	if a == 0 {
		return 0, false
	}
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / a
	if t < 0 {
		// Origin inside the sphere.
		t = (-b + sq) / a
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Box is an axis-aligned box.
type Box struct {
	Min, Max mgl64.Vec3
}

// IntersectRay implements Shape using the slab test.
func (b Box) IntersectRay(r Ray) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for k := 0; k < 3; k++ {
		if math.Abs(r.Direction[k]) < 1e-12 {
			if r.Origin[k] < b.Min[k] || r.Origin[k] > b.Max[k] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Direction[k]
		t1 := (b.Min[k] - r.Origin[k]) * inv
		t2 := (b.Max[k] - r.Origin[k]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmax < 0 || tmin > tmax {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Segment is a thick line from A to B, used for axis arrows and rings
// drawn as polylines.
type Segment struct {
	A, B   mgl64.Vec3
	Radius float64
}

// IntersectRay implements Shape. It reports the ray parameter of the
// closest approach when that approach is within Radius.
func (s Segment) IntersectRay(r Ray) (float64, bool) {
	u := r.Direction
	v := s.B.Sub(s.A)
	w := r.Origin.Sub(s.A)
	a := u.Dot(u)
	b := u.Dot(v)
	c := v.Dot(v)
	d := u.Dot(w)
	e := v.Dot(w)
	denom := a*c - b*b

	if a == 0 {
		return 0, false
	}
	// Closest point on the segment, then the ray parameter closest to it.
	var sc float64
	if denom > 1e-12 {
		sc = mgl64.Clamp((a*e-b*d)/denom, 0, 1)
	}
	t := (sc*b - d) / a
	if t < 0 {
		return 0, false
	}
	gap := r.At(t).Sub(s.A.Add(v.Mul(sc))).Len()
	if gap > s.Radius {
		return 0, false
	}
	return t, true
}

// Triangles is a triangle soup in world space, three points per triangle.
type Triangles []mgl64.Vec3

// IntersectRay implements Shape. Triangles are hit from both sides.
func (tris Triangles) IntersectRay(r Ray) (float64, bool) {
	best := math.Inf(1)
	for i := 0; i+2 < len(tris); i += 3 {
		if t, ok := mollerTrumbore(r, tris[i], tris[i+1], tris[i+2]); ok && t < best {
			best = t
		}
	}
	return best, !math.IsInf(best, 1)
}

// ---------------------------------------------------------------------------
// Meshes
// ---------------------------------------------------------------------------

// MeshHit is a pick against a mesh face.
type MeshHit struct {
	Face  int
	T     float64
	Point mgl64.Vec3
}

// IntersectMesh returns the nearest face of m, placed in the world by
// model, that r hits.
func IntersectMesh(r Ray, m *mesh.Mesh, model mgl64.Mat4) (MeshHit, bool) {
	best := MeshHit{Face: -1, T: math.Inf(1)}
	if m == nil {
		return best, false
	}
	world := make([]mgl64.Vec3, m.VertexCount())
	for i := range world {
		v := m.Vertex(uint32(i))
		world[i] = mgl64.TransformCoordinate(mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}, model)
	}
	for f := 0; f < m.TriangleCount(); f++ {
		tri := m.Face(f)
		t, ok := mollerTrumbore(r, world[tri[0]], world[tri[1]], world[tri[2]])
		if ok && t < best.T {
			best = MeshHit{Face: f, T: t, Point: r.At(t)}
		}
	}
	return best, best.Face >= 0
}

// mollerTrumbore implements the Moller-Trumbore ray-triangle intersection.
func mollerTrumbore(r Ray, v0, v1, v2 mgl64.Vec3) (float64, bool) {
	const epsilon = 1e-9

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := r.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false // parallel
	}

	f := 1 / a
	s := r.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := f * edge2.Dot(q)
	if t < epsilon {
		return 0, false
	}
	return t, true
}
