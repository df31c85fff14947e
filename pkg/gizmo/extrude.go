package gizmo

import (
	"fmt"
	"math"

	"fortio.org/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/pick"
)

const idExtrude pick.NodeID = 20

// FaceTarget is a face selection on one object's mesh.
type FaceTarget struct {
	ObjectID string
	Mesh     *mesh.Mesh
	Faces    []int
	// Model places the mesh in the world.
	Model mgl64.Mat4
}

// ExtrudeCallbacks receive the extrusion gizmo's output. Preview gets a
// lightweight overlay of the displaced faces, or nil when a drag is
// abandoned. Commit gets the extruded mesh.
type ExtrudeCallbacks struct {
	Preview func(objectID string, overlay *mesh.Mesh, distance float64)
	Commit  func(objectID string, extruded *mesh.Mesh, distance float64)
}

// ExtrudeGizmo pushes or pulls a face selection along its average normal.
// The mesh is only rewritten on commit; during the drag a preview overlay
// is produced instead.
type ExtrudeGizmo struct {
	machine
	cb     ExtrudeCallbacks
	size   float64
	target *FaceTarget

	origin      mgl64.Vec3 // world centroid of the selection
	normal      mgl64.Vec3 // world average normal
	localNormal mgl64.Vec3
	inverse     mgl64.Mat4

	distance float64
	offset   mgl64.Vec3 // world displacement shown during a drag
}

// NewExtrudeGizmo returns a hidden extrusion gizmo.
func NewExtrudeGizmo(cb ExtrudeCallbacks) *ExtrudeGizmo {
	return &ExtrudeGizmo{machine: newMachine(), cb: cb, size: 1}
}

// State returns the current state.
func (g *ExtrudeGizmo) State() State { return g.state }

// Size returns the handle scale.
func (g *ExtrudeGizmo) Size() float64 { return g.size }

// Session returns the active drag, or nil.
func (g *ExtrudeGizmo) Session() *Session { return g.session }

// Handles returns the visible handles.
func (g *ExtrudeGizmo) Handles() []HandleView { return g.views() }

// Position returns the gizmo's world position.
func (g *ExtrudeGizmo) Position() mgl64.Vec3 { return g.origin.Add(g.offset) }

// Normal returns the world direction the selection moves along.
func (g *ExtrudeGizmo) Normal() mgl64.Vec3 { return g.normal }

// Distance returns the current drag distance in mesh units.
func (g *ExtrudeGizmo) Distance() float64 { return g.distance }

// Resize sets the handle scale.
func (g *ExtrudeGizmo) Resize(size float64) {
	if size <= 0 {
		return
	}
	g.size = size
	g.layout()
}

// Attach binds the gizmo to a face selection. A nil target or an empty
// selection hides the gizmo. Faces must address triangles of the mesh.
func (g *ExtrudeGizmo) Attach(t *FaceTarget) error {
	if g.state == StateDragging {
		g.cancel()
	}
	if t == nil || t.Mesh == nil || len(t.Faces) == 0 {
		g.hide()
		return nil
	}
	if err := t.Mesh.Validate(); err != nil {
		g.hide()
		return fmt.Errorf("extrude gizmo: %w", err)
	}
	for _, f := range t.Faces {
		if f < 0 || f >= t.Mesh.TriangleCount() {
			g.hide()
			return fmt.Errorf("extrude gizmo: %w: face %d", mesh.ErrFaceOutOfRange, f)
		}
	}

	cp := *t
	cp.Faces = append([]int(nil), t.Faces...)
	if cp.Model == (mgl64.Mat4{}) {
		cp.Model = mgl64.Ident4()
	}
	g.target = &cp
	g.inverse = cp.Model.Inv()

	c := mesh.SelectionCentroid(cp.Mesh, cp.Faces)
	n := mesh.SelectionNormal(cp.Mesh, cp.Faces)
	g.origin = mgl64.TransformCoordinate(vec64(c), cp.Model)
	g.localNormal = vec64(n)
	g.normal = worldNormal(g.localNormal, cp.Model)
	g.offset = mgl64.Vec3{}
	g.distance = 0
	g.state = StateIdle
	g.layout()
	return nil
}

// PointerDown starts a drag if ray hits the handle.
func (g *ExtrudeGizmo) PointerDown(ray pick.Ray, view mgl64.Vec3) bool {
	if g.target == nil {
		return false
	}
	origin, normal := g.origin, g.normal
	started := g.begin(ray, func(HandleDescriptor) pick.Plane {
		return axisPlane(origin, normal, view, anyPerpendicular(normal))
	})
	if started {
		g.distance = 0
		g.offset = mgl64.Vec3{}
	}
	return started
}

// PointerMove updates the extrusion distance: the drag delta projected on
// the selection normal.
func (g *ExtrudeGizmo) PointerMove(ray pick.Ray) bool {
	if g.state != StateDragging {
		return false
	}
	delta, ok := g.delta(ray)
	if !ok {
		return true
	}
	local := mgl64.TransformNormal(delta, g.inverse)
	g.distance = local.Dot(g.localNormal)
	g.offset = g.normal.Mul(delta.Dot(g.normal))
	if g.cb.Preview != nil {
		g.cb.Preview(g.target.ObjectID, g.overlay(), g.distance)
	}
	g.layout()
	return true
}

// PointerUp applies the extrusion and returns to Idle. A zero-length drag
// commits nothing.
func (g *ExtrudeGizmo) PointerUp() bool {
	if g.state != StateDragging {
		return false
	}
	distance := g.distance
	g.end()
	g.offset = mgl64.Vec3{}
	g.layout()
	if math.Abs(distance) < 1e-9 {
		if g.cb.Preview != nil {
			g.cb.Preview(g.target.ObjectID, nil, 0)
		}
		return true
	}
	out, err := mesh.ExtrudeFaces(g.target.Mesh, g.target.Faces, float32(distance))
	if err != nil {
		log.Errf("extrude gizmo: %v", err)
		return true
	}
	if g.cb.Commit != nil {
		g.cb.Commit(g.target.ObjectID, out, distance)
	}
	return true
}

func (g *ExtrudeGizmo) cancel() {
	g.end()
	g.offset = mgl64.Vec3{}
	g.distance = 0
	if g.target != nil && g.cb.Preview != nil {
		g.cb.Preview(g.target.ObjectID, nil, 0)
	}
}

func (g *ExtrudeGizmo) hide() {
	g.target = nil
	g.state = StateHidden
	g.offset = mgl64.Vec3{}
	g.distance = 0
	g.clearHandles()
}

// overlay returns the selected triangles, each moved along its own normal
// by the current distance.
func (g *ExtrudeGizmo) overlay() *mesh.Mesh {
	m := g.target.Mesh
	vertices := make([]float32, 0, len(g.target.Faces)*9)
	indices := make([]uint32, 0, len(g.target.Faces)*3)
	for _, f := range g.target.Faces {
		n, _ := m.FaceNormal(f)
		off := n.Mul(float32(g.distance))
		for _, vi := range m.Face(f) {
			v := m.Vertex(vi).Add(off)
			indices = append(indices, uint32(len(vertices)/3))
			vertices = append(vertices, v[0], v[1], v[2])
		}
	}
	out := mesh.New(vertices, indices)
	out.Name = m.Name + " (preview)"
	return out
}

func (g *ExtrudeGizmo) layout() {
	if g.target == nil {
		return
	}
	g.setHandle(idExtrude, HandleDescriptor{Kind: KindExtrude}, arrow(g.Position(), g.normal, g.size))
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// worldNormal carries a local normal through model using the inverse
// transpose, falling back to +Y when the result degenerates.
func worldNormal(n mgl64.Vec3, model mgl64.Mat4) mgl64.Vec3 {
	w := model.Mat3().Inv().Transpose().Mul3x1(n)
	if w.Len() < 1e-12 {
		return mgl64.Vec3{0, 1, 0}
	}
	return w.Normalize()
}
