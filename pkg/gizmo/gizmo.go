// Package gizmo implements the on-screen manipulators: the transform gizmo
// (translate, rotate, scale), the face-extrusion gizmo and the cutting-plane
// gizmo. Each is a small state machine driven by pointer rays:
//
//	Hidden -> Idle -> Dragging -> Idle
//
// A drag session snapshots the target when it starts and recomputes the
// candidate edit from that snapshot on every move, so a long drag never
// accumulates error. Pointer-up commits the last candidate.
package gizmo

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/pick"
)

// ---------------------------------------------------------------------------
// Handle descriptors
// ---------------------------------------------------------------------------

// Axis names a world axis. AxisNone is used by handles that are not tied
// to one, such as uniform scale.
type Axis int

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "none"
	}
}

// Vector returns the unit vector of the axis. AxisNone has none.
func (a Axis) Vector() mgl64.Vec3 {
	switch a {
	case AxisX:
		return mgl64.Vec3{1, 0, 0}
	case AxisY:
		return mgl64.Vec3{0, 1, 0}
	case AxisZ:
		return mgl64.Vec3{0, 0, 1}
	}
	return mgl64.Vec3{}
}

// index returns the vector component the axis addresses.
func (a Axis) index() int {
	return int(a) - 1
}

// Kind is what dragging a handle does.
type Kind int

const (
	KindTranslate Kind = iota
	KindRotate
	KindScale
	KindUniform
	KindExtrude
	KindPlaneMove
)

func (k Kind) String() string {
	switch k {
	case KindTranslate:
		return "translate"
	case KindRotate:
		return "rotate"
	case KindScale:
		return "scale"
	case KindUniform:
		return "uniform"
	case KindExtrude:
		return "extrude"
	case KindPlaneMove:
		return "planeMove"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// HandleDescriptor says what a pickable handle is. Descriptors live in a
// table keyed by pick.NodeID next to the handle shapes.
type HandleDescriptor struct {
	Kind Kind `json:"kind"`
	Axis Axis `json:"axis"`
}

func (d HandleDescriptor) String() string {
	if d.Axis == AxisNone {
		return d.Kind.String()
	}
	return d.Kind.String() + ":" + d.Axis.String()
}

// ---------------------------------------------------------------------------
// Colors
// ---------------------------------------------------------------------------

const (
	ColorHighlight uint32 = 0xffff00
	ColorX         uint32 = 0xff0000
	ColorY         uint32 = 0x00ff00
	ColorZ         uint32 = 0x0000ff
	ColorUniform   uint32 = 0xffffff
	ColorFace      uint32 = 0x00ffff
	ColorPlane     uint32 = 0xff00ff
)

// CanonicalColor returns the resting color of a handle.
func CanonicalColor(d HandleDescriptor) uint32 {
	switch d.Kind {
	case KindUniform:
		return ColorUniform
	case KindExtrude:
		return ColorFace
	case KindPlaneMove:
		return ColorPlane
	}
	switch d.Axis {
	case AxisX:
		return ColorX
	case AxisY:
		return ColorY
	case AxisZ:
		return ColorZ
	}
	return ColorUniform
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is the gizmo state machine state.
type State int

const (
	StateHidden State = iota
	StateIdle
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is an active drag.
type Session struct {
	Handle     pick.NodeID
	Descriptor HandleDescriptor
	Plane      pick.Plane
	// AnchorPoint is where the pointer ray met Plane when the drag started.
	AnchorPoint mgl64.Vec3
}

// HandleView is the render-facing description of one handle.
type HandleView struct {
	ID         pick.NodeID      `json:"id"`
	Descriptor HandleDescriptor `json:"descriptor"`
	Color      uint32           `json:"color"`
}

// ---------------------------------------------------------------------------
// machine: handle table and session bookkeeping shared by every gizmo
// ---------------------------------------------------------------------------

type handleNode struct {
	desc  HandleDescriptor
	shape pick.Shape
	color uint32
}

type machine struct {
	state   State
	handles map[pick.NodeID]*handleNode
	session *Session
	// last is the latest plane hit during the session.
	last mgl64.Vec3
}

func newMachine() machine {
	return machine{handles: make(map[pick.NodeID]*handleNode)}
}

// setHandle installs or replaces the shape of handle id, keeping its color.
func (m *machine) setHandle(id pick.NodeID, d HandleDescriptor, shape pick.Shape) {
	if h, ok := m.handles[id]; ok {
		h.desc = d
		h.shape = shape
		return
	}
	m.handles[id] = &handleNode{desc: d, shape: shape, color: CanonicalColor(d)}
}

func (m *machine) clearHandles() {
	for id := range m.handles {
		delete(m.handles, id)
	}
}

// pickables returns the handles in a stable order for ray tests.
func (m *machine) pickables() []pick.Handle {
	ids := make([]pick.NodeID, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]pick.Handle, 0, len(ids))
	for _, id := range ids {
		out = append(out, pick.Handle{ID: id, Shape: m.handles[id].shape})
	}
	return out
}

func (m *machine) views() []HandleView {
	out := make([]HandleView, 0, len(m.handles))
	for _, h := range m.pickables() {
		n := m.handles[h.ID]
		out = append(out, HandleView{ID: h.ID, Descriptor: n.desc, Color: n.color})
	}
	return out
}

// begin tries to start a session. The pointer ray must hit a handle and
// the derived interaction plane. plane maps the hit handle to its plane.
func (m *machine) begin(ray pick.Ray, plane func(HandleDescriptor) pick.Plane) bool {
	if m.state != StateIdle {
		return false
	}
	hit, ok := pick.IntersectHandles(ray, m.pickables())
	if !ok {
		return false
	}
	node := m.handles[hit.ID]
	p := plane(node.desc)
	anchor, ok := pick.IntersectPlane(ray, p)
	if !ok {
		// The ray grazes the plane; anchor on the handle hit itself.
		anchor = hit.Point
	}
	m.session = &Session{
		Handle:      hit.ID,
		Descriptor:  node.desc,
		Plane:       p,
		AnchorPoint: anchor,
	}
	m.last = anchor
	node.color = ColorHighlight
	m.state = StateDragging
	return true
}

// delta intersects ray with the session plane. A miss keeps the previous
// hit so the candidate freezes instead of jumping.
func (m *machine) delta(ray pick.Ray) (mgl64.Vec3, bool) {
	if m.session == nil {
		return mgl64.Vec3{}, false
	}
	p, ok := pick.IntersectPlane(ray, m.session.Plane)
	if !ok {
		return m.last.Sub(m.session.AnchorPoint), false
	}
	m.last = p
	return p.Sub(m.session.AnchorPoint), true
}

// end closes the session and restores the handle color.
func (m *machine) end() {
	if m.session != nil {
		if n, ok := m.handles[m.session.Handle]; ok {
			n.color = CanonicalColor(n.desc)
		}
	}
	m.session = nil
	if m.state == StateDragging {
		m.state = StateIdle
	}
}

// ---------------------------------------------------------------------------
// Interaction planes
// ---------------------------------------------------------------------------

// fallbackNormal is the plane normal used for an axis when the view runs
// along it.
func fallbackNormal(a Axis) mgl64.Vec3 {
	switch a {
	case AxisX, AxisZ:
		return mgl64.Vec3{0, 1, 0}
	case AxisY:
		return mgl64.Vec3{1, 0, 0}
	}
	return mgl64.Vec3{0, 0, 1}
}

// axisPlane returns the plane through origin that contains dir and faces
// the viewer as much as possible. When the view runs along dir the
// fallback normal is used.
func axisPlane(origin, dir, view, fallback mgl64.Vec3) pick.Plane {
	n := view.Sub(dir.Mul(view.Dot(dir)))
	if n.Len() < 1e-6 {
		n = fallback.Sub(dir.Mul(fallback.Dot(dir)))
		if n.Len() < 1e-6 {
			n = anyPerpendicular(dir)
		}
	}
	return pick.Plane{Normal: n.Normalize(), Point: origin}
}

// viewPlane returns the camera-facing plane through origin.
func viewPlane(origin, view mgl64.Vec3) pick.Plane {
	if view.Len() < 1e-12 {
		return pick.Plane{Normal: mgl64.Vec3{0, 0, 1}, Point: origin}
	}
	return pick.Plane{Normal: view.Normalize().Mul(-1), Point: origin}
}

func anyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	other := mgl64.Vec3{1, 0, 0}
	if math.Abs(v.X()) > 0.9 {
		other = mgl64.Vec3{0, 1, 0}
	}
	return v.Cross(other)
}
