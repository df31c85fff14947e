package gizmo

import (
	"errors"

	"fortio.org/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/pick"
)

const idPlaneMove pick.NodeID = 30

// ErrCutUnsupported is returned by Cut. Splitting geometry along the
// plane is not implemented; the gizmo only positions the plane.
var ErrCutUnsupported = errors.New("gizmo: cutting geometry is not supported")

// CutPlane is the cutting plane shown against one object.
type CutPlane struct {
	ObjectID string     `json:"objectId"`
	Origin   mgl64.Vec3 `json:"origin"`
	Normal   mgl64.Vec3 `json:"normal"`
}

// CutCallbacks receive plane moves.
type CutCallbacks struct {
	Preview func(p CutPlane)
	Commit  func(p CutPlane)
}

// CuttingPlaneGizmo drags a cutting plane around. Committing a drag only
// moves the plane.
type CuttingPlaneGizmo struct {
	machine
	cb     CutCallbacks
	size   float64
	plane  *CutPlane
	anchor CutPlane
	cur    CutPlane
}

// NewCuttingPlaneGizmo returns a hidden cutting-plane gizmo.
func NewCuttingPlaneGizmo(cb CutCallbacks) *CuttingPlaneGizmo {
	return &CuttingPlaneGizmo{machine: newMachine(), cb: cb, size: 1}
}

// State returns the current state.
func (g *CuttingPlaneGizmo) State() State { return g.state }

// Session returns the active drag, or nil.
func (g *CuttingPlaneGizmo) Session() *Session { return g.session }

// Handles returns the visible handles.
func (g *CuttingPlaneGizmo) Handles() []HandleView { return g.views() }

// Plane returns the plane as currently shown.
func (g *CuttingPlaneGizmo) Plane() (CutPlane, bool) {
	if g.plane == nil {
		return CutPlane{}, false
	}
	if g.state == StateDragging {
		return g.cur, true
	}
	return *g.plane, true
}

// Resize sets the half extent of the drawn plane.
func (g *CuttingPlaneGizmo) Resize(size float64) {
	if size <= 0 {
		return
	}
	g.size = size
	g.layout()
}

// Attach shows p, or hides the gizmo when p is nil. A zero normal defaults
// to +Y.
func (g *CuttingPlaneGizmo) Attach(p *CutPlane) {
	if g.state == StateDragging {
		g.end()
		if g.plane != nil && g.cb.Preview != nil {
			g.cb.Preview(*g.plane)
		}
	}
	if p == nil {
		g.plane = nil
		g.state = StateHidden
		g.clearHandles()
		return
	}
	cp := *p
	if cp.Normal.Len() < 1e-12 {
		cp.Normal = mgl64.Vec3{0, 1, 0}
	}
	cp.Normal = cp.Normal.Normalize()
	g.plane = &cp
	g.state = StateIdle
	g.layout()
}

// PointerDown starts a drag if ray hits the plane handle.
func (g *CuttingPlaneGizmo) PointerDown(ray pick.Ray, view mgl64.Vec3) bool {
	if g.plane == nil {
		return false
	}
	origin := g.plane.Origin
	started := g.begin(ray, func(HandleDescriptor) pick.Plane {
		return viewPlane(origin, view)
	})
	if started {
		g.anchor = *g.plane
		g.cur = g.anchor
	}
	return started
}

// PointerMove drags the plane origin with the pointer.
func (g *CuttingPlaneGizmo) PointerMove(ray pick.Ray) bool {
	if g.state != StateDragging {
		return false
	}
	delta, ok := g.delta(ray)
	if !ok {
		return true
	}
	g.cur = g.anchor
	g.cur.Origin = g.anchor.Origin.Add(delta)
	if g.cb.Preview != nil {
		g.cb.Preview(g.cur)
	}
	g.layout()
	return true
}

// PointerUp keeps the plane where it was dropped.
func (g *CuttingPlaneGizmo) PointerUp() bool {
	if g.state != StateDragging {
		return false
	}
	*g.plane = g.cur
	g.end()
	g.layout()
	if g.cb.Commit != nil {
		g.cb.Commit(*g.plane)
	}
	return true
}

// Cut reports that splitting along the plane is unavailable.
func (g *CuttingPlaneGizmo) Cut() error {
	if g.plane == nil {
		return nil
	}
	log.Warnf("cutting plane: cut of %s at %v requested, geometry left unchanged", g.plane.ObjectID, g.plane.Origin)
	return ErrCutUnsupported
}

func (g *CuttingPlaneGizmo) layout() {
	p, ok := g.Plane()
	if !ok {
		return
	}
	u := anyPerpendicular(p.Normal).Normalize().Mul(g.size)
	v := p.Normal.Cross(u)
	a := p.Origin.Sub(u).Sub(v)
	b := p.Origin.Add(u).Sub(v)
	c := p.Origin.Add(u).Add(v)
	d := p.Origin.Sub(u).Add(v)
	g.setHandle(idPlaneMove, HandleDescriptor{Kind: KindPlaneMove}, pick.Triangles{a, b, c, a, c, d})
}
