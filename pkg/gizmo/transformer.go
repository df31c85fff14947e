package gizmo

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/pick"
)

// Mode selects which handle set the transform gizmo shows.
type Mode int

const (
	ModeTranslate Mode = iota
	ModeRotate
	ModeScale
)

func (m Mode) String() string {
	switch m {
	case ModeTranslate:
		return "translate"
	case ModeRotate:
		return "rotate"
	case ModeScale:
		return "scale"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "translate":
		return ModeTranslate, nil
	case "rotate":
		return ModeRotate, nil
	case "scale":
		return ModeScale, nil
	}
	return 0, fmt.Errorf("gizmo: unknown mode %q", s)
}

const (
	// DefaultRotateSensitivity is radians per world unit of drag.
	DefaultRotateSensitivity = 0.02
	// DefaultScaleSensitivity is scale factor per world unit of drag.
	DefaultScaleSensitivity = 0.01

	// minScaleFactor keeps a drag from collapsing or mirroring an object.
	minScaleFactor = 0.01
)

// Handle ids of the transform gizmo.
const (
	idTranslateX pick.NodeID = iota + 1
	idTranslateY
	idTranslateZ
	idRotateX
	idRotateY
	idRotateZ
	idScaleX
	idScaleY
	idScaleZ
	idScaleUniform
)

var axes = [3]Axis{AxisX, AxisY, AxisZ}

// Target is the object a transform gizmo is attached to.
type Target struct {
	ID        string
	Transform Transform
}

// TransformConfig tunes the drag mappings.
type TransformConfig struct {
	RotateSensitivity float64
	ScaleSensitivity  float64
}

// DefaultTransformConfig returns the standard sensitivities.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		RotateSensitivity: DefaultRotateSensitivity,
		ScaleSensitivity:  DefaultScaleSensitivity,
	}
}

// TransformCallbacks receive the gizmo's output. Preview fires on every
// candidate change and when a cancelled drag reverts to its anchor; Commit
// fires once on pointer-up.
type TransformCallbacks struct {
	Preview func(id string, t Transform)
	Commit  func(id string, t Transform)
}

// TransformGizmo moves, rotates and scales one object.
type TransformGizmo struct {
	machine
	cfg       TransformConfig
	cb        TransformCallbacks
	mode      Mode
	size      float64
	target    *Target
	anchor    Transform
	candidate Transform
}

// NewTransformGizmo returns a hidden transform gizmo in translate mode.
func NewTransformGizmo(cfg TransformConfig, cb TransformCallbacks) *TransformGizmo {
	if cfg.RotateSensitivity == 0 {
		cfg.RotateSensitivity = DefaultRotateSensitivity
	}
	if cfg.ScaleSensitivity == 0 {
		cfg.ScaleSensitivity = DefaultScaleSensitivity
	}
	return &TransformGizmo{
		machine: newMachine(),
		cfg:     cfg,
		cb:      cb,
		size:    1,
	}
}

// State returns the current state.
func (g *TransformGizmo) State() State { return g.state }

// Mode returns the handle set in use.
func (g *TransformGizmo) Mode() Mode { return g.mode }

// Size returns the handle scale.
func (g *TransformGizmo) Size() float64 { return g.size }

// Session returns the active drag, or nil.
func (g *TransformGizmo) Session() *Session { return g.session }

// Handles returns the visible handles.
func (g *TransformGizmo) Handles() []HandleView { return g.views() }

// Position returns where the gizmo is drawn: the target's current
// (possibly previewed) position.
func (g *TransformGizmo) Position() mgl64.Vec3 {
	if g.target == nil {
		return mgl64.Vec3{}
	}
	if g.state == StateDragging {
		return g.candidate.Position
	}
	return g.target.Transform.Position
}

// Candidate returns the transform the current drag would commit.
func (g *TransformGizmo) Candidate() (Transform, bool) {
	if g.state != StateDragging {
		return Transform{}, false
	}
	return g.candidate, true
}

// SetMode switches the handle set. It is refused during a drag.
func (g *TransformGizmo) SetMode(m Mode) bool {
	if g.state == StateDragging {
		return false
	}
	g.mode = m
	g.layout()
	return true
}

// Resize sets the handle scale, typically from a Sizer.
func (g *TransformGizmo) Resize(size float64) {
	if size <= 0 {
		return
	}
	g.size = size
	g.layout()
}

// Attach binds the gizmo to t, or hides it when t is nil. Attaching during
// a drag abandons the drag without committing.
func (g *TransformGizmo) Attach(t *Target) {
	if g.state == StateDragging {
		g.cancel()
	}
	if t == nil {
		g.target = nil
		g.state = StateHidden
		g.clearHandles()
		return
	}
	cp := *t
	g.target = &cp
	g.state = StateIdle
	g.layout()
}

// PointerDown starts a drag if ray hits a handle. view is the camera's
// forward direction. It reports whether the event was consumed.
func (g *TransformGizmo) PointerDown(ray pick.Ray, view mgl64.Vec3) bool {
	if g.target == nil {
		return false
	}
	origin := g.target.Transform.Position
	started := g.begin(ray, func(d HandleDescriptor) pick.Plane {
		switch d.Kind {
		case KindTranslate, KindScale:
			return axisPlane(origin, d.Axis.Vector(), view, fallbackNormal(d.Axis))
		default:
			return viewPlane(origin, view)
		}
	})
	if !started {
		return false
	}
	g.anchor = g.target.Transform
	g.candidate = g.anchor
	return true
}

// PointerMove updates the candidate from the anchor. A ray that misses the
// interaction plane leaves the candidate as it was.
func (g *TransformGizmo) PointerMove(ray pick.Ray) bool {
	if g.state != StateDragging {
		return false
	}
	delta, ok := g.delta(ray)
	if !ok {
		return true
	}
	g.candidate = g.apply(g.session.Descriptor, delta)
	if g.cb.Preview != nil {
		g.cb.Preview(g.target.ID, g.candidate)
	}
	g.layout()
	return true
}

// PointerUp commits the candidate and returns to Idle.
func (g *TransformGizmo) PointerUp() bool {
	if g.state != StateDragging {
		return false
	}
	committed := g.candidate
	g.target.Transform = committed
	g.end()
	g.layout()
	if g.cb.Commit != nil {
		g.cb.Commit(g.target.ID, committed)
	}
	return true
}

// cancel ends a drag and reverts the previewed transform.
func (g *TransformGizmo) cancel() {
	g.end()
	if g.target != nil && g.cb.Preview != nil {
		g.cb.Preview(g.target.ID, g.anchor)
	}
}

// apply maps a drag delta onto the anchor transform.
func (g *TransformGizmo) apply(d HandleDescriptor, delta mgl64.Vec3) Transform {
	t := g.anchor
	switch d.Kind {
	case KindTranslate:
		i := d.Axis.index()
		t.Position[i] = g.anchor.Position[i] + delta[i]

	case KindRotate:
		amount := delta.X()
		if d.Axis == AxisX {
			amount = delta.Y()
		}
		angle := amount * g.cfg.RotateSensitivity
		q := g.anchor.Quat().Mul(mgl64.QuatRotate(angle, d.Axis.Vector()))
		t.Rotation = QuatToEuler(q)

	case KindScale:
		i := d.Axis.index()
		f := scaleFactor(delta[i], g.cfg.ScaleSensitivity)
		t.Scale[i] = g.anchor.Scale[i] * f

	case KindUniform:
		f := scaleFactor(delta.X()+delta.Y(), g.cfg.ScaleSensitivity)
		t.Scale = g.anchor.Scale.Mul(f)
	}
	return t
}

func scaleFactor(amount, sensitivity float64) float64 {
	f := 1 + amount*sensitivity
	if f < minScaleFactor {
		return minScaleFactor
	}
	return f
}

// layout rebuilds the handle shapes for the current mode, size and position.
func (g *TransformGizmo) layout() {
	if g.target == nil {
		return
	}
	keep := g.session
	g.clearHandles()
	pos := g.Position()
	s := g.size

	switch g.mode {
	case ModeTranslate:
		for i, a := range axes {
			g.setHandle(idTranslateX+pick.NodeID(i), HandleDescriptor{Kind: KindTranslate, Axis: a}, arrow(pos, a.Vector(), s))
		}
	case ModeRotate:
		for i, a := range axes {
			g.setHandle(idRotateX+pick.NodeID(i), HandleDescriptor{Kind: KindRotate, Axis: a},
				Ring{Center: pos, Axis: a.Vector(), Radius: s, Thickness: 0.1 * s})
		}
	case ModeScale:
		for i, a := range axes {
			g.setHandle(idScaleX+pick.NodeID(i), HandleDescriptor{Kind: KindScale, Axis: a}, arrow(pos, a.Vector(), s))
		}
		g.setHandle(idScaleUniform, HandleDescriptor{Kind: KindUniform}, cube(pos, 0.15*s))
	}
	if keep != nil {
		if n, ok := g.handles[keep.Handle]; ok {
			n.color = ColorHighlight
		}
	}
}
