package editor

import (
	"math"

	"fortio.org/log"

	"github.com/chazu/kiln/pkg/pick"
	"github.com/chazu/kiln/pkg/scene"
)

// PointerResult says what a pointer event did.
type PointerResult struct {
	// Consumed is true when a gizmo took the event.
	Consumed bool `json:"consumed"`
	// Selected is the object picked by a pointer-down, if any.
	Selected string `json:"selected,omitempty"`
	// Face is the toggled face in edit mode, or -1.
	Face int `json:"face"`
}

// PointerDown handles a press at (x, y) in viewport space. Gizmos get the
// event first; otherwise it selects an object, or toggles a face of the
// edited object in edit mode.
func (e *Editor) PointerDown(x, y float64) PointerResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	ray, err := pick.ResolveRay(x, y, e.viewport, e.camera)
	if err != nil {
		log.Warnf("editor: pointer down at (%g, %g): %v", x, y, err)
		return PointerResult{Face: -1}
	}
	return e.down(ray)
}

// PointerDownRay is PointerDown for a ray resolved by the caller.
func (e *Editor) PointerDownRay(ray pick.Ray) PointerResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.down(ray)
}

func (e *Editor) down(ray pick.Ray) PointerResult {
	res := PointerResult{Face: -1}
	// Presses are only interpreted between drags.
	if e.dragging() {
		return res
	}
	view := e.camera.Forward()
	if e.cutting.PointerDown(ray, view) || e.extrude.PointerDown(ray, view) || e.transform.PointerDown(ray, view) {
		res.Consumed = true
		e.rev++
		return res
	}

	if e.store.Mode() == scene.ModeEdit {
		sel, ok := e.store.Selected()
		if !ok {
			return res
		}
		hit, ok := pick.IntersectMesh(ray, sel.Mesh, sel.Transform.Matrix())
		if !ok {
			return res
		}
		if _, err := e.store.ToggleFace(hit.Face); err != nil {
			log.Warnf("editor: toggle face %d: %v", hit.Face, err)
			return res
		}
		res.Face = hit.Face
		res.Selected = sel.ID
		e.sync()
		return res
	}

	id := e.pickObject(ray)
	if err := e.store.Select(id); err != nil {
		log.Warnf("editor: select %s: %v", id, err)
	}
	res.Selected = id
	e.sync()
	return res
}

// pickObject returns the visible object nearest along ray, or "".
func (e *Editor) pickObject(ray pick.Ray) string {
	best, bestT := "", math.Inf(1)
	for _, o := range e.store.Visible() {
		hit, ok := pick.IntersectMesh(ray, o.Mesh, o.Transform.Matrix())
		if ok && hit.T < bestT {
			best, bestT = o.ID, hit.T
		}
	}
	return best
}

// PointerMove handles pointer motion anywhere on the page, so a drag keeps
// tracking outside the viewport. It reports whether a drag consumed it.
func (e *Editor) PointerMove(x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dragging() {
		return false
	}
	ray, err := pick.ResolveRay(x, y, e.viewport, e.camera)
	if err != nil {
		return true
	}
	return e.move(ray)
}

// PointerMoveRay is PointerMove for a ray resolved by the caller.
func (e *Editor) PointerMoveRay(ray pick.Ray) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.move(ray)
}

func (e *Editor) move(ray pick.Ray) bool {
	return e.cutting.PointerMove(ray) || e.extrude.PointerMove(ray) || e.transform.PointerMove(ray)
}

// PointerUp ends a drag, committing its result. Releases outside the
// viewport count.
func (e *Editor) PointerUp() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !(e.cutting.PointerUp() || e.extrude.PointerUp() || e.transform.PointerUp()) {
		return false
	}
	e.sync()
	return true
}
