// Package editor is the interaction controller. It owns the scene store,
// the three gizmos, the camera and the viewport, routes pointer events to
// them, and runs topology edits and exports on behalf of a frontend.
//
// All methods are serialized by one mutex, which gives callers the
// single-threaded event model the gizmos expect.
package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fortio.org/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/pick"
	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
)

var (
	// ErrBusy is returned for commands refused during a drag.
	ErrBusy = errors.New("editor: a drag is in progress")
	// ErrNoSelection is returned for commands that need a selected object.
	ErrNoSelection = errors.New("editor: no object selected")
	// ErrNoFaces is returned for face operators with an empty face selection.
	ErrNoFaces = errors.New("editor: no faces selected")
)

// Options tune an Editor. Zero values take defaults.
type Options struct {
	Transform     gizmo.TransformConfig
	SubdivideCap  int
	WorkerTimeout time.Duration
	Sizer         *gizmo.Sizer
	Engine        *engine.Engine
}

// Editor drives one scene.
type Editor struct {
	mu sync.Mutex

	store  *scene.Store
	engine *engine.Engine
	runner *mesh.Runner
	sizer  *gizmo.Sizer
	capSub int

	camera   pick.Camera
	viewport pick.Viewport

	transform *gizmo.TransformGizmo
	extrude   *gizmo.ExtrudeGizmo
	cutting   *gizmo.CuttingPlaneGizmo

	// Live drag output, shown instead of the stored state.
	preview map[string]gizmo.Transform
	overlay *Overlay
	// cut is the cutting plane while the cutting tool is on.
	cut *gizmo.CutPlane

	// rev counts changes that live outside the store.
	rev uint64
}

// Overlay is the extrusion preview of a face drag.
type Overlay struct {
	ObjectID string     `json:"objectId"`
	Mesh     *mesh.Mesh `json:"mesh"`
	Distance float64    `json:"distance"`
}

// New returns an Editor over s with the default camera and an empty
// viewport.
func New(s *scene.Store, opts Options) *Editor {
	e := &Editor{
		store:   s,
		engine:  opts.Engine,
		runner:  mesh.NewRunner(opts.WorkerTimeout),
		sizer:   opts.Sizer,
		capSub:  opts.SubdivideCap,
		camera:  pick.DefaultCamera(),
		preview: make(map[string]gizmo.Transform),
	}
	if e.engine == nil {
		e.engine = engine.NewEngine()
	}
	if e.sizer == nil {
		e.sizer = gizmo.NewSizer(60)
	}
	if e.capSub <= 0 || e.capSub > mesh.MaxSubdivideIterations {
		e.capSub = mesh.MaxSubdivideIterations
	}

	e.transform = gizmo.NewTransformGizmo(opts.Transform, gizmo.TransformCallbacks{
		Preview: e.previewTransform,
		Commit:  e.commitTransform,
	})
	e.extrude = gizmo.NewExtrudeGizmo(gizmo.ExtrudeCallbacks{
		Preview: e.previewExtrude,
		Commit:  e.commitExtrude,
	})
	e.cutting = gizmo.NewCuttingPlaneGizmo(gizmo.CutCallbacks{
		Preview: e.moveCut,
		Commit:  e.moveCut,
	})
	e.transform.SetMode(s.GizmoMode())
	e.sync()
	return e
}

// Store returns the scene store.
func (e *Editor) Store() *scene.Store { return e.store }

// ---------------------------------------------------------------------------
// Gizmo callbacks. They run inside editor methods with e.mu held.
// ---------------------------------------------------------------------------

func (e *Editor) previewTransform(id string, t gizmo.Transform) {
	e.preview[id] = t
	e.rev++
}

func (e *Editor) commitTransform(id string, t gizmo.Transform) {
	delete(e.preview, id)
	e.rev++
	if err := e.store.Update(id, scene.Patch{Transform: &t}); err != nil {
		log.Errf("editor: commit transform of %s: %v", id, err)
	}
}

func (e *Editor) previewExtrude(id string, overlay *mesh.Mesh, distance float64) {
	e.rev++
	if overlay == nil {
		e.overlay = nil
		return
	}
	e.overlay = &Overlay{ObjectID: id, Mesh: overlay, Distance: distance}
}

func (e *Editor) commitExtrude(id string, extruded *mesh.Mesh, distance float64) {
	e.overlay = nil
	e.rev++
	if err := e.store.Update(id, scene.Patch{Mesh: extruded}); err != nil {
		log.Errf("editor: commit extrusion of %s: %v", id, err)
		return
	}
	e.store.ClearFaces()
	log.Debugf("editor: extruded %s by %.4g", id, distance)
}

func (e *Editor) moveCut(p gizmo.CutPlane) {
	cp := p
	e.cut = &cp
	e.rev++
}

// ---------------------------------------------------------------------------
// Gizmo attachment
// ---------------------------------------------------------------------------

func (e *Editor) dragging() bool {
	return e.transform.State() == gizmo.StateDragging ||
		e.extrude.State() == gizmo.StateDragging ||
		e.cutting.State() == gizmo.StateDragging
}

// sync attaches each gizmo to what the store currently says it should
// show. A drag in progress is abandoned without committing.
func (e *Editor) sync() {
	if e.cutting.State() == gizmo.StateDragging {
		// Detaching reports the plane's pre-drag position through moveCut.
		e.cutting.Attach(nil)
	}
	sel, ok := e.store.Selected()
	mode := e.store.Mode()

	switch {
	case !ok:
		e.transform.Attach(nil)
		e.extrude.Attach(nil)
		e.cut = nil
	case mode == scene.ModeEdit:
		e.transform.Attach(nil)
		faces := e.store.Faces()
		if err := e.extrude.Attach(&gizmo.FaceTarget{
			ObjectID: sel.ID,
			Mesh:     sel.Mesh,
			Faces:    faces,
			Model:    sel.Transform.Matrix(),
		}); err != nil {
			log.Warnf("editor: %v", err)
		}
	default:
		e.extrude.Attach(nil)
		if e.cut != nil {
			e.transform.Attach(nil)
		} else {
			e.transform.Attach(&gizmo.Target{ID: sel.ID, Transform: sel.Transform})
		}
	}
	if e.cut != nil && ok && e.cut.ObjectID != sel.ID {
		e.cut = nil
	}
	e.cutting.Attach(e.cut)
	// Attaching ends any drag, so previews left by a cancelled drag no
	// longer describe anything and the stored transforms are shown again.
	clear(e.preview)
	e.resize()
	e.rev++
}

// CancelDrag abandons an active drag without committing it, as when the
// client driving it goes away. It reports whether a drag was running.
func (e *Editor) CancelDrag() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dragging() {
		return false
	}
	e.sync()
	log.Infof("editor: drag cancelled")
	return true
}

// activePosition is where the visible gizmo sits.
func (e *Editor) activePosition() (mgl64.Vec3, bool) {
	switch {
	case e.cutting.State() != gizmo.StateHidden:
		p, _ := e.cutting.Plane()
		return p.Origin, true
	case e.extrude.State() != gizmo.StateHidden:
		return e.extrude.Position(), true
	case e.transform.State() != gizmo.StateHidden:
		return e.transform.Position(), true
	}
	return mgl64.Vec3{}, false
}

func (e *Editor) resize() {
	pos, ok := e.activePosition()
	if !ok {
		return
	}
	size := e.sizer.Size()
	if size == 0 {
		size = e.sizer.Step(e.camera.Position, pos)
	}
	e.transform.Resize(size)
	e.extrude.Resize(size)
	e.cutting.Resize(size)
}

// Tick advances the gizmo size animation by one frame and returns the
// new size.
func (e *Editor) Tick() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.activePosition()
	if !ok {
		return e.sizer.Size()
	}
	size := e.sizer.Step(e.camera.Position, pos)
	e.transform.Resize(size)
	e.extrude.Resize(size)
	e.cutting.Resize(size)
	e.rev++
	return size
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// SetCamera replaces the camera.
func (e *Editor) SetCamera(c pick.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera = c
	e.rev++
}

// Camera returns the camera.
func (e *Editor) Camera() pick.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.camera
}

// SetViewport replaces the viewport rectangle.
func (e *Editor) SetViewport(vp pick.Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = vp
	e.rev++
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// GizmoView describes the visible gizmo.
type GizmoView struct {
	Kind     string             `json:"kind"`
	Mode     string             `json:"mode,omitempty"`
	State    string             `json:"state"`
	Position mgl64.Vec3         `json:"position"`
	Normal   *mgl64.Vec3        `json:"normal,omitempty"`
	Size     float64            `json:"size"`
	Handles  []gizmo.HandleView `json:"handles"`
}

// Snapshot is everything a frontend needs to draw the current frame.
type Snapshot struct {
	Version   uint64            `json:"version"`
	Mode      scene.Mode        `json:"mode"`
	Selected  string            `json:"selected"`
	Faces     []int             `json:"faces"`
	Objects   []scene.Object    `json:"objects"`
	Parts     []tessellate.Part `json:"parts"`
	Gizmo     *GizmoView        `json:"gizmo,omitempty"`
	Overlay   *Overlay          `json:"overlay,omitempty"`
	CutPlane  *gizmo.CutPlane   `json:"cutPlane,omitempty"`
	Camera    pick.Camera       `json:"camera"`
	Settings  scene.Settings    `json:"settings"`
	GizmoMode string            `json:"gizmoMode"`
}

// Snapshot returns the current frame. Objects being dragged carry their
// previewed transform.
func (e *Editor) Snapshot() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	objects := e.store.Objects()
	for i, o := range objects {
		if t, ok := e.preview[o.ID]; ok {
			objects[i].Transform = t
		}
	}
	parts, err := tessellate.Tessellate(objects)
	if err != nil {
		return Snapshot{}, fmt.Errorf("editor: snapshot: %w", err)
	}
	snap := Snapshot{
		Version:   e.store.Version() + e.rev,
		Mode:      e.store.Mode(),
		Selected:  e.store.SelectedID(),
		Faces:     e.store.Faces(),
		Objects:   objects,
		Parts:     parts,
		Gizmo:     e.gizmoView(),
		Overlay:   e.overlay,
		Camera:    e.camera,
		Settings:  e.store.Settings(),
		GizmoMode: e.transform.Mode().String(),
	}
	if e.cut != nil {
		cp := *e.cut
		snap.CutPlane = &cp
	}
	return snap, nil
}

func (e *Editor) gizmoView() *GizmoView {
	switch {
	case e.cutting.State() != gizmo.StateHidden:
		p, _ := e.cutting.Plane()
		return &GizmoView{Kind: "cuttingPlane", State: e.cutting.State().String(),
			Position: p.Origin, Normal: &p.Normal, Size: e.sizer.Size(), Handles: e.cutting.Handles()}
	case e.extrude.State() != gizmo.StateHidden:
		n := e.extrude.Normal()
		return &GizmoView{Kind: "extrude", State: e.extrude.State().String(),
			Position: e.extrude.Position(), Normal: &n, Size: e.extrude.Size(), Handles: e.extrude.Handles()}
	case e.transform.State() != gizmo.StateHidden:
		return &GizmoView{Kind: "transform", Mode: e.transform.Mode().String(), State: e.transform.State().String(),
			Position: e.transform.Position(), Size: e.transform.Size(), Handles: e.transform.Handles()}
	}
	return nil
}
