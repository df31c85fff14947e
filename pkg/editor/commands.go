package editor

import (
	"bytes"
	"context"
	"fmt"

	"fortio.org/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/mesh"
	"github.com/chazu/kiln/pkg/meshio"
	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

// Add creates an object and selects it.
func (e *Editor) Add(spec scene.Spec) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return "", ErrBusy
	}
	id, err := e.store.Add(spec)
	if err != nil {
		return "", err
	}
	e.sync()
	return id, nil
}

// Update patches an object.
func (e *Editor) Update(id string, p scene.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return ErrBusy
	}
	if err := e.store.Update(id, p); err != nil {
		return err
	}
	e.sync()
	return nil
}

// Remove deletes an object. A drag on it is abandoned.
func (e *Editor) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Remove(id); err != nil {
		return err
	}
	e.sync()
	delete(e.preview, id)
	if e.overlay != nil && e.overlay.ObjectID == id {
		e.overlay = nil
	}
	return nil
}

// Clear removes every object.
func (e *Editor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Clear()
	e.preview = make(map[string]gizmo.Transform)
	e.overlay = nil
	e.cut = nil
	e.sync()
}

// Select selects id; "" clears the selection. It is refused during a drag.
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return ErrBusy
	}
	if err := e.store.Select(id); err != nil {
		return err
	}
	e.sync()
	return nil
}

// SetGizmoMode switches the transform gizmo. It is refused during a drag.
func (e *Editor) SetGizmoMode(m gizmo.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.transform.SetMode(m) {
		return ErrBusy
	}
	e.store.SetGizmoMode(m)
	return nil
}

// EnterEditMode starts face editing on id.
func (e *Editor) EnterEditMode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return ErrBusy
	}
	if err := e.store.EnterEditMode(id); err != nil {
		return err
	}
	e.cut = nil
	e.sync()
	return nil
}

// ExitEditMode returns to object mode.
func (e *Editor) ExitEditMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ExitEditMode()
	e.overlay = nil
	e.sync()
}

// ToggleFace flips face f of the edited object.
func (e *Editor) ToggleFace(f int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return false, ErrBusy
	}
	on, err := e.store.ToggleFace(f)
	if err != nil {
		return false, err
	}
	e.sync()
	return on, nil
}

// ---------------------------------------------------------------------------
// Topology
// ---------------------------------------------------------------------------

// Extrude moves the selected faces of the edited object by distance.
func (e *Editor) Extrude(ctx context.Context, distance float32) error {
	return e.topology(ctx, "extrude", true, func(faces []int) mesh.Op { return mesh.Extrude(faces, distance) })
}

// Inset shrinks each selected face toward its centroid by amount in [0,1].
func (e *Editor) Inset(ctx context.Context, amount float32) error {
	return e.topology(ctx, "inset", true, func(faces []int) mesh.Op { return mesh.Inset(faces, amount) })
}

// Subdivide splits every triangle of the selected object. Iterations above
// the configured cap are clamped with a warning; negative counts are
// rejected.
func (e *Editor) Subdivide(ctx context.Context, iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("editor: subdivide: %w: %d", mesh.ErrNegativeIterations, iterations)
	}
	return e.topology(ctx, "subdivide", false, func([]int) mesh.Op {
		n := iterations
		if n > e.capSub {
			log.Warnf("editor: subdivide: %d iterations clamped to %d", n, e.capSub)
			n = e.capSub
		}
		return mesh.Subdivision(n)
	})
}

// topology runs an operator on the selected object's mesh off the editor
// lock. The object, its face selection and the operator are all taken in
// one critical section, so the faces always address the mesh being edited.
// The result is dropped if the mesh changed meanwhile, and the face
// selection is cleared afterwards.
func (e *Editor) topology(ctx context.Context, name string, needFaces bool, build func(faces []int) mesh.Op) error {
	e.mu.Lock()
	if e.dragging() {
		e.mu.Unlock()
		return ErrBusy
	}
	var faces []int
	if needFaces {
		faces = e.store.Faces()
		if len(faces) == 0 {
			e.mu.Unlock()
			return fmt.Errorf("editor: %s: %w", name, ErrNoFaces)
		}
	}
	sel, ok := e.store.Selected()
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("editor: %s: %w", name, ErrNoSelection)
	}
	op := build(faces)
	e.mu.Unlock()

	out, err := e.runner.Run(ctx, sel.Mesh, op)
	if err != nil {
		return fmt.Errorf("editor: %s: %w", name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.store.Get(sel.ID)
	if !ok || cur.Mesh != sel.Mesh {
		log.Warnf("editor: %s of %s discarded, mesh changed while running", name, sel.ID)
		return fmt.Errorf("editor: %s: %w", name, mesh.ErrSuperseded)
	}
	out.Name = cur.Name
	if err := e.store.Update(sel.ID, scene.Patch{Mesh: out}); err != nil {
		return err
	}
	e.store.ClearFaces()
	e.sync()
	log.Infof("editor: %s on %s (%d faces): %d -> %d triangles",
		name, sel.ID, len(faces), sel.Mesh.TriangleCount(), out.TriangleCount())
	return nil
}

// ---------------------------------------------------------------------------
// Cutting plane
// ---------------------------------------------------------------------------

// ShowCuttingPlane shows a horizontal cutting plane through the selected
// object, or hides it.
func (e *Editor) ShowCuttingPlane(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return ErrBusy
	}
	if !on {
		e.cut = nil
		e.sync()
		return nil
	}
	sel, ok := e.store.Selected()
	if !ok {
		return ErrNoSelection
	}
	if e.store.Mode() == scene.ModeEdit {
		e.store.ExitEditMode()
	}
	e.cut = &gizmo.CutPlane{ObjectID: sel.ID, Origin: sel.Transform.Position, Normal: mgl64.Vec3{0, 1, 0}}
	e.sync()
	return nil
}

// Cut splits the selected object along the cutting plane. Splitting is not
// available; the call warns and returns gizmo.ErrCutUnsupported.
func (e *Editor) Cut() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cutting.Cut()
}

// ---------------------------------------------------------------------------
// Scripts and templates
// ---------------------------------------------------------------------------

// LoadTemplate replaces the scene with a built-in template.
func (e *Editor) LoadTemplate(name string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return nil, ErrBusy
	}
	ids, err := e.engine.LoadTemplate(e.store, name)
	if err != nil {
		return nil, err
	}
	e.preview = make(map[string]gizmo.Transform)
	e.overlay, e.cut = nil, nil
	e.sync()
	return ids, nil
}

// RunScript replaces the scene with the objects a script describes.
func (e *Editor) RunScript(source string) ([]string, []engine.EvalError, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dragging() {
		return nil, nil, ErrBusy
	}
	specs, evalErrs, err := e.engine.Evaluate(source)
	if err != nil || len(evalErrs) > 0 {
		return nil, evalErrs, err
	}
	ids, err := e.store.Load(specs)
	if err != nil {
		return nil, nil, err
	}
	e.preview = make(map[string]gizmo.Transform)
	e.overlay, e.cut = nil, nil
	e.sync()
	return ids, nil, nil
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// Export encodes the visible objects, as stored, in format f.
func (e *Editor) Export(f meshio.Format) ([]byte, error) {
	parts, err := tessellate.Tessellate(e.store.Visible())
	if err != nil {
		return nil, fmt.Errorf("editor: export: %w", err)
	}
	var buf bytes.Buffer
	if err := meshio.Write(&buf, f, parts); err != nil {
		return nil, fmt.Errorf("editor: export: %w", err)
	}
	return buf.Bytes(), nil
}

// Display is a surface able to hand a file to the user.
type Display interface {
	SaveFile(name, mimeType string, data []byte) error
}

// DownloadName is the file name offered for an export.
func DownloadName(f meshio.Format) string {
	return "scene." + f.Extension()
}

// Download exports in format f and offers the file through d. Without a
// display it warns and does nothing.
func (e *Editor) Download(d Display, f meshio.Format) error {
	if d == nil {
		log.Warnf("editor: download of %s requested without a display surface, ignoring", f)
		return nil
	}
	data, err := e.Export(f)
	if err != nil {
		return err
	}
	if err := d.SaveFile(DownloadName(f), f.MIMEType(), data); err != nil {
		return fmt.Errorf("editor: download: %w", err)
	}
	return nil
}

// Validate reports problems with the scene.
func (e *Editor) Validate() []scene.ValidationError {
	return e.store.Validate()
}
