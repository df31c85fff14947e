package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/kiln/pkg/config"
	"github.com/chazu/kiln/pkg/editor"
	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/meshio"
	"github.com/chazu/kiln/pkg/pick"
	"github.com/chazu/kiln/pkg/scene"
)

// SnapshotEvent is emitted to the frontend whenever the scene changes.
const SnapshotEvent = "snapshot"

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx context.Context
	ed  *editor.Editor
}

// ScriptResult is returned to the frontend after running a script.
type ScriptResult struct {
	IDs    []string           `json:"ids"`
	Errors []engine.EvalError `json:"errors"`
}

// NewApp creates an App from cfg.
func NewApp(cfg config.Config) (*App, error) {
	ed, err := cfg.NewEditor()
	if err != nil {
		return nil, err
	}
	return &App{ed: ed}, nil
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.emit()
}

// emit pushes the current snapshot to the frontend. Outside a Wails
// runtime it does nothing.
func (a *App) emit() {
	if a.ctx == nil {
		return
	}
	snap, err := a.ed.Snapshot()
	if err != nil {
		log.Errf("app: snapshot: %v", err)
		return
	}
	runtime.EventsEmit(a.ctx, SnapshotEvent, snap)
}

// after emits a snapshot when err is nil and passes err through.
func (a *App) after(err error) error {
	if err == nil {
		a.emit()
	}
	return err
}

// Snapshot returns the current frame.
func (a *App) Snapshot() (editor.Snapshot, error) {
	return a.ed.Snapshot()
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

// AddObject creates an object and selects it.
func (a *App) AddObject(spec scene.Spec) (string, error) {
	id, err := a.ed.Add(spec)
	return id, a.after(err)
}

// UpdateObject patches an object.
func (a *App) UpdateObject(id string, p scene.Patch) error {
	return a.after(a.ed.Update(id, p))
}

// RemoveObject deletes an object.
func (a *App) RemoveObject(id string) error {
	return a.after(a.ed.Remove(id))
}

// ClearScene removes every object.
func (a *App) ClearScene() {
	a.ed.Clear()
	a.emit()
}

// Select selects id; "" clears the selection.
func (a *App) Select(id string) error {
	return a.after(a.ed.Select(id))
}

// SetGizmoMode switches between "translate", "rotate" and "scale".
func (a *App) SetGizmoMode(mode string) error {
	m, err := gizmo.ParseMode(mode)
	if err != nil {
		return err
	}
	return a.after(a.ed.SetGizmoMode(m))
}

// EnterEditMode starts face editing on id.
func (a *App) EnterEditMode(id string) error {
	return a.after(a.ed.EnterEditMode(id))
}

// ExitEditMode returns to object mode.
func (a *App) ExitEditMode() {
	a.ed.ExitEditMode()
	a.emit()
}

// ToggleFace flips a face of the edited object.
func (a *App) ToggleFace(face int) (bool, error) {
	on, err := a.ed.ToggleFace(face)
	return on, a.after(err)
}

// ---------------------------------------------------------------------------
// Topology and cutting
// ---------------------------------------------------------------------------

// Extrude moves the selected faces along their normals.
func (a *App) Extrude(distance float32) error {
	return a.after(a.ed.Extrude(a.context(), distance))
}

// Inset shrinks the selected faces toward their centroids.
func (a *App) Inset(amount float32) error {
	return a.after(a.ed.Inset(a.context(), amount))
}

// Subdivide splits every triangle of the selected object.
func (a *App) Subdivide(iterations int) error {
	return a.after(a.ed.Subdivide(a.context(), iterations))
}

// SetCuttingPlane shows or hides the cutting plane.
func (a *App) SetCuttingPlane(on bool) error {
	return a.after(a.ed.ShowCuttingPlane(on))
}

// Cut splits the selected object along the cutting plane.
func (a *App) Cut() error {
	return a.ed.Cut()
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// ---------------------------------------------------------------------------
// Scripts, templates and catalogs
// ---------------------------------------------------------------------------

// RunScript replaces the scene with the objects the script describes.
func (a *App) RunScript(source string) ScriptResult {
	result := ScriptResult{
		IDs:    []string{},
		Errors: []engine.EvalError{},
	}
	ids, evalErrs, err := a.ed.RunScript(source)
	if err != nil {
		log.Warnf("app: run script: %v", err)
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		result.Errors = append(result.Errors, evalErrs...)
		return result
	}
	result.IDs = append(result.IDs, ids...)
	a.emit()
	return result
}

// Templates lists the built-in templates.
func (a *App) Templates() []engine.Template {
	return engine.Templates()
}

// LoadTemplate replaces the scene with a template.
func (a *App) LoadTemplate(name string) ([]string, error) {
	ids, err := a.ed.LoadTemplate(name)
	return ids, a.after(err)
}

// Materials lists the material catalog.
func (a *App) Materials() []material.Material {
	return material.All()
}

// Validate reports problems with the scene.
func (a *App) Validate() []scene.ValidationError {
	findings := a.ed.Validate()
	if findings == nil {
		return []scene.ValidationError{}
	}
	return findings
}

// ---------------------------------------------------------------------------
// Pointer and view
// ---------------------------------------------------------------------------

// PointerDown handles a press in viewport coordinates.
func (a *App) PointerDown(x, y float64) editor.PointerResult {
	res := a.ed.PointerDown(x, y)
	a.emit()
	return res
}

// PointerMove handles pointer motion anywhere in the window.
func (a *App) PointerMove(x, y float64) bool {
	moved := a.ed.PointerMove(x, y)
	if moved {
		a.emit()
	}
	return moved
}

// PointerUp ends a drag.
func (a *App) PointerUp() bool {
	ended := a.ed.PointerUp()
	if ended {
		a.emit()
	}
	return ended
}

// CancelDrag abandons a drag without committing it, for when the pointer
// is lost (window blur, pointer capture released).
func (a *App) CancelDrag() bool {
	cancelled := a.ed.CancelDrag()
	if cancelled {
		a.emit()
	}
	return cancelled
}

// SetCamera replaces the camera.
func (a *App) SetCamera(c pick.Camera) {
	a.ed.SetCamera(c)
	a.emit()
}

// SetViewport replaces the viewport rectangle.
func (a *App) SetViewport(vp pick.Viewport) {
	a.ed.SetViewport(vp)
}

// Tick advances the gizmo size animation.
func (a *App) Tick() float64 {
	size := a.ed.Tick()
	a.emit()
	return size
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// Export returns the visible objects encoded in format.
func (a *App) Export(format string) ([]byte, error) {
	f, err := meshio.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return a.ed.Export(f)
}

// Download asks the user where to save an export and writes it there.
func (a *App) Download(format string) error {
	f, err := meshio.ParseFormat(format)
	if err != nil {
		return err
	}
	if a.ctx == nil {
		return a.ed.Download(nil, f)
	}
	return a.ed.Download(saveDialog{ctx: a.ctx}, f)
}

// saveDialog saves files through the native save dialog.
type saveDialog struct {
	ctx context.Context
}

var _ editor.Display = saveDialog{}

// SaveFile implements editor.Display. Cancelling the dialog is not an error.
func (d saveDialog) SaveFile(name, mimeType string, data []byte) error {
	ext := name[strings.LastIndex(name, ".")+1:]
	path, err := runtime.SaveFileDialog(d.ctx, runtime.SaveDialogOptions{
		DefaultFilename: name,
		Title:           "Export scene",
		Filters: []runtime.FileFilter{{
			DisplayName: fmt.Sprintf("%s (*.%s)", strings.ToUpper(ext), ext),
			Pattern:     "*." + ext,
		}},
	})
	if err != nil {
		return err
	}
	if path == "" {
		log.Infof("app: export of %s cancelled", name)
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Infof("app: wrote %s (%s, %d bytes)", path, mimeType, len(data))
	return nil
}
