package main

import (
	"bytes"
	"math"
	"testing"

	"github.com/chazu/kiln/pkg/config"
	"github.com/chazu/kiln/pkg/scene"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(config.Default())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

// TestE2EScriptToExport exercises the full pipeline: script -> engine ->
// store -> tessellate -> STL, the same path the Wails bindings take but
// without the Wails runtime.
func TestE2EScriptToExport(t *testing.T) {
	app := newTestApp(t)

	result := app.RunScript(`
(cube :name "Base" :width 20 :height 2 :depth 20)
(cylinder :name "Post" :at (vec3 0 6 0) :radius-top 1 :radius-bottom 1 :height 10)`)
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if len(result.IDs) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(result.IDs))
	}

	snap, err := app.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(snap.Parts))
	}
	for _, p := range snap.Parts {
		if p.Mesh == nil || p.Mesh.TriangleCount() == 0 {
			t.Errorf("part %q: no geometry", p.Name)
		}
		if len(p.Mesh.Normals) == 0 {
			t.Errorf("part %q: no normals", p.Name)
		}
		if p.Color == 0 {
			t.Errorf("part %q: no color assigned", p.Name)
		}
	}

	data, err := app.Export("stl")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("solid CADModel")) {
		t.Errorf("unexpected STL header: %q", data[:20])
	}
	// Box 12 + cylinder 128 triangles.
	if n := bytes.Count(data, []byte("facet normal")); n != 140 {
		t.Errorf("expected 140 facets, got %d", n)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t)
	result := app.RunScript("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.IDs) != 0 {
		t.Errorf("expected 0 objects for empty source, got %d", len(result.IDs))
	}
	// Slices must be non-nil so they serialize as [] not null.
	if result.IDs == nil || result.Errors == nil {
		t.Error("result slices should be non-nil")
	}
}

// TestE2ESyntaxError ensures eval errors are reported and the scene is kept.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.AddObject(scene.Spec{Type: "cube"}); err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	result := app.RunScript("(cube :width")
	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.IDs) != 0 {
		t.Errorf("expected 0 objects on error, got %d", len(result.IDs))
	}
	snap, _ := app.Snapshot()
	if len(snap.Objects) != 1 {
		t.Errorf("scene should be untouched, has %d objects", len(snap.Objects))
	}
}

// TestE2EFaceExtrusion walks the edit-mode flow: select a face, extrude it.
func TestE2EFaceExtrusion(t *testing.T) {
	app := newTestApp(t)
	id, err := app.AddObject(scene.Spec{Type: "cube"})
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	if err := app.EnterEditMode(id); err != nil {
		t.Fatalf("EnterEditMode: %v", err)
	}
	on, err := app.ToggleFace(4)
	if err != nil || !on {
		t.Fatalf("ToggleFace = %v, %v", on, err)
	}
	if err := app.Extrude(5); err != nil {
		t.Fatalf("Extrude: %v", err)
	}

	snap, _ := app.Snapshot()
	if len(snap.Objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(snap.Objects))
	}
	o := snap.Objects[0]
	if !o.Edited {
		t.Error("object should be marked edited")
	}
	if n := snap.Parts[0].Mesh.TriangleCount(); n != 18 {
		t.Errorf("expected 18 triangles after extrusion, got %d", n)
	}
	// Properties follow the parametric geometry, not the edited mesh.
	if math.Abs(o.Properties.Volume-0.001) > 1e-12 {
		t.Errorf("volume = %g, want the 10cm cube's 0.001", o.Properties.Volume)
	}
	if len(snap.Faces) != 0 {
		t.Errorf("faces should be cleared, got %v", snap.Faces)
	}
}

// TestE2ETemplate loads the house template.
func TestE2ETemplate(t *testing.T) {
	app := newTestApp(t)
	ids, err := app.LoadTemplate("house")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("house template produced no objects")
	}
	snap, _ := app.Snapshot()
	if len(snap.Parts) != len(ids) {
		t.Errorf("expected %d parts, got %d", len(ids), len(snap.Parts))
	}
}
