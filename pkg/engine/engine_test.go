package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/kiln/pkg/kernel/facet"
	"github.com/chazu/kiln/pkg/scene"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		specs, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if specs == nil {
			t.Fatal("expected non-nil result")
		}
		if len(specs) != 0 {
			t.Errorf("expected no objects, got %d", len(specs))
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	specs, evalErrs, err := eng.Evaluate("(def x 10)\n(def y 20)\n(+ x y)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(specs) != 0 {
		t.Errorf("arithmetic should describe no objects, got %d", len(specs))
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	specs, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if specs != nil {
		t.Fatal("expected nil result on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	specs, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if specs != nil {
		t.Fatal("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateTimeout(t *testing.T) {
	e := NewEngine(WithTimeout(50 * time.Millisecond))
	e.generation = 1
	ch := make(chan evalResult) // never sends

	start := time.Now()
	_, _, err := e.await(ch, 1)
	if !errors.Is(err, ErrEvalTimeout) {
		t.Fatalf("expected ErrEvalTimeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	e := NewEngine()
	e.generation = 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := e.await(ch, 1)
	if !errors.Is(err, ErrEvalSuperseded) {
		t.Fatalf("expected ErrEvalSuperseded, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	if got := NewEngine().timeout; got != EvalTimeout {
		t.Errorf("default timeout = %s, want %s", got, EvalTimeout)
	}
	if got := NewEngine(WithTimeout(time.Second)).timeout; got != time.Second {
		t.Errorf("timeout = %s, want 1s", got)
	}
	if got := NewEngine(WithTimeout(0)).timeout; got != EvalTimeout {
		t.Errorf("zero timeout should keep default, got %s", got)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: bad", 3, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

func TestTemplatesListed(t *testing.T) {
	got := Templates()
	if len(got) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(got))
	}
	if got[0].Name != "bridge" || got[1].Name != "house" {
		t.Errorf("template names = %q, %q", got[0].Name, got[1].Name)
	}
	if got[1].Title != "Simple House" {
		t.Errorf("house title = %q", got[1].Title)
	}
	if got[0].Description != "Basic bridge structure with deck and supports" {
		t.Errorf("bridge description = %q", got[0].Description)
	}
}

func TestHouseTemplate(t *testing.T) {
	specs, err := NewEngine().Template("house")
	if err != nil {
		t.Fatalf("Template(house) failed: %v", err)
	}
	want := []string{"Foundation", "Wall Front", "Wall Back", "Wall Left", "Wall Right", "Roof"}
	if len(specs) != len(want) {
		t.Fatalf("expected %d objects, got %d", len(want), len(specs))
	}
	for i, name := range want {
		if specs[i].Name != name {
			t.Errorf("object %d name = %q, want %q", i, specs[i].Name, name)
		}
	}

	found := specs[0]
	if found.Geometry == nil || found.Geometry.Width != 8 || found.Geometry.Height != 0.5 || found.Geometry.Depth != 6 {
		t.Errorf("foundation geometry = %+v", found.Geometry)
	}
	if found.Transform == nil || found.Transform.Position[1] != -0.25 {
		t.Errorf("foundation transform = %+v", found.Transform)
	}
	if found.Color != "#8B4513" {
		t.Errorf("foundation color = %q", found.Color)
	}
	if specs[1].Color != "#D2B48C" {
		t.Errorf("wall color = %q", specs[1].Color)
	}

	roof := specs[5]
	if roof.Transform.Rotation[0] != 0.2 {
		t.Errorf("roof rotation x = %v, want 0.2", roof.Transform.Rotation[0])
	}
	if roof.Transform.Scale[0] != 1 {
		t.Errorf("roof scale should default to 1, got %v", roof.Transform.Scale)
	}
}

func TestLoadTemplateReplacesScene(t *testing.T) {
	s := scene.NewStore(facet.New(), &scene.CounterAllocator{})
	if _, err := s.Add(scene.Spec{Type: "sphere"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	eng := NewEngine()
	ids, err := eng.LoadTemplate(s, "bridge")
	if err != nil {
		t.Fatalf("LoadTemplate failed: %v", err)
	}
	if len(ids) != 5 || s.Len() != 5 {
		t.Fatalf("expected 5 objects, got ids=%d len=%d", len(ids), s.Len())
	}
	deck, _ := s.Get(ids[0])
	if deck.Name != "Bridge Deck" || deck.Material != "steel" {
		t.Errorf("deck = %q / %q", deck.Name, deck.Material)
	}

	if _, err := eng.LoadTemplate(s, "castle"); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
	if s.Len() != 5 {
		t.Errorf("failed load changed the scene: %d objects", s.Len())
	}
}
