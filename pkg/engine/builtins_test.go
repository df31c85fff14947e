package engine

import (
	"strings"
	"testing"

	"github.com/chazu/kiln/pkg/primitive"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(cube :width 2)`, `(cube "__kw_width" 2)`},
		{"multiple keywords", `(cube :width 4 :depth 2)`, `(cube "__kw_width" 4 "__kw_depth" 2)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"say \":hi\"" :a`, `"say \":hi\"" "__kw_a"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def wall-color 1)`, `(def wall_color 1)`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `(vec3 0 -0.25 0)`, `(vec3 0 -0.25 0)`},
		{"comment converted to // style", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", `; simple comment`, `// simple comment`},
		{"hyphen in keyword preserved", `:radius-top`, `"__kw_radius-top"`},
		{"trailing colon", `x :`, `x :`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primitive builtins
// ---------------------------------------------------------------------------

func TestPrimitiveBuiltins(t *testing.T) {
	src := `
(def steel (material "steel"))
(cube :name "Block" :width 2 :height 3 :depth 4 :material steel)
(sphere :radius 1.5 :width-segments 16 :height-segments 8)
(cylinder :radius-top 1 :radius-bottom 2 :height 5 :radial-segments 12 :material :concrete)
(cone :radius 2 :height 4 :hidden true)
`
	specs, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(specs) != 4 {
		t.Fatalf("expected 4 objects, got %d", len(specs))
	}

	block := specs[0]
	if block.Type != primitive.Cube || block.Name != "Block" || block.Material != "steel" {
		t.Errorf("block = %+v", block)
	}
	if g := block.Geometry; g == nil || g.Width != 2 || g.Height != 3 || g.Depth != 4 {
		t.Errorf("block geometry = %+v", block.Geometry)
	}
	if block.Transform != nil {
		t.Errorf("unplaced cube should keep default transform, got %+v", block.Transform)
	}

	ball := specs[1]
	if g := ball.Geometry; g.Radius != 1.5 || g.WidthSegments != 16 || g.HeightSegments != 8 {
		t.Errorf("sphere geometry = %+v", g)
	}

	pipe := specs[2]
	if g := pipe.Geometry; g.RadiusTop != 1 || g.RadiusBottom != 2 || g.Height != 5 || g.RadialSegments != 12 {
		t.Errorf("cylinder geometry = %+v", g)
	}
	if pipe.Material != "concrete" {
		t.Errorf("cylinder material = %q", pipe.Material)
	}

	if !specs[3].Hidden {
		t.Error("cone should be hidden")
	}
}

func TestPrimitiveDefaultsWhenBare(t *testing.T) {
	specs, evalErrs, err := NewEngine().Evaluate("(cube)")
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("Evaluate failed: %v %v", err, evalErrs)
	}
	if len(specs) != 1 || specs[0].Geometry != nil {
		t.Fatalf("bare cube should leave geometry to defaults, got %+v", specs)
	}
}

func TestBuiltinsRejectBadArguments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown keyword", `(cube :radius 2)`, "unknown keyword :radius"},
		{"wrong type", `(cube :width "wide")`, "expected number"},
		{"segments must be integers", `(sphere :width-segments 1.5)`, "expected integer"},
		{"unknown material", `(material "unobtainium")`, "unknown material"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"vec3 expected", `(cube :at 5)`, "expected vec3"},
		{"positional", `(cube 5)`, "unexpected positional"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, evalErrs, err := NewEngine().Evaluate(tt.src)
			if err != nil {
				t.Fatalf("unexpected fatal error: %v", err)
			}
			if specs != nil {
				t.Fatalf("expected nil result, got %d objects", len(specs))
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("error = %q, want containing %q", evalErrs[0].Message, tt.want)
			}
		})
	}
}

func TestPlacement(t *testing.T) {
	specs, evalErrs, err := NewEngine().Evaluate(`(cone :at (vec3 1 2 3) :rotate (vec3 0 1.5 0) :scale (vec3 2 2 2))`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("Evaluate failed: %v %v", err, evalErrs)
	}
	tr := specs[0].Transform
	if tr == nil {
		t.Fatal("expected a transform")
	}
	if tr.Position[0] != 1 || tr.Position[1] != 2 || tr.Position[2] != 3 {
		t.Errorf("position = %v", tr.Position)
	}
	if tr.Rotation[1] != 1.5 {
		t.Errorf("rotation = %v", tr.Rotation)
	}
	if tr.Scale[2] != 2 {
		t.Errorf("scale = %v", tr.Scale)
	}
}

func TestVariableReference(t *testing.T) {
	src := `
(def post-height 2)
(def left (vec3 -2 1 0))
(cylinder :height post-height :at left)
(cylinder :height (* post-height 2))
`
	specs, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("Evaluate failed: %v %v", err, evalErrs)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(specs))
	}
	if specs[0].Geometry.Height != 2 || specs[1].Geometry.Height != 4 {
		t.Errorf("heights = %v, %v", specs[0].Geometry.Height, specs[1].Geometry.Height)
	}
	if specs[0].Transform.Position[0] != -2 {
		t.Errorf("position = %v", specs[0].Transform.Position)
	}
}
