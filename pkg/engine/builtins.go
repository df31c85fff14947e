package engine

import (
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/kiln/pkg/gizmo"
	"github.com/chazu/kiln/pkg/material"
	"github.com/chazu/kiln/pkg/primitive"
	"github.com/chazu/kiln/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keywords rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites script source into something zygomys accepts:
//
//   - :keyword becomes the string "__kw_keyword", so keywords never clash
//     with script variables.
//   - kebab-case identifiers become snake_case, since zygomys reads the
//     hyphen as subtraction.
//   - ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: source, out: make([]byte, 0, len(source)+len(source)/4)}
	for p.i < len(p.src) {
		c := p.src[p.i]
		switch {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.peek() == '=':
			p.copy(2)
		case c == ':' && isLetter(p.peek()):
			p.keyword()
		case c == '-' && p.i > 0 && isIdentChar(p.src[p.i-1]) && isLetter(p.peek()):
			p.out = append(p.out, '_')
			p.i++
		default:
			p.copy(1)
		}
	}
	return string(p.out)
}

type preprocessor struct {
	src string
	out []byte
	i   int
}

func (p *preprocessor) peek() byte {
	if p.i+1 < len(p.src) {
		return p.src[p.i+1]
	}
	return 0
}

func (p *preprocessor) copy(n int) {
	end := min(p.i+n, len(p.src))
	p.out = append(p.out, p.src[p.i:end]...)
	p.i = end
}

// quoted copies a string literal including both delimiters.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	p.copy(1)
	for p.i < len(p.src) && p.src[p.i] != delim {
		if escapes && p.src[p.i] == '\\' {
			p.copy(2)
			continue
		}
		p.copy(1)
	}
	p.copy(1)
}

func (p *preprocessor) comment() {
	p.out = append(p.out, '/', '/')
	for p.i < len(p.src) && p.src[p.i] == ';' {
		p.i++
	}
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.copy(1)
	}
}

func (p *preprocessor) keyword() {
	j := p.i + 1
	for j < len(p.src) && isKWChar(p.src[j]) {
		j++
	}
	p.out = append(p.out, '"')
	p.out = append(p.out, kwPrefix...)
	p.out = append(p.out, p.src[p.i+1:j]...)
	p.out = append(p.out, '"')
	p.i = j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Values passed between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpMaterial struct {
	key string
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %q)", m.key)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpObject is returned by the primitive builtins. index is the position
// of the object in the evaluation result.
type sexpObject struct {
	index int
	spec  scene.Spec
}

func (o *sexpObject) SexpString(ps *zygo.PrintState) string {
	if o.spec.Name != "" {
		return fmt.Sprintf("(%s %q)", o.spec.Type, o.spec.Name)
	}
	return fmt.Sprintf("(%s #%d)", o.spec.Type, o.index)
}
func (o *sexpObject) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args into keyword and positional arguments. A keyword
// with no value is recorded as null.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

// unknown returns the keywords not in allowed, sorted.
func (a kwArgs) unknown(allowed ...string) []string {
	var out []string
	for k := range a.kw {
		found := false
		for _, ok := range allowed {
			if k == ok {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		if name, kw := isKW(s); kw {
			return name, nil
		}
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toMaterialKey accepts (material "steel"), "steel" or :steel.
func toMaterialKey(s zygo.Sexp) (string, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.key, nil
	}
	key, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
	}
	if _, err := material.Lookup(key); err != nil {
		return "", err
	}
	return key, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// commonKeys are accepted by every primitive builtin.
var commonKeys = []string{"name", "material", "color", "at", "rotate", "scale", "hidden"}

// geometryKeys maps each primitive's keywords to its parameters.
var geometryKeys = map[primitive.Type]map[string]func(*primitive.Params, zygo.Sexp) error{
	primitive.Cube: {
		"width":  floatParam(func(p *primitive.Params) *float64 { return &p.Width }),
		"height": floatParam(func(p *primitive.Params) *float64 { return &p.Height }),
		"depth":  floatParam(func(p *primitive.Params) *float64 { return &p.Depth }),
	},
	primitive.Sphere: {
		"radius":          floatParam(func(p *primitive.Params) *float64 { return &p.Radius }),
		"width-segments":  intParam(func(p *primitive.Params) *int { return &p.WidthSegments }),
		"height-segments": intParam(func(p *primitive.Params) *int { return &p.HeightSegments }),
	},
	primitive.Cylinder: {
		"radius-top":      floatParam(func(p *primitive.Params) *float64 { return &p.RadiusTop }),
		"radius-bottom":   floatParam(func(p *primitive.Params) *float64 { return &p.RadiusBottom }),
		"height":          floatParam(func(p *primitive.Params) *float64 { return &p.Height }),
		"radial-segments": intParam(func(p *primitive.Params) *int { return &p.RadialSegments }),
	},
	primitive.Cone: {
		"radius":          floatParam(func(p *primitive.Params) *float64 { return &p.Radius }),
		"height":          floatParam(func(p *primitive.Params) *float64 { return &p.Height }),
		"radial-segments": intParam(func(p *primitive.Params) *int { return &p.RadialSegments }),
	},
}

func floatParam(field func(*primitive.Params) *float64) func(*primitive.Params, zygo.Sexp) error {
	return func(p *primitive.Params, s zygo.Sexp) error {
		f, err := toFloat64(s)
		if err != nil {
			return err
		}
		*field(p) = f
		return nil
	}
}

func intParam(field func(*primitive.Params) *int) func(*primitive.Params, zygo.Sexp) error {
	return func(p *primitive.Params, s zygo.Sexp) error {
		n, err := toInt(s)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

// registerBuiltins installs the scene builtins into env. Every primitive
// call appends to out. Source must go through preprocessSource first.
func registerBuiltins(env *zygo.Zlisp, out *[]scene.Spec) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v mgl64.Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (material "steel") or (material :steel)
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("material requires a catalog key")
		}
		key, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		if _, err := material.Lookup(key); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		return &sexpMaterial{key: key}, nil
	})

	// -----------------------------------------------------------------------
	// (cube :name "Wall" :width 8 :height 3 :depth 0.2
	//       :at (vec3 0 1.5 3) :rotate (vec3 0 0 0) :scale (vec3 1 1 1)
	//       :material (material "brick") :color "#D2B48C" :hidden false)
	//
	// sphere, cylinder and cone take the same common keywords plus their own
	// geometry keywords.
	// -----------------------------------------------------------------------
	for _, t := range primitive.Types() {
		t := t
		env.AddFunction(string(t), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			spec, err := primitiveSpec(t, parseArgs(args))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", t, err)
			}
			*out = append(*out, spec)
			return &sexpObject{index: len(*out) - 1, spec: spec}, nil
		})
	}
}

func primitiveSpec(t primitive.Type, pa kwArgs) (scene.Spec, error) {
	setters := geometryKeys[t]
	allowed := append([]string(nil), commonKeys...)
	for k := range setters {
		allowed = append(allowed, k)
	}
	if bad := pa.unknown(allowed...); len(bad) > 0 {
		return scene.Spec{}, fmt.Errorf("unknown keyword :%s", strings.Join(bad, ", :"))
	}
	if len(pa.positional) > 0 {
		return scene.Spec{}, fmt.Errorf("unexpected positional argument %s", pa.positional[0].SexpString(nil))
	}

	spec := scene.Spec{Type: t}
	if len(setters) > 0 {
		var geom primitive.Params
		touched := false
		for k, set := range setters {
			v, ok := pa.kw[k]
			if !ok {
				continue
			}
			if err := set(&geom, v); err != nil {
				return scene.Spec{}, fmt.Errorf("%s: %w", k, err)
			}
			touched = true
		}
		if touched {
			spec.Geometry = &geom
		}
	}

	var err error
	if v, ok := pa.kw["name"]; ok {
		if spec.Name, err = toString(v); err != nil {
			return scene.Spec{}, fmt.Errorf("name: %w", err)
		}
	}
	if v, ok := pa.kw["material"]; ok {
		if spec.Material, err = toMaterialKey(v); err != nil {
			return scene.Spec{}, fmt.Errorf("material: %w", err)
		}
	}
	if v, ok := pa.kw["color"]; ok {
		if spec.Color, err = toString(v); err != nil {
			return scene.Spec{}, fmt.Errorf("color: %w", err)
		}
	}
	if v, ok := pa.kw["hidden"]; ok {
		if spec.Hidden, err = toBool(v); err != nil {
			return scene.Spec{}, fmt.Errorf("hidden: %w", err)
		}
	}

	tr := gizmo.Identity()
	placed := false
	for _, k := range []struct {
		key string
		dst *mgl64.Vec3
	}{{"at", &tr.Position}, {"rotate", &tr.Rotation}, {"scale", &tr.Scale}} {
		v, ok := pa.kw[k.key]
		if !ok {
			continue
		}
		if *k.dst, err = toVec3(v); err != nil {
			return scene.Spec{}, fmt.Errorf("%s: %w", k.key, err)
		}
		placed = true
	}
	if placed {
		spec.Transform = &tr
	}
	return spec, nil
}
