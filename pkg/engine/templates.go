package engine

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/kiln/pkg/scene"
)

//go:embed templates/*.zy
var templateFS embed.FS

// ErrUnknownTemplate is returned for a template name that is not built in.
var ErrUnknownTemplate = errors.New("engine: unknown template")

// Template describes a built-in structure script. Title and Description
// come from the script's two leading comment lines.
type Template struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Templates lists the built-in templates by name.
func Templates() []Template {
	entries, _ := templateFS.ReadDir("templates")
	out := make([]Template, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".zy")
		src, err := TemplateSource(name)
		if err != nil {
			continue
		}
		t := Template{Name: name}
		sc := bufio.NewScanner(strings.NewReader(src))
		for _, dst := range []*string{&t.Title, &t.Description} {
			if !sc.Scan() {
				break
			}
			*dst = strings.TrimSpace(strings.TrimLeft(sc.Text(), ";"))
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TemplateSource returns the script of a built-in template.
func TemplateSource(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name + ".zy")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return string(data), nil
}

// Template evaluates a built-in template.
func (e *Engine) Template(name string) ([]scene.Spec, error) {
	src, err := TemplateSource(name)
	if err != nil {
		return nil, err
	}
	specs, evalErrs, err := e.Evaluate(src)
	if err != nil {
		return nil, fmt.Errorf("engine: template %s: %w", name, err)
	}
	if len(evalErrs) > 0 {
		return nil, fmt.Errorf("engine: template %s: %w", name, evalErrs[0])
	}
	return specs, nil
}

// LoadTemplate replaces the contents of s with the objects of a built-in
// template and returns their ids. s is left alone on any error.
func (e *Engine) LoadTemplate(s *scene.Store, name string) ([]string, error) {
	specs, err := e.Template(name)
	if err != nil {
		return nil, err
	}
	return s.Load(specs)
}

// Run evaluates a user script and adds its objects to s, replacing the
// scene. Script errors are returned as the first EvalError.
func (e *Engine) Run(s *scene.Store, source string) ([]string, error) {
	specs, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		return nil, evalErrs[0]
	}
	return s.Load(specs)
}
