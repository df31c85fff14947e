// Package engine evaluates kiln scene scripts. A script is zygomys Lisp
// run in a fresh sandbox with a small set of builtins (cube, sphere,
// cylinder, cone, vec3, material); each primitive call adds one object
// description to the result. The built-in structure templates are scripts.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kiln/pkg/scene"
)

// EvalError is a non-fatal error in a script, such as a parse error or a
// builtin rejecting its arguments.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine runs scene scripts. It is safe for concurrent use; every call to
// Evaluate gets its own sandbox, and only the newest call's result is kept.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds a single evaluation. Zero or less keeps EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine returns an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs source and returns the objects it describes, in call order.
//
// Return semantics:
//   - On success: specs (possibly empty, never nil) + nil errors + nil error
//   - On parse/eval failure: nil specs + eval errors + nil error
//   - On fatal failure (timeout, superseded, panic): nil + nil + error
func (e *Engine) Evaluate(source string) ([]scene.Spec, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()
		specs, evalErrs := evaluate(source)
		ch <- evalResult{specs: specs, errors: evalErrs}
	}()

	return e.await(ch, gen)
}

func evaluate(source string) ([]scene.Spec, []EvalError) {
	specs := []scene.Spec{}
	if strings.TrimSpace(source) == "" {
		return specs, nil
	}

	// The sandbox keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, &specs)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return specs, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, pulling out
// a line number when the message has one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
