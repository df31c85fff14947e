package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/kiln/pkg/scene"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrEvalTimeout is returned when a script runs longer than the
	// engine's timeout.
	ErrEvalTimeout = errors.New("engine: evaluation timed out")
	// ErrEvalSuperseded is returned to a caller whose evaluation finished
	// after a newer one started.
	ErrEvalSuperseded = errors.New("engine: evaluation superseded by newer request")
)

type evalResult struct {
	specs  []scene.Spec
	errors []EvalError
	err    error
}

// current reports whether gen is still the newest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}

// await blocks until evaluation gen reports on ch or the timeout fires.
// An abandoned sandbox goroutine still writes into the buffered channel,
// so it never blocks.
func (e *Engine) await(ch <-chan evalResult, gen uint64) ([]scene.Spec, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrEvalSuperseded
		}
		return res.specs, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrEvalTimeout, e.timeout)
	}
}
