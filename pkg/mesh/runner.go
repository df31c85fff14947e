package mesh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultRunTimeout is the limit for a single operator run.
const DefaultRunTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned when a newer run started before this one
	// finished. Its result is discarded.
	ErrSuperseded = errors.New("mesh: operation superseded by newer request")

	// ErrTimeout is returned when an operator exceeds the runner timeout.
	ErrTimeout = errors.New("mesh: operation timed out")
)

// Op is a topology edit. It must not modify its input.
type Op func(*Mesh) (*Mesh, error)

// Extrude returns an Op running ExtrudeFaces.
func Extrude(faces []int, distance float32) Op {
	return func(m *Mesh) (*Mesh, error) { return ExtrudeFaces(m, faces, distance) }
}

// Inset returns an Op running InsetFaces.
func Inset(faces []int, amount float32) Op {
	return func(m *Mesh) (*Mesh, error) { return InsetFaces(m, faces, amount) }
}

// Subdivision returns an Op running Subdivide.
func Subdivision(iterations int) Op {
	return func(m *Mesh) (*Mesh, error) { return Subdivide(m, iterations) }
}

// Runner executes operators off the caller's goroutine. Meshes are
// immutable, so the input can be handed across without copying. A generation
// counter discards results of runs that were overtaken by a newer one.
type Runner struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewRunner returns a Runner with the given timeout. A zero timeout uses
// DefaultRunTimeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &Runner{timeout: timeout}
}

type runResult struct {
	mesh *Mesh
	err  error
}

// Run applies op to m and waits for the result, the timeout or ctx.
//
// On timeout the goroutine may still be running; the generation check
// ensures its result is never returned to a later caller.
func (r *Runner) Run(ctx context.Context, m *Mesh, op Op) (*Mesh, error) {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	ch := make(chan runResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- runResult{err: fmt.Errorf("mesh: panic during operation: %v", p)}
			}
		}()
		out, err := op(m)
		ch <- runResult{mesh: out, err: err}
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		r.mu.Lock()
		current := r.generation
		r.mu.Unlock()
		if gen != current {
			return nil, ErrSuperseded
		}
		return res.mesh, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
