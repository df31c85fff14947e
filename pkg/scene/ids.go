package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDAllocator hands out object ids. A store owns exactly one allocator;
// ids are never reused within it.
type IDAllocator interface {
	Next() string
}

// CounterAllocator issues "obj_1", "obj_2", ...
type CounterAllocator struct {
	n atomic.Uint64
}

// Next implements IDAllocator.
func (a *CounterAllocator) Next() string {
	return fmt.Sprintf("obj_%d", a.n.Add(1))
}

// UUIDAllocator issues "obj_" followed by a random UUID, for scenes that
// are merged across sessions.
type UUIDAllocator struct{}

// Next implements IDAllocator.
func (UUIDAllocator) Next() string {
	return "obj_" + uuid.NewString()
}

// NewAllocator returns the allocator for a configured scheme: "counter"
// (the default) or "uuid".
func NewAllocator(scheme string) (IDAllocator, error) {
	switch scheme {
	case "", "counter":
		return &CounterAllocator{}, nil
	case "uuid":
		return UUIDAllocator{}, nil
	}
	return nil, fmt.Errorf("scene: unknown id scheme %q", scheme)
}
