package viewmux

import (
	"fmt"
	"sync"

	"cogentcore.org/core/base/keylist"
)

// Registry is an application-owned directory of engines by id.
// Iteration order is registration order.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines keylist.List[string, *Engine]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers e under its id.
func (r *Registry) Add(e *Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.engines.Add(e.ID(), e); err != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateEngine, e.ID())
	}
	return nil
}

// Get returns the engine registered under id.
func (r *Registry) Get(id string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines.AtTry(id)
}

// Remove unregisters id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines.DeleteByKey(id)
}

// All returns the registered engines in registration order.
func (r *Registry) All() []*Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Engine(nil), r.engines.Values...)
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines.Len()
}
