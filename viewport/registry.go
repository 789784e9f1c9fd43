// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"errors"
	"fmt"

	"cogentcore.org/core/base/keylist"
)

// ErrDuplicate is returned when a viewport id is registered twice.
var ErrDuplicate = errors.New("viewport: id already registered")

// Registry is the ordered set of live viewports of one engine.
// Iteration order is registration order.
//
// Registry is NOT safe for concurrent use.
type Registry struct {
	list keylist.List[ID, *Viewport]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers v at the end of the order.
func (r *Registry) Add(v *Viewport) error {
	if err := r.list.Add(v.ID(), v); err != nil {
		return fmt.Errorf("%w: %s", ErrDuplicate, v.ID())
	}
	return nil
}

// Insert registers v at position idx of the order. idx is clamped to
// [0, Len()].
func (r *Registry) Insert(idx int, v *Viewport) error {
	if _, ok := r.list.AtTry(v.ID()); ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, v.ID())
	}
	r.list.Insert(min(max(idx, 0), r.list.Len()), v.ID(), v)
	return nil
}

// Remove unregisters id and reports whether it was present.
// Later viewports keep their relative order.
func (r *Registry) Remove(id ID) bool {
	return r.list.DeleteByKey(id)
}

// Get returns the viewport registered under id.
func (r *Registry) Get(id ID) (*Viewport, bool) {
	return r.list.AtTry(id)
}

// Index returns the registration position of id, or -1.
func (r *Registry) Index(id ID) int {
	return r.list.IndexByKey(id)
}

// Len returns the number of registered viewports.
func (r *Registry) Len() int {
	return r.list.Len()
}

// All returns the viewports in registration order.
func (r *Registry) All() []*Viewport {
	return append([]*Viewport(nil), r.list.Values...)
}

// IDs returns the viewport ids in registration order.
func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.list.Keys...)
}

// Shared returns the viewports that use the shared pipeline, in
// registration order.
func (r *Registry) Shared() []*Viewport {
	var shared []*Viewport
	for _, v := range r.list.Values {
		if v.Pipeline().UsesSharedPipeline() {
			shared = append(shared, v)
		}
	}
	return shared
}

// Reset removes every viewport.
func (r *Registry) Reset() {
	r.list.Reset()
}
