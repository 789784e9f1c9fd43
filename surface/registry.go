// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/viewmux/compositor"
)

// Factory creates a compositor backend for the host's GPU device.
// provider may be nil when the host has no device.
type Factory func(provider gpucontext.DeviceProvider) (compositor.Backend, error)

// RegistryEntry represents a registered compositor backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	// Standard priorities:
	//   - 100: GPU backends (Vulkan, Metal, D3D12)
	//   - 10: Pure software backends
	Priority int

	// Factory creates backend instances.
	Factory Factory

	// Available reports whether the backend can run with the given
	// provider. A nil func means always available.
	Available func(provider gpucontext.DeviceProvider) bool
}

func (e *RegistryEntry) available(provider gpucontext.DeviceProvider) bool {
	return e.Available == nil || e.Available(provider)
}

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry manages registered compositor backends.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and Open.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a backend to the global registry.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, factory Factory, available func(gpucontext.DeviceProvider) bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered backend names sorted by priority (highest first).
func List() []string {
	return globalRegistry.List()
}

// Open creates a backend using the best backend available for provider.
func Open(provider gpucontext.DeviceProvider) (compositor.Backend, error) {
	return globalRegistry.Open(provider)
}

// OpenByName creates a backend using a specific named backend.
func OpenByName(name string, provider gpucontext.DeviceProvider) (compositor.Backend, error) {
	return globalRegistry.OpenByName(name, provider)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory Factory, available func(gpucontext.DeviceProvider) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered backend names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(nil, false)
}

// Get returns information about a specific backend.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent modification
	entryCopy := *entry
	return &entryCopy, true
}

// Open creates a backend using the best backend available for provider.
// Backends are tried in priority order until one succeeds.
func (r *Registry) Open(provider gpucontext.DeviceProvider) (compositor.Backend, error) {
	r.mu.RLock()
	available := r.sortedNames(provider, true)
	r.mu.RUnlock()

	if len(available) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var lastErr error
	for _, name := range available {
		b, err := r.OpenByName(name, provider)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// OpenByName creates a backend using a specific backend.
func (r *Registry) OpenByName(name string, provider gpucontext.DeviceProvider) (compositor.Backend, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !entry.available(provider) {
		return nil, &BackendUnavailableError{Name: name}
	}
	return entry.Factory(provider)
}

// sortedNames returns backend names sorted by priority (highest first),
// ties broken by name. If onlyAvailable is true, backends unavailable for
// provider are skipped. Must be called with lock held.
func (r *Registry) sortedNames(provider gpucontext.DeviceProvider, onlyAvailable bool) []string {
	entries := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.available(provider) {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Errors.
var (
	// ErrNoBackendAvailable is returned when no backends are registered
	// or available for the host's device.
	ErrNoBackendAvailable = errors.New("surface: no backend available")
)

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

// SoftwareBackendName is the registry name of the built-in software backend.
const SoftwareBackendName = "software"

// init registers the built-in software backend.
func init() {
	Register(SoftwareBackendName, 10, func(provider gpucontext.DeviceProvider) (compositor.Backend, error) {
		return NewBackend(provider), nil
	}, nil)
}
