// Package registry holds references to live scheduler instances, ensuring
// name uniqueness and allowing process-wide lookups.
package registry

import (
	"fmt"
	"sync"

	"github.com/altafino/schedkit/internal/types"
)

// Registry is a concurrency-safe mapping from scheduler name to handle. All
// operations serialize on one lock so callers observe a consistent snapshot.
//
// The process-wide instance comes from Default. Tests construct their own via
// New and inject it into the factory.
type Registry struct {
	mu         sync.Mutex
	schedulers map[string]types.Scheduler
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first access.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{schedulers: make(map[string]types.Scheduler)}
}

// Bind inserts sched under its name. A name collision fails with
// types.ErrDuplicateName and leaves the existing entry untouched.
func (r *Registry) Bind(sched types.Scheduler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := sched.Name()
	if _, exists := r.schedulers[name]; exists {
		return fmt.Errorf("scheduler with name %q already exists: %w", name, types.ErrDuplicateName)
	}
	r.schedulers[name] = sched
	return nil
}

// Remove deletes the entry for name, reporting whether anything was removed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.schedulers[name]
	delete(r.schedulers, name)
	return existed
}

// Lookup returns the current entry for name, if any.
func (r *Registry) Lookup(name string) (types.Scheduler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sched, ok := r.schedulers[name]
	return sched, ok
}

// LookupAll returns a point-in-time copy of all registered handles. Later
// registry mutations are not visible through it.
func (r *Registry) LookupAll() []types.Scheduler {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]types.Scheduler, 0, len(r.schedulers))
	for _, sched := range r.schedulers {
		all = append(all, sched)
	}
	return all
}
