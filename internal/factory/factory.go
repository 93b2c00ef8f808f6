// Package factory produces client-usable scheduler handles from resolved
// configuration while enforcing one live instance per name in the process.
package factory

import (
	"io"
	"log/slog"

	"github.com/altafino/schedkit/internal/properties"
	"github.com/altafino/schedkit/internal/registry"
	"github.com/altafino/schedkit/internal/scheduler"
	"github.com/altafino/schedkit/internal/types"
)

// Constructor builds a new scheduler from a resolved property set. The
// constructor binds the instance into reg as part of its own startup; the
// factory never binds on its behalf.
type Constructor func(set *properties.Set, reg *registry.Registry, logger *slog.Logger) (types.Scheduler, error)

// Factory resolves configuration on first use, derives the scheduler name and
// decides between reusing a live instance, reclaiming a shut-down one, or
// constructing fresh.
type Factory struct {
	resolver  *properties.Resolver
	registry  *registry.Registry
	construct Constructor
	logger    *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithRegistry injects a registry instead of the process-wide default.
func WithRegistry(reg *registry.Registry) FactoryOption {
	return func(f *Factory) { f.registry = reg }
}

// WithResolver injects a pre-built resolver (possibly already resolved).
func WithResolver(r *properties.Resolver) FactoryOption {
	return func(f *Factory) { f.resolver = r }
}

// WithConstructor replaces the runtime construction hook.
func WithConstructor(c Constructor) FactoryOption {
	return func(f *Factory) { f.construct = c }
}

// WithLogger sets the factory's logger.
func WithLogger(l *slog.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// New creates a factory with default collaborators: a fresh resolver, the
// process-wide registry, and the standard runtime constructor.
func New(opts ...FactoryOption) *Factory {
	f := &Factory{
		construct: scheduler.Instantiate,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.resolver == nil {
		f.resolver = properties.NewResolver(properties.WithLogger(f.logger))
	}
	if f.registry == nil {
		f.registry = registry.Default()
	}
	return f
}

// NewFromFile creates a factory initialized from the named properties file or
// bundled resource. A resolution failure is permanent for the returned
// factory.
func NewFromFile(name string, opts ...FactoryOption) (*Factory, error) {
	f := New(opts...)
	if _, err := f.resolver.ResolveFile(name); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFromReader creates a factory initialized from an opened properties
// stream.
func NewFromReader(r io.Reader, opts ...FactoryOption) (*Factory, error) {
	f := New(opts...)
	if _, err := f.resolver.ResolveReader(r); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFromProperties creates a factory initialized from an already-assembled
// property map. No file I/O or system overlay applies.
func NewFromProperties(values map[string]string, opts ...FactoryOption) (*Factory, error) {
	f := New(opts...)
	if _, err := f.resolver.ResolveProperties(values); err != nil {
		return nil, err
	}
	return f, nil
}

// Initialize runs the default resolution cascade now instead of lazily on the
// first GetScheduler. No-op when already resolved; replays a prior failure.
func (f *Factory) Initialize() error {
	_, err := f.resolver.Resolve()
	return err
}

// Source describes where the resolved configuration came from.
func (f *Factory) Source() string { return f.resolver.Source() }

// Registry returns the registry this factory consults.
func (f *Factory) Registry() *registry.Registry { return f.registry }

// GetScheduler returns a handle to the scheduler named by the resolved
// configuration, resolving with the default cascade on first use.
//
// A live registered instance is returned as-is. A shut-down instance is
// removed and replaced. The lookup/remove/construct window is deliberately
// not one critical section spanning the registry and the runtime; two
// concurrent callers may both reach construction, and the loser surfaces the
// runtime's duplicate-bind error instead of silently discarding an instance.
func (f *Factory) GetScheduler() (types.Scheduler, error) {
	set, err := f.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	name := set.GetString(types.PropSchedInstanceName, types.DefaultInstanceName)

	if sched, ok := f.registry.Lookup(name); ok {
		if !sched.IsShutdown() {
			return sched, nil
		}
		f.registry.Remove(name)
		f.logger.Info("removed shut-down scheduler, constructing replacement", "name", name)
	}

	return f.construct(set, f.registry, f.logger)
}
