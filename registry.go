package etrc

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps identifiers to named traces, so code can start and end a trace
// by identifier without holding a reference to it. A registry is typically
// created once, alongside the session, and shared with the rest of the program
// directly or via the context.
type Registry struct {
	mtx    sync.Mutex
	traces map[string]*NamedTrace
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		traces: map[string]*NamedTrace{},
	}
}

// Register creates a named trace for id, with [DefaultCapacity], reporting to
// the given session, and returns it. Any trace previously registered with the
// same id is replaced, and its pending starts are discarded.
func (r *Registry) Register(id string, s *Session) *NamedTrace {
	nt := NewNamedTrace(s, id, DefaultCapacity)
	r.Put(id, nt)
	return nt
}

// Put registers the given named trace under id, replacing any trace previously
// registered with the same id. It allows traces with a non-default capacity,
// or a name that differs from the id.
func (r *Registry) Put(id string, nt *NamedTrace) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.traces[id] = nt
}

// Get returns the named trace registered under id, if any.
func (r *Registry) Get(id string) (*NamedTrace, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	nt, ok := r.traces[id]
	return nt, ok
}

// Start calls Start on the named trace registered under id. If no trace is
// registered, Start does nothing, logs nothing, and returns an error wrapping
// ErrNotRegistered.
func (r *Registry) Start(id string) error {
	nt, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotRegistered)
	}
	return nt.Start()
}

// End calls End on the named trace registered under id. If no trace is
// registered, End does nothing, logs nothing, and returns an error wrapping
// ErrNotRegistered.
func (r *Registry) End(id string) error {
	nt, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotRegistered)
	}
	return nt.End()
}

// IDs returns every registered id, in sorted order.
func (r *Registry) IDs() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ids := make([]string, 0, len(r.traces))
	for id := range r.traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats returns the stats of every registered trace, ordered by id.
func (r *Registry) Stats() []NamedTraceStats {
	traces := func() []*NamedTrace {
		r.mtx.Lock()
		defer r.mtx.Unlock()

		ids := make([]string, 0, len(r.traces))
		for id := range r.traces {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		traces := make([]*NamedTrace, len(ids))
		for i, id := range ids {
			traces[i] = r.traces[id]
		}
		return traces
	}()

	// Each trace takes its own lock, so collect stats outside of ours.
	stats := make([]NamedTraceStats, len(traces))
	for i, nt := range traces {
		stats[i] = nt.Stats()
	}
	return stats
}

//
//
//

type registryContextKey struct{}

var registryContextVal registryContextKey

// ContextWithRegistry returns a new context carrying the given registry.
func ContextWithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryContextVal, r)
}

// RegistryFromContext returns the registry in the context, if it exists.
func RegistryFromContext(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryContextVal).(*Registry)
	return r, ok
}

// StartContext calls Start on the registry in the context. If the context has
// no registry, it returns an error wrapping ErrNotRegistered.
func StartContext(ctx context.Context, id string) error {
	r, ok := RegistryFromContext(ctx)
	if !ok {
		return fmt.Errorf("%s: no registry in context: %w", id, ErrNotRegistered)
	}
	return r.Start(id)
}

// EndContext calls End on the registry in the context. If the context has no
// registry, it returns an error wrapping ErrNotRegistered.
func EndContext(ctx context.Context, id string) error {
	r, ok := RegistryFromContext(ctx)
	if !ok {
		return fmt.Errorf("%s: no registry in context: %w", id, ErrNotRegistered)
	}
	return r.End(id)
}
