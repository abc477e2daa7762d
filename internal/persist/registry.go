// Package persist implements dump/load of a composed pipeline's DAG
// structure (SPEC_FULL.md Design Notes §9, "Persistence of callables"):
// Go cannot serialize a function value, so only the DAG's shape — node
// ids, activity metadata, kwargs, edges — is persisted via encoding/gob;
// callables are referenced by the symbolic name their Callable.Name()
// already carries, and resolved against a Registry supplied at load time.
// Grounded on the teacher's internal/registry package for the
// register-by-name / resolve-by-name shape, adapted from pipeline
// persistence to callable persistence.
package persist

import (
	"sync"

	"github.com/dagflow/dagflow/internal/taskgraph"
)

// Registry maps a Callable's symbolic name to a live implementation,
// consulted when reconstructing a DAG snapshot.
type Registry struct {
	mu    sync.RWMutex
	items map[string]taskgraph.Callable
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]taskgraph.Callable)}
}

// Register binds a Callable under its own Name(). Registering a second
// Callable under the same name replaces the first.
func (r *Registry) Register(c taskgraph.Callable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.Name()] = c
}

// Lookup resolves a symbolic name to its registered Callable.
func (r *Registry) Lookup(name string) (taskgraph.Callable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[name]
	return c, ok
}
