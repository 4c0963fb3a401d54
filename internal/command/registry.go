package command

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the process-wide lookup from command id to handler. It is
// populated by module registration at startup and read-only thereafter.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler under its command id.
//
// Registering two handlers with the same id panics: registration happens
// once at startup and a duplicate id is a programmer error, so failing at
// boot beats silently shadowing a handler.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := h.ID()
	if _, exists := r.handlers[id]; exists {
		panic(fmt.Sprintf("command.Registry: duplicate registration for %q", id))
	}
	r.handlers[id] = h
}

// Get returns the handler for the given command id, or false if none is
// registered.
func (r *Registry) Get(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[id]
	return h, ok
}

// IDs returns all registered command ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
