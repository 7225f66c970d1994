package unit

import (
	"fmt"
	"sync"
)

// Registry is the in-process set of compiled units, keyed by name.
// The compilation pass registers each unit once; re-registering the
// same name is a contract violation by the pass.
type Registry struct {
	mu      sync.Mutex
	byName  map[string]ExecutionUnit
	ordered []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ExecutionUnit)}
}

// RegisterCompiled adds a freshly compiled unit. The CompileSeq field is
// assigned here, in registration order.
func (r *Registry) RegisterCompiled(name string, guestPC uint64, guestLen uint32) (ExecutionUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return ExecutionUnit{}, fmt.Errorf("unit: %q registered twice", name)
	}
	u := ExecutionUnit{
		Name:       name,
		GuestPC:    guestPC,
		GuestLen:   guestLen,
		CompileSeq: len(r.ordered),
	}
	r.byName[name] = u
	r.ordered = append(r.ordered, name)
	return u, nil
}

// Lookup returns the unit with the given name.
func (r *Registry) Lookup(name string) (ExecutionUnit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[name]
	return u, ok
}

// All returns every registered unit in compilation order.
func (r *Registry) All() []ExecutionUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	units := make([]ExecutionUnit, 0, len(r.ordered))
	for _, name := range r.ordered {
		units = append(units, r.byName[name])
	}
	return units
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordered)
}
