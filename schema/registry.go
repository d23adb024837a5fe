package schema

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/arloliu/mdata/errs"
)

// Registry maps structure names to Structures.
//
// The zero value is not usable; create one with NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Structure
	parent *Registry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Structure)}
}

// NewScopedRegistry creates an empty Registry whose lookups fall back to parent.
//
// Readers use a scoped registry to collect the structures defined in one
// file while still resolving names registered by the application.
func NewScopedRegistry(parent *Registry) *Registry {
	r := NewRegistry()
	r.parent = parent

	return r
}

// Register adds s under its current name.
//
// Returns:
//   - error: ErrInvalidName for an unnamed structure, ErrDuplicateStructure
//     when another Structure already uses the name in this registry
func (r *Registry) Register(s *Structure) error {
	if s == nil || s.Name() == "" {
		return fmt.Errorf("%w: structure without name", errs.ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[s.Name()]; ok {
		if existing == s {
			return nil
		}

		return fmt.Errorf("%w: %q", errs.ErrDuplicateStructure, s.Name())
	}
	r.byName[s.Name()] = s

	return nil
}

// Deregister removes s. Only the exact registered instance is removed.
func (r *Registry) Deregister(s *Structure) error {
	if s == nil {
		return fmt.Errorf("%w: nil structure", errs.ErrStructureNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byName[s.Name()]
	if !ok || existing != s {
		return fmt.Errorf("%w: %q", errs.ErrStructureNotFound, s.Name())
	}
	delete(r.byName, s.Name())

	return nil
}

// ByName returns the structure registered under name, searching the parent
// registry when this one does not hold it.
func (r *Registry) ByName(name string) (*Structure, bool) {
	r.mu.RLock()
	s, ok := r.byName[name]
	r.mu.RUnlock()

	if !ok && r.parent != nil {
		return r.parent.ByName(name)
	}

	return s, ok
}

// Owns reports whether name is registered in r itself, ignoring the parent.
func (r *Registry) Owns(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[name]

	return ok
}

// All returns the structures registered in r, excluding the parent, sorted by name.
func (r *Registry) All() []*Structure {
	r.mu.RLock()
	out := make([]*Structure, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Structure) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byName)
}

// Clear removes every structure from r.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.byName)
}
