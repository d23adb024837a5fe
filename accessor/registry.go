package accessor

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/arloliu/mdata/errs"
)

// Factory creates an Accessor configured with opts.
type Factory func(opts ...Option) (*Accessor, error)

// Registry maps file extensions to Accessor factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	ids       map[string]uint64
	lastID    uint64
	defaults  []Option
}

// NewRegistry creates an empty registry. The options are passed to every
// factory call before the caller's own options.
func NewRegistry(defaults ...Option) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		ids:       make(map[string]uint64),
		defaults:  defaults,
	}
}

// Register maps ext to factory. Extensions are case-insensitive and may
// carry a leading dot.
//
// Returns:
//   - func(): removes this mapping again; safe to call more than once, and
//     a no-op once ext has been registered anew
//   - error: ErrInvalidName or ErrDuplicateExtension
func (r *Registry) Register(ext string, factory Factory) (func(), error) {
	key := NormalizeExtension(ext)
	if key == "" || factory == nil {
		return nil, fmt.Errorf("%w: extension %q", errs.ErrInvalidName, ext)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[key]; ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateExtension, key)
	}
	r.factories[key] = factory
	r.lastID++
	id := r.lastID
	r.ids[key] = id

	var once sync.Once

	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()

			if r.ids[key] == id {
				r.deregisterLocked(key)
			}
		})
	}, nil
}

// RegisterBackend maps every extension of the backend built by newBackend.
// On failure nothing stays registered.
func (r *Registry) RegisterBackend(newBackend func() (Backend, error)) (func(), error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	factory := func(opts ...Option) (*Accessor, error) {
		b, err := newBackend()
		if err != nil {
			return nil, err
		}

		return New(b, opts...)
	}

	var undo []func()
	uninstall := func() {
		for _, u := range undo {
			u()
		}
	}
	for _, ext := range b.Extensions() {
		u, err := r.Register(ext, factory)
		if err != nil {
			uninstall()
			return nil, err
		}
		undo = append(undo, u)
	}

	return uninstall, nil
}

// Deregister removes the mapping for ext.
func (r *Registry) Deregister(ext string) error {
	key := NormalizeExtension(ext)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[key]; !ok {
		return fmt.Errorf("%w: %q", errs.ErrUnsupportedExtension, key)
	}
	r.deregisterLocked(key)

	return nil
}

func (r *Registry) deregisterLocked(key string) {
	delete(r.factories, key)
	delete(r.ids, key)
}

// ByExtension creates an Accessor for ext.
func (r *Registry) ByExtension(ext string, opts ...Option) (*Accessor, error) {
	key := NormalizeExtension(ext)

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedExtension, ext)
	}

	return factory(append(slices.Clone(r.defaults), opts...)...)
}

// SupportedExtensions returns the registered extensions in order.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.factories))
	for ext := range r.factories {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	return exts
}

// IsFileSupported reports whether an accessor is registered for the file
// extension.
func (r *Registry) IsFileSupported(fileName string) bool {
	key := NormalizeExtension(filepath.Ext(fileName))

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[key]

	return ok
}

// ReadFile picks the accessor for the file extension and reads fileName.
func (r *Registry) ReadFile(ctx context.Context, fileName string, opts ...ReadOption) (*Accessor, error) {
	a, err := r.ByExtension(filepath.Ext(fileName))
	if err != nil {
		return nil, err
	}
	if err := a.Read(ctx, fileName, opts...); err != nil {
		return nil, err
	}

	return a, nil
}

// ForFile creates an accessor for the file extension with FileName set,
// ready for Write.
func (r *Registry) ForFile(fileName string, opts ...Option) (*Accessor, error) {
	a, err := r.ByExtension(filepath.Ext(fileName), opts...)
	if err != nil {
		return nil, err
	}
	a.SetFileName(fileName)

	return a, nil
}
