package serial

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/arloliu/mdata/errs"
)

// FormatSet is a registry of serializers of one layer keyed by format name.
// The first registered format becomes the default.
type FormatSet[T Format] struct {
	mu      sync.RWMutex
	formats map[string]T
	ids     map[string]uint64
	lastID  uint64
	def     string
}

// NewFormatSet creates an empty set.
func NewFormatSet[T Format]() *FormatSet[T] {
	return &FormatSet[T]{formats: make(map[string]T), ids: make(map[string]uint64)}
}

// Register adds f under f.FormatType().
//
// Returns:
//   - func(): removes f again; safe to call more than once, and a no-op
//     once another format holds the name
//   - error: ErrInvalidName or ErrDuplicateFormat
func (s *FormatSet[T]) Register(f T) (func(), error) {
	name := f.FormatType()
	if name == "" {
		return nil, fmt.Errorf("%w: empty format name", errs.ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.formats[name]; ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateFormat, name)
	}
	s.formats[name] = f
	s.lastID++
	id := s.lastID
	s.ids[name] = id
	if s.def == "" {
		s.def = name
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if s.ids[name] == id {
				s.deregisterLocked(name)
			}
		})
	}, nil
}

// Deregister removes the named format. Removing the default promotes the
// first remaining format by name.
func (s *FormatSet[T]) Deregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.formats[name]; !ok {
		return fmt.Errorf("%w: %q", errs.ErrFormatNotFound, name)
	}
	s.deregisterLocked(name)

	return nil
}

func (s *FormatSet[T]) deregisterLocked(name string) {
	delete(s.formats, name)
	delete(s.ids, name)
	if s.def == name {
		s.def = ""
		if names := s.namesLocked(); len(names) > 0 {
			s.def = names[0]
		}
	}
}

// ByName returns the named format.
func (s *FormatSet[T]) ByName(name string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.formats[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", errs.ErrFormatNotFound, name)
	}

	return f, nil
}

// Default returns the default format.
func (s *FormatSet[T]) Default() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.formats[s.def]

	return f, ok
}

// SetDefault selects the default format.
func (s *FormatSet[T]) SetDefault(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.formats[name]; !ok {
		return fmt.Errorf("%w: %q", errs.ErrFormatNotFound, name)
	}
	s.def = name

	return nil
}

// Names returns the registered format names in order.
func (s *FormatSet[T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.namesLocked()
}

func (s *FormatSet[T]) namesLocked() []string {
	names := make([]string, 0, len(s.formats))
	for name := range s.formats {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// All returns the registered formats ordered by name.
func (s *FormatSet[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.formats))
	for _, name := range s.namesLocked() {
		out = append(out, s.formats[name])
	}

	return out
}

// Len returns the number of registered formats.
func (s *FormatSet[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.formats)
}

// Registry holds one FormatSet per layer.
type Registry struct {
	Structures   *FormatSet[StructureSerializer]
	Streams      *FormatSet[StreamSerializer]
	Channels     *FormatSet[ChannelSerializer]
	Associations *FormatSet[AssociationsSerializer]
}

// NewRegistry creates a registry with no formats.
func NewRegistry() *Registry {
	return &Registry{
		Structures:   NewFormatSet[StructureSerializer](),
		Streams:      NewFormatSet[StreamSerializer](),
		Channels:     NewFormatSet[ChannelSerializer](),
		Associations: NewFormatSet[AssociationsSerializer](),
	}
}

// Serializers bundles the layer serializers of one format. Nil fields are
// skipped.
type Serializers struct {
	Structure    StructureSerializer
	Stream       StreamSerializer
	Channel      ChannelSerializer
	Associations AssociationsSerializer
}

// Install registers every serializer of a format. On failure nothing stays
// registered.
//
// Returns:
//   - func(): removes every installed serializer
//   - error: the first registration failure
func (r *Registry) Install(set Serializers) (func(), error) {
	var undo []func()
	uninstall := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
	add := func(d func(), err error) error {
		if err != nil {
			return err
		}
		undo = append(undo, d)

		return nil
	}

	var err error
	if set.Structure != nil {
		err = add(r.Structures.Register(set.Structure))
	}
	if err == nil && set.Stream != nil {
		err = add(r.Streams.Register(set.Stream))
	}
	if err == nil && set.Channel != nil {
		err = add(r.Channels.Register(set.Channel))
	}
	if err == nil && set.Associations != nil {
		err = add(r.Associations.Register(set.Associations))
	}
	if err != nil {
		uninstall()
		return nil, err
	}

	return uninstall, nil
}

// Formats returns every format name known to any layer, in order.
func (r *Registry) Formats() []string {
	seen := make(map[string]struct{})
	for _, names := range [][]string{
		r.Structures.Names(), r.Streams.Names(), r.Channels.Names(), r.Associations.Names(),
	} {
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.SortFunc(out, strings.Compare)

	return out
}

// Describe returns the description of the named format from the first layer
// that knows it.
func (r *Registry) Describe(name string) string {
	if f, err := r.Structures.ByName(name); err == nil {
		return f.Description()
	}
	if f, err := r.Streams.ByName(name); err == nil {
		return f.Description()
	}
	if f, err := r.Channels.ByName(name); err == nil {
		return f.Description()
	}
	if f, err := r.Associations.ByName(name); err == nil {
		return f.Description()
	}

	return ""
}
