package index

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/internal/options"
)

// Creator parses the text form of one index kind.
//
// It returns the parsed Index and the number of bytes of value it consumed.
// Registry.Create reports unconsumed trailing data as errs.ErrExcessData.
type Creator func(value string) (Index, int, error)

// Registry maps index type names to Creators.
type Registry struct {
	mu         sync.RWMutex
	creators   map[string]Creator
	noBuiltins bool
}

// Option configures a Registry.
type Option = options.Option[*Registry]

// WithoutBuiltins leaves out the builtin Index, IndexPair and IndexString kinds.
func WithoutBuiltins() Option {
	return options.NoError(func(r *Registry) {
		r.noBuiltins = true
	})
}

// NewRegistry creates a Registry. The builtin kinds are registered unless
// WithoutBuiltins is given.
//
// Parameters:
//   - opts: Registry options
//
// Returns:
//   - *Registry: The new registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{creators: make(map[string]Creator)}
	_ = options.Apply(r, opts...)
	if !r.noBuiltins {
		r.creators[SimpleTypeName] = createSimple
		r.creators[PairTypeName] = createPair
		r.creators[StringTypeName] = createString
	}

	return r
}

// Register adds a creator for typeName.
//
// Returns:
//   - error: ErrInvalidName for an empty name or nil creator,
//     ErrDuplicateIndexType when typeName is taken
func (r *Registry) Register(typeName string, creator Creator) error {
	if typeName == "" || creator == nil {
		return fmt.Errorf("%w: index type %q", errs.ErrInvalidName, typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creators[typeName]; ok {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateIndexType, typeName)
	}
	r.creators[typeName] = creator

	return nil
}

// Deregister removes the creator for typeName.
func (r *Registry) Deregister(typeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creators[typeName]; !ok {
		return fmt.Errorf("%w: %q", errs.ErrNoCreator, typeName)
	}
	delete(r.creators, typeName)

	return nil
}

// Creator returns the creator registered for typeName.
func (r *Registry) Creator(typeName string) (Creator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.creators[typeName]

	return c, ok
}

// Has reports whether typeName is registered.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.Creator(typeName)
	return ok
}

// TypeNames returns every registered type name, sorted.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)

	return names
}

// Create parses value as an index of kind typeName.
//
// Returns:
//   - Index: The parsed index
//   - error: ErrNoCreator when typeName is unknown, ErrBadSyntax when the
//     creator rejects value, ErrExcessData when value has unconsumed,
//     non-blank trailing data
func (r *Registry) Create(typeName, value string) (Index, error) {
	creator, ok := r.Creator(typeName)
	if !ok {
		return Index{}, fmt.Errorf("%w: %q", errs.ErrNoCreator, typeName)
	}

	idx, consumed, err := creator(value)
	if err != nil {
		return Index{}, fmt.Errorf("%w: %s %q: %v", errs.ErrBadSyntax, typeName, value, err)
	}
	if consumed < 0 || consumed > len(value) {
		return Index{}, fmt.Errorf("%w: %s creator consumed %d of %d bytes", errs.ErrBadSyntax, typeName, consumed, len(value))
	}
	if rest := value[consumed:]; strings.TrimSpace(rest) != "" {
		return Index{}, fmt.Errorf("%w: %q after %s %q", errs.ErrExcessData, rest, typeName, value[:consumed])
	}

	return idx, nil
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && unicode.IsSpace(rune(s[pos])) {
		pos++
	}

	return pos
}

// scanUint32 parses the decimal digits starting at pos.
func scanUint32(s string, pos int) (uint32, int, error) {
	end := pos
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == pos {
		return 0, pos, fmt.Errorf("expected digits at offset %d", pos)
	}
	v, err := strconv.ParseUint(s[pos:end], 10, 32)
	if err != nil {
		return 0, pos, err
	}

	return uint32(v), end, nil
}

func createSimple(value string) (Index, int, error) {
	v, end, err := scanUint32(value, skipSpace(value, 0))
	if err != nil {
		return Index{}, 0, err
	}

	return Simple(v), end, nil
}

func createPair(value string) (Index, int, error) {
	first, pos, err := scanUint32(value, skipSpace(value, 0))
	if err != nil {
		return Index{}, 0, err
	}
	pos = skipSpace(value, pos)
	if pos >= len(value) || value[pos] != ',' {
		return Index{}, 0, fmt.Errorf("expected ',' at offset %d", pos)
	}
	second, end, err := scanUint32(value, skipSpace(value, pos+1))
	if err != nil {
		return Index{}, 0, err
	}

	return Pair(first, second), end, nil
}

func createString(value string) (Index, int, error) {
	return String(value), len(value), nil
}
