// Package index defines the keys that address elements of a Stream.
//
// An Index is a small tagged variant. The builtin kinds are a plain unsigned
// integer (type name "Index"), a pair of integers ("IndexPair") and a string
// ("IndexString"). Other kinds plug in through the Type interface and a
// Creator registered in a Registry.
//
// Indices of one kind are totally ordered: integers numerically, pairs by
// first then second value, strings bytewise. Indices of different kinds
// order by kind, and custom kinds with different type names by name, so any
// two indices can be compared.
//
// Index values are cheap to copy. Builtin indices are comparable with ==;
// indices wrapping a custom Type must be compared with Equal.
package index

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Builtin type names.
const (
	SimpleTypeName = "Index"
	PairTypeName   = "IndexPair"
	StringTypeName = "IndexString"
)

// Count is the value type of a simple index.
type Count = uint32

// Kind tags the variant held by an Index.
type Kind uint8

const (
	KindSimple Kind = iota
	KindPair
	KindString
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "Simple"
	case KindPair:
		return "Pair"
	case KindString:
		return "String"
	case KindCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Type is implemented by user-defined index kinds.
//
// Implementations must be immutable; an Index shares its Type value with
// every copy of the Index.
type Type interface {
	// TypeName returns the registered name of the kind.
	TypeName() string
	// AsString returns the text form accepted by the kind's Creator.
	AsString() string
	// Compare orders two values of the same kind, returning -1, 0 or +1.
	Compare(other Type) int
	// Clone returns an independent copy.
	Clone() Type
}

// Index addresses one element of a Stream. The zero value is Simple(0).
type Index struct {
	kind   Kind
	first  uint32
	second uint32
	str    string
	custom Type
}

// Simple returns an integer index.
func Simple(n Count) Index {
	return Index{kind: KindSimple, first: n}
}

// Pair returns a pair index ordered by first, then second.
func Pair(first, second uint32) Index {
	return Index{kind: KindPair, first: first, second: second}
}

// String returns a string index.
func String(s string) Index {
	return Index{kind: KindString, str: s}
}

// FromType wraps a custom index value.
func FromType(t Type) Index {
	return Index{kind: KindCustom, custom: t}
}

// Kind returns the variant tag.
func (i Index) Kind() Kind {
	return i.kind
}

// IsComplex reports whether i is anything but a simple integer index.
func (i Index) IsComplex() bool {
	return i.kind != KindSimple
}

// Count returns the value of a simple index, or 0 for other kinds.
func (i Index) Count() Count {
	if i.kind != KindSimple {
		return 0
	}

	return i.first
}

// PairValues returns both values of a pair index.
func (i Index) PairValues() (uint32, uint32) {
	return i.first, i.second
}

// StringValue returns the value of a string index.
func (i Index) StringValue() string {
	return i.str
}

// Complex returns the custom Type of a custom index, or nil.
func (i Index) Complex() Type {
	return i.custom
}

// TypeName returns the name of the index kind.
func (i Index) TypeName() string {
	switch i.kind {
	case KindSimple:
		return SimpleTypeName
	case KindPair:
		return PairTypeName
	case KindString:
		return StringTypeName
	default:
		if i.custom == nil {
			return ""
		}

		return i.custom.TypeName()
	}
}

// AsString returns the text form accepted by the kind's Creator.
func (i Index) AsString() string {
	switch i.kind {
	case KindSimple:
		return strconv.FormatUint(uint64(i.first), 10)
	case KindPair:
		return strconv.FormatUint(uint64(i.first), 10) + "," + strconv.FormatUint(uint64(i.second), 10)
	case KindString:
		return i.str
	default:
		if i.custom == nil {
			return ""
		}

		return i.custom.AsString()
	}
}

func (i Index) String() string {
	return fmt.Sprintf("%s(%s)", i.TypeName(), i.AsString())
}

// Clone returns a copy of i whose custom value, if any, is cloned too.
func (i Index) Clone() Index {
	if i.kind == KindCustom && i.custom != nil {
		i.custom = i.custom.Clone()
	}

	return i
}

// Compare returns -1, 0 or +1 as i orders before, equal to or after other.
func (i Index) Compare(other Index) int {
	if i.kind != other.kind {
		return cmp.Compare(i.kind, other.kind)
	}

	switch i.kind {
	case KindSimple:
		return cmp.Compare(i.first, other.first)
	case KindPair:
		if c := cmp.Compare(i.first, other.first); c != 0 {
			return c
		}

		return cmp.Compare(i.second, other.second)
	case KindString:
		return strings.Compare(i.str, other.str)
	default:
		return compareCustom(i.custom, other.custom)
	}
}

func compareCustom(a, b Type) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := strings.Compare(a.TypeName(), b.TypeName()); c != 0 {
		return c
	}

	return cmp.Compare(a.Compare(b), 0)
}

// Equal reports whether i and other denote the same index.
func (i Index) Equal(other Index) bool {
	return i.Compare(other) == 0
}

// Less reports whether i orders before other.
func (i Index) Less(other Index) bool {
	return i.Compare(other) < 0
}

// SameType reports whether i and other share one index-type identity.
func (i Index) SameType(other Index) bool {
	return i.TypeName() == other.TypeName()
}
