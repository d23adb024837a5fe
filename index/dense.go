package index

import (
	"fmt"
	"math"

	"github.com/arloliu/mdata/errs"
)

// DenseType is implemented by custom kinds that can be packed into an array.
type DenseType interface {
	Type
	// DenseSpaceBetween returns how many index steps lead from the receiver
	// to other; other must not order before the receiver.
	DenseSpaceBetween(other Type) (uint64, error)
	// Advance returns the value n steps after the receiver.
	Advance(n uint64) (Type, error)
}

// SupportsDenseMode reports whether indices of this kind can address a
// packed array. Simple and pair indices can; string indices cannot.
func (i Index) SupportsDenseMode() bool {
	switch i.kind {
	case KindSimple, KindPair:
		return true
	case KindCustom:
		_, ok := i.custom.(DenseType)
		return ok
	default:
		return false
	}
}

// position maps simple and pair indices onto one linear space.
func (i Index) position() uint64 {
	if i.kind == KindPair {
		return uint64(i.first)<<32 | uint64(i.second)
	}

	return uint64(i.first)
}

// DenseSpaceBetween returns how many index steps lead from i to other.
// A stream holding every index in [i, other] needs DenseSpaceBetween + 1 slots.
//
// Returns:
//   - uint64: number of steps
//   - error: ErrIndexTypeMismatch, ErrDenseUnsupported, or ErrOutOfRange when
//     other orders before i
func (i Index) DenseSpaceBetween(other Index) (uint64, error) {
	if !i.SameType(other) {
		return 0, fmt.Errorf("%w: %s and %s", errs.ErrIndexTypeMismatch, i.TypeName(), other.TypeName())
	}
	if !i.SupportsDenseMode() {
		return 0, fmt.Errorf("%w: %s", errs.ErrDenseUnsupported, i.TypeName())
	}
	if other.Less(i) {
		return 0, fmt.Errorf("%w: %s orders before %s", errs.ErrOutOfRange, other, i)
	}

	if i.kind == KindCustom {
		dt, _ := i.custom.(DenseType)
		return dt.DenseSpaceBetween(other.custom)
	}

	return other.position() - i.position(), nil
}

// Advance returns the index n steps after i.
func (i Index) Advance(n uint64) (Index, error) {
	if !i.SupportsDenseMode() {
		return Index{}, fmt.Errorf("%w: %s", errs.ErrDenseUnsupported, i.TypeName())
	}

	switch i.kind {
	case KindSimple:
		if n > math.MaxUint32-uint64(i.first) {
			return Index{}, fmt.Errorf("%w: %s + %d", errs.ErrOutOfRange, i, n)
		}

		return Simple(i.first + uint32(n)), nil //nolint:gosec
	case KindPair:
		pos := i.position()
		if n > math.MaxUint64-pos {
			return Index{}, fmt.Errorf("%w: %s + %d", errs.ErrOutOfRange, i, n)
		}
		pos += n

		return Pair(uint32(pos>>32), uint32(pos)), nil //nolint:gosec
	default:
		dt, _ := i.custom.(DenseType)
		t, err := dt.Advance(n)
		if err != nil {
			return Index{}, err
		}

		return FromType(t), nil
	}
}
