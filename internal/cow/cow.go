// Package cow implements explicit copy-on-write sharing of a value between
// several owners.
//
// A Ref points at a body plus a counter shared by every Ref created from it
// with Share. Readers use Get freely. A writer calls MakeUnique first; when the
// body has other owners it is cloned and this Ref detaches onto the copy.
package cow

import "sync/atomic"

type body[T any] struct {
	value *T
	refs  atomic.Int64
}

// Ref is one owner's claim on a shared value. The zero Ref is empty.
type Ref[T any] struct {
	b *body[T]
}

// New wraps v in a Ref with a single owner.
func New[T any](v *T) Ref[T] {
	b := &body[T]{value: v}
	b.refs.Store(1)

	return Ref[T]{b: b}
}

// Get returns the shared value. Callers must not mutate it unless they
// called MakeUnique first.
func (r Ref[T]) Get() *T {
	if r.b == nil {
		return nil
	}

	return r.b.value
}

// Valid reports whether r holds a value.
func (r Ref[T]) Valid() bool {
	return r.b != nil
}

// Share returns a new owner of the same value.
func (r Ref[T]) Share() Ref[T] {
	if r.b != nil {
		r.b.refs.Add(1)
	}

	return Ref[T]{b: r.b}
}

// Release drops this owner's claim and empties r.
func (r *Ref[T]) Release() {
	if r.b == nil {
		return
	}
	r.b.refs.Add(-1)
	r.b = nil
}

// Owners returns the number of Refs currently sharing the value.
func (r Ref[T]) Owners() int64 {
	if r.b == nil {
		return 0
	}

	return r.b.refs.Load()
}

// IsShared reports whether another Ref shares the value.
func (r Ref[T]) IsShared() bool {
	return r.Owners() > 1
}

// MakeUnique detaches r onto a private copy made with clone when the value
// is shared. It reports whether a copy was made.
func (r *Ref[T]) MakeUnique(clone func(*T) *T) bool {
	if r.b == nil || r.b.refs.Load() <= 1 {
		return false
	}
	old := r.b
	*r = New(clone(old.value))
	old.refs.Add(-1)

	return true
}
