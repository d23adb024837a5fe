package schema

import (
	"fmt"

	"github.com/arloliu/mdata/errs"
)

// Handle is a typed view onto one record, positioned at one member of its
// Structure.
//
// A Handle either owns its Chunk (freestanding handles) or borrows it (handles
// into a Stream's storage). Writes through a borrowed handle change the record
// in place. A Handle must not outlive the Structure it is bound to.
type Handle struct {
	structure *Structure
	pos       int
	chunk     *Chunk
	owns      bool
}

// NewHandle creates a handle owning a fresh default record of s, positioned
// at the first member.
func NewHandle(s *Structure) *Handle {
	return &Handle{structure: s, chunk: s.AllocateDefaultChunk(), owns: true}
}

// NewHandleOn creates a handle borrowing chunk, positioned at the first member.
func NewHandleOn(s *Structure, chunk *Chunk) *Handle {
	return &Handle{structure: s, chunk: chunk}
}

// Structure returns the bound Structure.
func (h *Handle) Structure() *Structure {
	return h.structure
}

// Chunk returns the record the handle points at.
func (h *Handle) Chunk() *Chunk {
	return h.chunk
}

// OwnsData reports whether the handle owns its record.
func (h *Handle) OwnsData() bool {
	return h.owns
}

// Position returns the index of the positioned member.
func (h *Handle) Position() int {
	return h.pos
}

// SetPositionByMemberIndex positions the handle at member i. On failure the
// position is unchanged.
func (h *Handle) SetPositionByMemberIndex(i int) error {
	if i < 0 || i >= h.structure.Len() {
		return fmt.Errorf("%w: member index %d of structure %q", errs.ErrOutOfRange, i, h.structure.Name())
	}
	h.pos = i

	return nil
}

// SetPositionByMemberName positions the handle at the named member. On
// failure the position is unchanged.
func (h *Handle) SetPositionByMemberName(name string) error {
	i := h.structure.MemberIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %q in structure %q", errs.ErrMemberNotFound, name, h.structure.Name())
	}
	h.pos = i

	return nil
}

// Member returns the positioned member. It panics when the Structure has no members.
func (h *Handle) Member() Member {
	m, ok := h.structure.Member(h.pos)
	if !ok {
		panic(fmt.Sprintf("schema: handle on structure %q has no member at position %d", h.structure.Name(), h.pos))
	}

	return m
}

// DataType returns the type of the positioned member.
func (h *Handle) DataType() DataType {
	m, ok := h.structure.Member(h.pos)
	if !ok {
		return InvalidType
	}

	return m.typ
}

// DataLength returns the element count of the positioned member.
func (h *Handle) DataLength() int {
	m, ok := h.structure.Member(h.pos)
	if !ok {
		return 0
	}

	return m.length
}

// PointToData rebinds the handle to chunk. A previously owned record is
// destroyed first.
func (h *Handle) PointToData(chunk *Chunk, owns bool) {
	if h.owns && h.chunk != nil && h.chunk != chunk {
		h.structure.DestroyChunk(h.chunk)
	}
	h.chunk = chunk
	h.owns = owns
}

// Swap exchanges the state of two handles.
func (h *Handle) Swap(other *Handle) {
	*h, *other = *other, *h
}

// MakeUnique gives the handle a private copy of a borrowed record.
// It reports whether a copy was made.
func (h *Handle) MakeUnique() bool {
	if h.owns || h.chunk == nil {
		return false
	}
	h.chunk = h.chunk.Clone()
	h.owns = true

	return true
}

// Copy returns an owning handle with a copy of the record at the same position.
func (h *Handle) Copy() *Handle {
	c := &Handle{structure: h.structure, pos: h.pos, owns: true}
	if h.chunk != nil {
		c.chunk = h.chunk.Clone()
	}

	return c
}

// HasData reports whether the handle points at a record.
func (h *Handle) HasData() bool {
	return h.chunk != nil
}

// IsDefault reports whether the whole record holds default values.
func (h *Handle) IsDefault() bool {
	return h.chunk != nil && h.structure.ChunkIsDefault(h.chunk)
}

// IsDefaultMember reports whether the named member holds its default value.
func (h *Handle) IsDefaultMember(name string) (bool, error) {
	if h.chunk == nil {
		return false, errs.ErrNoHandleData
	}

	return h.structure.ChunkMemberIsDefault(h.chunk, name)
}

// UsesStructure reports whether the handle is bound to s or to a Structure
// with an identical layout.
func (h *Handle) UsesStructure(s *Structure) bool {
	return h.structure == s || h.structure.Equal(s)
}

// Reset restores the record to its default values.
func (h *Handle) Reset() {
	if h.chunk == nil {
		h.chunk = h.structure.AllocateDefaultChunk()
		h.owns = true

		return
	}
	h.structure.FillWithDefaultChunk(h.chunk)
}
