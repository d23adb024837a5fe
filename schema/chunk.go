package schema

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/arloliu/mdata/errs"
)

// Chunk holds the data of one record: the packed block of numeric members
// and the string table.
//
// A Chunk may own its storage or be a view over a larger arena created with
// ChunkOver; writes through a view land in the arena.
type Chunk struct {
	data []byte
	strs []string
}

// ChunkOver wraps caller-owned storage without copying it.
func ChunkOver(data []byte, strs []string) *Chunk {
	return &Chunk{data: data, strs: strs}
}

// Bytes returns the packed block. It aliases the chunk's storage.
func (c *Chunk) Bytes() []byte {
	return c.data
}

// Strings returns the string table. It aliases the chunk's storage.
func (c *Chunk) Strings() []string {
	return c.strs
}

// Clone returns a deep copy that owns its storage.
func (c *Chunk) Clone() *Chunk {
	return &Chunk{data: slices.Clone(c.data), strs: slices.Clone(c.strs)}
}

// Equal reports whether both chunks hold the same bytes and strings.
func (c *Chunk) Equal(other *Chunk) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}

	return bytes.Equal(c.data, other.data) && slices.Equal(c.strs, other.strs)
}

// CopyFrom overwrites c with the content of src; both must have the same shape.
func (c *Chunk) CopyFrom(src *Chunk) {
	copy(c.data, src.data)
	copy(c.strs, src.strs)
}

// Fits reports whether c has the shape of records of s.
func (s *Structure) Fits(c *Chunk) bool {
	return c != nil && len(c.data) == s.TotalSize() && len(c.strs) == s.slots
}

func (s *Structure) checkFits(c *Chunk) error {
	if !s.Fits(c) {
		return fmt.Errorf("%w: chunk does not match structure %q", errs.ErrStructureMismatch, s.name)
	}

	return nil
}

// DefaultChunk returns the canonical default record. It is shared; do not
// modify it.
func (s *Structure) DefaultChunk() *Chunk {
	return s.defaultChunk
}

// AllocateDefaultChunk allocates a new record filled with defaults: zero for
// numeric members and "" for strings.
func (s *Structure) AllocateDefaultChunk() *Chunk {
	return &Chunk{
		data: make([]byte, s.TotalSize()),
		strs: make([]string, s.slots),
	}
}

// DuplicateChunk allocates a copy of src.
func (s *Structure) DuplicateChunk(src *Chunk) (*Chunk, error) {
	if err := s.checkFits(src); err != nil {
		return nil, err
	}

	return src.Clone(), nil
}

// FillWithDefaultChunk resets c to the default record, reshaping it if needed.
func (s *Structure) FillWithDefaultChunk(c *Chunk) {
	size := s.TotalSize()
	if cap(c.data) >= size {
		c.data = c.data[:size]
		clear(c.data)
	} else {
		c.data = make([]byte, size)
	}
	if cap(c.strs) >= s.slots {
		c.strs = c.strs[:s.slots]
		clear(c.strs)
	} else {
		c.strs = make([]string, s.slots)
	}
}

// FillWithDuplicateChunk overwrites dst with a copy of src.
func (s *Structure) FillWithDuplicateChunk(dst, src *Chunk) error {
	if err := s.checkFits(src); err != nil {
		return err
	}
	if err := s.checkFits(dst); err != nil {
		return err
	}
	dst.CopyFrom(src)

	return nil
}

// DestroyChunk releases the storage of c. A destroyed chunk fits no Structure
// with members.
func (s *Structure) DestroyChunk(c *Chunk) {
	if c == nil {
		return
	}
	clear(c.strs)
	c.data = nil
	c.strs = nil
}

// ChunkIsDefault reports whether every member of c holds its default value.
func (s *Structure) ChunkIsDefault(c *Chunk) bool {
	if !s.Fits(c) {
		return false
	}
	for _, b := range c.data {
		if b != 0 {
			return false
		}
	}
	for _, str := range c.strs {
		if str != "" {
			return false
		}
	}

	return true
}

// ChunkMemberIsDefault reports whether the named member of c holds its default value.
//
// Returns:
//   - bool: true when every element of the member is default
//   - error: ErrMemberNotFound or ErrStructureMismatch
func (s *Structure) ChunkMemberIsDefault(c *Chunk, memberName string) (bool, error) {
	m, ok := s.MemberByName(memberName)
	if !ok {
		return false, fmt.Errorf("%w: %q in structure %q", errs.ErrMemberNotFound, memberName, s.name)
	}
	if err := s.checkFits(c); err != nil {
		return false, err
	}

	return memberIsDefault(m, c), nil
}

func memberIsDefault(m Member, c *Chunk) bool {
	if m.typ == String {
		for _, str := range c.strs[m.offset : m.offset+m.length] {
			if str != "" {
				return false
			}
		}

		return true
	}
	for _, b := range c.data[m.offset : m.offset+m.ByteSize()] {
		if b != 0 {
			return false
		}
	}

	return true
}

// WidenChunk copies a record of a prefix Structure into a new record of s.
// Members that src does not hold keep their defaults.
func (s *Structure) WidenChunk(src *Chunk) *Chunk {
	c := s.AllocateDefaultChunk()
	copy(c.data, src.data)
	copy(c.strs, src.strs)

	return c
}
