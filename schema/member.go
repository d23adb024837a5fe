package schema

import (
	"fmt"

	"github.com/arloliu/mdata/errs"
)

// InvalidOffset is the offset of a Member that has not joined a Structure.
const InvalidOffset = -1

// Member describes one named, typed, fixed-length field of a Structure.
//
// Members are values; a Member obtained from a Structure is a copy and
// cannot change the Structure's layout.
type Member struct {
	typ    DataType
	name   string
	length int
	offset int
}

// NewMember creates a freestanding member with InvalidOffset.
//
// Parameters:
//   - typ: Element type
//   - length: Element count, at least 1
//   - name: Member name, not empty
//
// Returns:
//   - Member: The new member
//   - error: ErrInvalidDataType, ErrInvalidLength or ErrInvalidName
func NewMember(typ DataType, length int, name string) (Member, error) {
	if !typ.IsValid() {
		return Member{}, fmt.Errorf("%w: %d", errs.ErrInvalidDataType, typ)
	}
	if length < 1 {
		return Member{}, fmt.Errorf("%w: %d for member %q", errs.ErrInvalidLength, length, name)
	}
	if name == "" {
		return Member{}, fmt.Errorf("%w: empty member name", errs.ErrInvalidName)
	}

	return Member{typ: typ, name: name, length: length, offset: InvalidOffset}, nil
}

func (m Member) Type() DataType {
	return m.typ
}

func (m Member) Name() string {
	return m.name
}

// Length returns the element count.
func (m Member) Length() int {
	return m.length
}

// Offset returns the byte offset of the first element, or for String members
// the first string slot. It is InvalidOffset for freestanding members.
func (m Member) Offset() int {
	return m.offset
}

// ElementOffset returns the offset of element dim.
func (m Member) ElementOffset(dim int) int {
	if m.typ == String {
		return m.offset + dim
	}

	return m.offset + dim*m.typ.Size()
}

// ByteSize returns the bytes the member occupies in the packed block.
func (m Member) ByteSize() int {
	return m.length * m.typ.Size()
}

// Equal reports whether two members have the same type, name, length and offset.
func (m Member) Equal(other Member) bool {
	return m == other
}

func (m Member) String() string {
	return fmt.Sprintf("%s %s[%d]", m.typ, m.name, m.length)
}
