package schema

import (
	"fmt"
	"iter"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/internal/hash"
)

// Structure is a named, ordered, append-only list of Members with a packed
// record layout.
//
// Structures are shared by pointer between every Stream and Handle that uses
// them. Add all members before sharing a Structure; AddMember is not safe to
// call concurrently with readers.
type Structure struct {
	name    string
	members []Member
	byName  map[string]int

	packed int // end of the last packed member
	align  int // largest member alignment
	slots  int // string table length

	defaultChunk *Chunk
}

// NewStructure creates an empty Structure.
func NewStructure(name string) *Structure {
	s := &Structure{
		name:   name,
		byName: make(map[string]int),
		align:  1,
	}
	s.defaultChunk = s.AllocateDefaultChunk()

	return s
}

func (s *Structure) Name() string {
	return s.name
}

// SetName renames the Structure. Renaming a registered Structure does not
// update the Registry key; deregister it first.
func (s *Structure) SetName(name string) {
	s.name = name
}

// AddMember appends a member and assigns its offset.
//
// The new member is placed at the first offset after the previous members
// that satisfies its alignment; earlier offsets never change.
//
// Parameters:
//   - typ: Element type
//   - length: Element count, at least 1
//   - name: Member name, unique within the Structure
//
// Returns:
//   - error: ErrDuplicateMember, ErrInvalidDataType, ErrInvalidLength or ErrInvalidName
func (s *Structure) AddMember(typ DataType, length int, name string) error {
	m, err := NewMember(typ, length, name)
	if err != nil {
		return err
	}
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("%w: %q in structure %q", errs.ErrDuplicateMember, name, s.name)
	}

	if typ == String {
		m.offset = s.slots
		s.slots += length
	} else {
		a := typ.Alignment()
		m.offset = alignUp(s.packed, a)
		s.packed = m.offset + m.ByteSize()
		if a > s.align {
			s.align = a
		}
	}

	s.byName[name] = len(s.members)
	s.members = append(s.members, m)
	s.defaultChunk = s.AllocateDefaultChunk()

	return nil
}

func alignUp(n, a int) int {
	return (n + a - 1) / a * a
}

// TotalSize returns the size of the packed block of one record, padded to the
// largest member alignment so records can be stored back to back.
func (s *Structure) TotalSize() int {
	return alignUp(s.packed, s.align)
}

// Alignment returns the largest member alignment.
func (s *Structure) Alignment() int {
	return s.align
}

// StringSlots returns the length of one record's string table.
func (s *Structure) StringSlots() int {
	return s.slots
}

// Len returns the number of members.
func (s *Structure) Len() int {
	return len(s.members)
}

func (s *Structure) Empty() bool {
	return len(s.members) == 0
}

// Member returns the member at position i.
func (s *Structure) Member(i int) (Member, bool) {
	if i < 0 || i >= len(s.members) {
		return Member{}, false
	}

	return s.members[i], true
}

// MemberByName returns the member with the given name.
func (s *Structure) MemberByName(name string) (Member, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Member{}, false
	}

	return s.members[i], true
}

// MemberIndex returns the position of the named member, or -1.
func (s *Structure) MemberIndex(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}

	return -1
}

// Members iterates members in the order they were added.
func (s *Structure) Members() iter.Seq2[int, Member] {
	return func(yield func(int, Member) bool) {
		for i, m := range s.members {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Equal reports whether both structures have the same name and member list.
func (s *Structure) Equal(other *Structure) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.name != other.name || len(s.members) != len(other.members) {
		return false
	}
	for i := range s.members {
		if s.members[i] != other.members[i] {
			return false
		}
	}

	return true
}

// IsPrefixOf reports whether other starts with every member of s, in order,
// so records of s can be widened into records of other.
func (s *Structure) IsPrefixOf(other *Structure) bool {
	if s == nil || other == nil || len(s.members) > len(other.members) {
		return false
	}
	for i := range s.members {
		if s.members[i] != other.members[i] {
			return false
		}
	}

	return true
}

// Fingerprint returns an xxHash64 of the name and member layout.
func (s *Structure) Fingerprint() uint64 {
	d := hash.NewDigest().String(s.name).Uint(uint64(len(s.members)))
	for _, m := range s.members {
		d.Uint(uint64(m.typ)).Uint(uint64(m.length)).String(m.name)
	}

	return d.Sum64()
}

// Clone returns an unregistered copy of s, for building an extended
// Structure without touching the original.
func (s *Structure) Clone(name string) *Structure {
	c := NewStructure(name)
	for _, m := range s.members {
		_ = c.AddMember(m.typ, m.length, m.name)
	}

	return c
}

func (s *Structure) String() string {
	return fmt.Sprintf("Structure(%s, %d members, %d bytes, %d strings)", s.name, len(s.members), s.TotalSize(), s.slots)
}
