package assoc

import (
	"fmt"
	"iter"
	"slices"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/cow"
	"github.com/arloliu/mdata/schema"
)

// MaxDenseElements bounds the element range of densely stored streams.
const MaxDenseElements = 1 << 24

type sparseEntry struct {
	idx   index.Index
	chunk *schema.Chunk
}

type streamBody struct {
	name        string
	structure   *schema.Structure
	indexType   string
	useDefaults bool

	// sparse storage, sorted by index
	entries []sparseEntry

	// dense storage over [first, last]
	dense    bool
	hasRange bool
	first    index.Index
	last     index.Index
	arena    []byte
	strs     []string
	present  []bool
	count    int
}

func (b *streamBody) clone() *streamBody {
	c := *b
	if b.entries != nil {
		c.entries = make([]sparseEntry, len(b.entries))
		for i, e := range b.entries {
			c.entries[i] = sparseEntry{idx: e.idx.Clone(), chunk: e.chunk.Clone()}
		}
	}
	c.arena = slices.Clone(b.arena)
	c.strs = slices.Clone(b.strs)
	c.present = slices.Clone(b.present)

	return &c
}

// Stream is a named, indexed collection of records sharing one Structure.
type Stream struct {
	ref cow.Ref[streamBody]
}

// NewStream creates an empty, sparse stream indexed by simple indices.
func NewStream(structure *schema.Structure, name string) *Stream {
	return &Stream{ref: cow.New(&streamBody{
		name:      name,
		structure: structure,
		indexType: index.SimpleTypeName,
	})}
}

// NewDenseStream creates a stream of length default records at simple
// indices [0, length) in packed storage. A zero length yields an empty sparse
// stream.
func NewDenseStream(structure *schema.Structure, name string, length uint32) (*Stream, error) {
	s := NewStream(structure, name)
	if length == 0 {
		return s, nil
	}
	if err := s.SetElementRange(index.Simple(0), index.Simple(length-1)); err != nil {
		return nil, err
	}
	if err := s.UseDenseStorage(true); err != nil {
		return nil, err
	}

	b := s.mut()
	for slot := range b.present {
		b.present[slot] = true
	}
	b.count = len(b.present)

	return s, nil
}

func (s *Stream) body() *streamBody {
	return s.ref.Get()
}

// mut detaches the stream from other owners before a write.
func (s *Stream) mut() *streamBody {
	s.ref.MakeUnique((*streamBody).clone)
	return s.ref.Get()
}

// Share returns another handle over the same records.
func (s *Stream) Share() *Stream {
	return &Stream{ref: s.ref.Share()}
}

// Release drops this handle's claim on the shared records. The stream must
// not be used afterwards.
func (s *Stream) Release() {
	s.ref.Release()
}

// IsShared reports whether another handle shares the records.
func (s *Stream) IsShared() bool {
	return s.ref.IsShared()
}

// MakeUnique gives the stream a private deep copy of shared records.
// It reports whether a copy was made.
func (s *Stream) MakeUnique() bool {
	return s.ref.MakeUnique((*streamBody).clone)
}

// deepCopy returns an unshared stream with copies of every record.
func (s *Stream) deepCopy() *Stream {
	return &Stream{ref: cow.New(s.body().clone())}
}

// Name returns the stream name. Streams are renamed through their Channel.
func (s *Stream) Name() string {
	return s.body().name
}

func (s *Stream) setName(name string) {
	s.mut().name = name
}

// Structure returns the layout of every record.
func (s *Stream) Structure() *schema.Structure {
	return s.body().structure
}

// IndexType returns the type name every index of the stream must have.
func (s *Stream) IndexType() string {
	return s.body().indexType
}

// SetIndexType changes the index type of an empty stream. The element range
// and dense mode are reset.
func (s *Stream) SetIndexType(typeName string) error {
	if typeName == "" {
		return fmt.Errorf("%w: empty index type", errs.ErrInvalidName)
	}
	b := s.body()
	if b.indexType == typeName {
		return nil
	}
	if b.count > 0 || len(b.entries) > 0 {
		return fmt.Errorf("%w: stream %q", errs.ErrStreamNotEmpty, b.name)
	}

	b = s.mut()
	b.indexType = typeName
	b.dense = false
	b.hasRange = false
	b.arena, b.strs, b.present = nil, nil, nil

	return nil
}

// SetStructure replaces the record layout. A non-empty stream accepts only a
// Structure its current one is a prefix of; existing records are widened and
// the appended members take their defaults.
func (s *Stream) SetStructure(structure *schema.Structure) error {
	b := s.body()
	if structure == b.structure {
		return nil
	}
	if b.elementCount() > 0 && !b.structure.Equal(structure) && !b.structure.IsPrefixOf(structure) {
		return fmt.Errorf("%w: %q cannot replace %q in stream %q",
			errs.ErrIncompatibleStructure, structure.Name(), b.structure.Name(), b.name)
	}

	b = s.mut()
	old := b.structure
	b.structure = structure
	if old.Equal(structure) {
		return nil
	}

	for i := range b.entries {
		b.entries[i].chunk = structure.WidenChunk(b.entries[i].chunk)
	}
	if b.dense && b.hasRange {
		oldArena, oldStrs, present := b.arena, b.strs, b.present
		b.allocDense(len(present))
		b.present = present
		for slot, ok := range present {
			if ok {
				src := chunkView(old, oldArena, oldStrs, slot)
				b.view(slot).CopyFrom(structure.WidenChunk(src))
			}
		}
	}

	return nil
}

// UseDefaults reports whether default records are elided.
func (s *Stream) UseDefaults() bool {
	return s.body().useDefaults
}

// SetUseDefaults enables default elision. When enabled, SetElement drops
// records equal to the Structure default and Element reports a default record
// for missing indices.
func (s *Stream) SetUseDefaults(use bool) {
	if s.body().useDefaults == use {
		return
	}
	s.mut().useDefaults = use
}

// ElementCount returns the number of stored records.
func (s *Stream) ElementCount() int {
	return s.body().elementCount()
}

func (b *streamBody) elementCount() int {
	if b.dense {
		return b.count
	}

	return len(b.entries)
}

// Empty reports whether the stream stores no records.
func (s *Stream) Empty() bool {
	return s.ElementCount() == 0
}

// Clear removes every record, keeping the structure, index type, range and
// storage mode.
func (s *Stream) Clear() {
	if s.Empty() {
		return
	}
	b := s.mut()
	b.entries = nil
	clear(b.arena)
	clear(b.strs)
	clear(b.present)
	b.count = 0
}

func (b *streamBody) checkIndex(idx index.Index) error {
	if idx.TypeName() != b.indexType {
		return fmt.Errorf("%w: %s index in stream %q of %s", errs.ErrIndexTypeMismatch, idx.TypeName(), b.name, b.indexType)
	}

	return nil
}

func (b *streamBody) search(idx index.Index) (int, bool) {
	return slices.BinarySearchFunc(b.entries, idx, func(e sparseEntry, t index.Index) int {
		return e.idx.Compare(t)
	})
}

// lookup returns the stored record at idx or nil.
func (b *streamBody) lookup(idx index.Index) *schema.Chunk {
	if b.dense {
		slot, ok := b.slotOf(idx)
		if !ok || !b.present[slot] {
			return nil
		}

		return b.view(slot)
	}
	i, ok := b.search(idx)
	if !ok {
		return nil
	}

	return b.entries[i].chunk
}

func (b *streamBody) store(idx index.Index, src *schema.Chunk) error {
	if b.dense {
		slot, err := b.ensureSlot(idx)
		if err != nil {
			return err
		}
		b.view(slot).CopyFrom(src)
		if !b.present[slot] {
			b.present[slot] = true
			b.count++
		}

		return nil
	}

	i, ok := b.search(idx)
	if ok {
		b.entries[i].chunk.CopyFrom(src)
		return nil
	}
	b.entries = slices.Insert(b.entries, i, sparseEntry{idx: idx, chunk: src.Clone()})

	return nil
}

func (b *streamBody) remove(idx index.Index) bool {
	if b.dense {
		slot, ok := b.slotOf(idx)
		if !ok || !b.present[slot] {
			return false
		}
		b.structure.FillWithDefaultChunk(b.view(slot))
		b.present[slot] = false
		b.count--

		return true
	}
	i, ok := b.search(idx)
	if !ok {
		return false
	}
	b.entries = slices.Delete(b.entries, i, i+1)

	return true
}

// SetElement copies the record of h into the stream at idx, adding it or
// overwriting an existing record. Dense streams grow their range as needed.
//
// Returns:
//   - error: ErrNoHandleData, ErrIndexTypeMismatch, ErrStructureMismatch, or
//     ErrDenseRangeTooLarge when a dense stream cannot grow
func (s *Stream) SetElement(idx index.Index, h *schema.Handle) error {
	if h == nil || !h.HasData() {
		return errs.ErrNoHandleData
	}
	b := s.body()
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	if !h.UsesStructure(b.structure) || !b.structure.Fits(h.Chunk()) {
		return fmt.Errorf("%w: handle of %q in stream %q of %q",
			errs.ErrStructureMismatch, h.Structure().Name(), b.name, b.structure.Name())
	}

	b = s.mut()
	if b.useDefaults && h.IsDefault() {
		b.remove(idx)
		return nil
	}

	return b.store(idx, h.Chunk())
}

// AddElement stores a default record at idx.
func (s *Stream) AddElement(idx index.Index) error {
	b := s.body()
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	if b.lookup(idx) != nil {
		return fmt.Errorf("%w: %s in stream %q", errs.ErrElementExists, idx, b.name)
	}

	b = s.mut()

	return b.store(idx, b.structure.DefaultChunk())
}

// Element returns a handle borrowing the record at idx. The handle is for
// reading; use EditElement to modify the record in place.
//
// A missing record is reported as ErrElementNotFound, or as a freestanding
// default handle when UseDefaults is enabled.
func (s *Stream) Element(idx index.Index) (*schema.Handle, error) {
	b := s.body()
	if err := b.checkIndex(idx); err != nil {
		return nil, err
	}
	if c := b.lookup(idx); c != nil {
		return schema.NewHandleOn(b.structure, c), nil
	}
	if b.useDefaults {
		return schema.NewHandle(b.structure), nil
	}

	return nil, fmt.Errorf("%w: %s in stream %q", errs.ErrElementNotFound, idx, b.name)
}

// EditElement detaches the stream and returns a handle whose writes change
// the record at idx in place. With UseDefaults enabled a missing record is
// first stored as a default record.
//
// Handles into dense storage are invalidated by the next edit that grows the
// element range.
func (s *Stream) EditElement(idx index.Index) (*schema.Handle, error) {
	b := s.body()
	if err := b.checkIndex(idx); err != nil {
		return nil, err
	}
	if b.lookup(idx) == nil && !b.useDefaults {
		return nil, fmt.Errorf("%w: %s in stream %q", errs.ErrElementNotFound, idx, b.name)
	}

	b = s.mut()
	if b.lookup(idx) == nil {
		if err := b.store(idx, b.structure.DefaultChunk()); err != nil {
			return nil, err
		}
	}

	return schema.NewHandleOn(b.structure, b.lookup(idx)), nil
}

// HasElement reports whether a record is stored at idx. Elided default
// records are not stored.
func (s *Stream) HasElement(idx index.Index) bool {
	b := s.body()
	if b.checkIndex(idx) != nil {
		return false
	}

	return b.lookup(idx) != nil
}

// RemoveElement deletes the record at idx. Other indices are not shifted.
func (s *Stream) RemoveElement(idx index.Index) error {
	b := s.body()
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	if b.lookup(idx) == nil {
		if b.useDefaults {
			return nil
		}

		return fmt.Errorf("%w: %s in stream %q", errs.ErrElementNotFound, idx, b.name)
	}
	s.mut().remove(idx)

	return nil
}

// ReindexElement moves the record at oldIdx to newIdx.
//
// Returns:
//   - error: ErrElementNotFound when oldIdx is empty, ErrElementExists when
//     newIdx is taken, ErrIndexTypeMismatch
func (s *Stream) ReindexElement(oldIdx, newIdx index.Index) error {
	b := s.body()
	if err := b.checkIndex(oldIdx); err != nil {
		return err
	}
	if err := b.checkIndex(newIdx); err != nil {
		return err
	}
	c := b.lookup(oldIdx)
	if c == nil {
		return fmt.Errorf("%w: %s in stream %q", errs.ErrElementNotFound, oldIdx, b.name)
	}
	if oldIdx.Equal(newIdx) {
		return nil
	}
	if b.lookup(newIdx) != nil {
		return fmt.Errorf("%w: %s in stream %q", errs.ErrElementExists, newIdx, b.name)
	}

	b = s.mut()
	rec := b.lookup(oldIdx).Clone()
	b.remove(oldIdx)

	return b.store(newIdx, rec)
}

// SwapElements exchanges the records at a and b. When only one of them holds
// a record it moves to the other index.
func (s *Stream) SwapElements(a, b index.Index) error {
	body := s.body()
	if err := body.checkIndex(a); err != nil {
		return err
	}
	if err := body.checkIndex(b); err != nil {
		return err
	}
	ca, cb := body.lookup(a), body.lookup(b)
	switch {
	case ca == nil && cb == nil:
		return fmt.Errorf("%w: neither %s nor %s in stream %q", errs.ErrElementNotFound, a, b, body.name)
	case a.Equal(b):
		return nil
	case ca == nil:
		return s.ReindexElement(b, a)
	case cb == nil:
		return s.ReindexElement(a, b)
	}

	body = s.mut()
	ra := body.lookup(a).Clone()
	body.lookup(a).CopyFrom(body.lookup(b))
	body.lookup(b).CopyFrom(ra)

	return nil
}

// MergeStream copies every record of edits into s. Records of edits win
// over records stored at the same index; indices edits does not hold are
// left untouched.
func (s *Stream) MergeStream(edits *Stream) error {
	eb := s.body()
	ob := edits.body()
	if !eb.structure.Equal(ob.structure) {
		return fmt.Errorf("%w: merging %q into %q", errs.ErrStructureMismatch, ob.structure.Name(), eb.structure.Name())
	}
	if eb.indexType != ob.indexType {
		return fmt.Errorf("%w: merging %s into %s", errs.ErrIndexTypeMismatch, ob.indexType, eb.indexType)
	}
	if edits.ref.Get() == s.ref.Get() {
		return nil
	}

	for idx, h := range edits.All() {
		if err := s.SetElement(idx, h); err != nil {
			return err
		}
	}

	return nil
}

// each visits stored records in index order.
func (b *streamBody) each(yield func(index.Index, *schema.Chunk) bool) {
	if !b.dense {
		for _, e := range b.entries {
			if !yield(e.idx, e.chunk) {
				return
			}
		}

		return
	}
	for slot, ok := range b.present {
		if !ok {
			continue
		}
		idx, err := b.first.Advance(uint64(slot))
		if err != nil {
			return
		}
		if !yield(idx, b.view(slot)) {
			return
		}
	}
}

// All iterates stored records in index order with read-only borrowed handles.
func (s *Stream) All() iter.Seq2[index.Index, *schema.Handle] {
	return func(yield func(index.Index, *schema.Handle) bool) {
		b := s.body()
		b.each(func(idx index.Index, c *schema.Chunk) bool {
			return yield(idx, schema.NewHandleOn(b.structure, c))
		})
	}
}

// Indices returns the stored indices in order.
func (s *Stream) Indices() []index.Index {
	b := s.body()
	out := make([]index.Index, 0, b.elementCount())
	b.each(func(idx index.Index, _ *schema.Chunk) bool {
		out = append(out, idx)
		return true
	})

	return out
}

// Equal reports whether both streams have the same name, structure, index
// type and records, regardless of storage mode.
func (s *Stream) Equal(other *Stream) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	a, b := s.body(), other.body()
	if a == b {
		return true
	}
	if a.name != b.name || a.indexType != b.indexType || !a.structure.Equal(b.structure) ||
		a.elementCount() != b.elementCount() {
		return false
	}

	type rec struct {
		idx   index.Index
		chunk *schema.Chunk
	}
	left := make([]rec, 0, a.elementCount())
	a.each(func(idx index.Index, c *schema.Chunk) bool {
		left = append(left, rec{idx, c})
		return true
	})
	i := 0
	equal := true
	b.each(func(idx index.Index, c *schema.Chunk) bool {
		if i >= len(left) || !left[i].idx.Equal(idx) || !left[i].chunk.Equal(c) {
			equal = false
			return false
		}
		i++

		return true
	})

	return equal && i == len(left)
}
