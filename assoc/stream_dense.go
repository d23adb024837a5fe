package assoc

import (
	"fmt"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
)

// chunkView returns the record at slot of a packed arena laid out for s.
func chunkView(s *schema.Structure, arena []byte, strs []string, slot int) *schema.Chunk {
	size, ns := s.TotalSize(), s.StringSlots()
	lo, hi := slot*size, (slot+1)*size
	slo, shi := slot*ns, (slot+1)*ns

	return schema.ChunkOver(arena[lo:hi:hi], strs[slo:shi:shi])
}

func (b *streamBody) view(slot int) *schema.Chunk {
	return chunkView(b.structure, b.arena, b.strs, slot)
}

func (b *streamBody) allocDense(slots int) {
	b.arena = make([]byte, slots*b.structure.TotalSize())
	b.strs = make([]string, slots*b.structure.StringSlots())
	b.present = make([]bool, slots)
}

// slotOf maps idx onto the dense range.
func (b *streamBody) slotOf(idx index.Index) (int, bool) {
	if !b.hasRange || idx.Less(b.first) || b.last.Less(idx) {
		return 0, false
	}
	n, err := b.first.DenseSpaceBetween(idx)
	if err != nil {
		return 0, false
	}

	return int(n), true //nolint:gosec
}

func rangeSlots(first, last index.Index) (int, error) {
	n, err := first.DenseSpaceBetween(last)
	if err != nil {
		return 0, err
	}
	if n >= MaxDenseElements {
		return 0, fmt.Errorf("%w: [%s, %s] spans %d elements", errs.ErrDenseRangeTooLarge, first, last, n+1)
	}

	return int(n) + 1, nil //nolint:gosec
}

// relayout moves the dense records into a new arena covering [first, last].
// Every stored record must fall inside the new range.
func (b *streamBody) relayout(first, last index.Index) error {
	slots, err := rangeSlots(first, last)
	if err != nil {
		return err
	}

	oldArena, oldStrs, oldPresent := b.arena, b.strs, b.present
	oldFirst, hadRange := b.first, b.hasRange

	b.allocDense(slots)
	b.first, b.last, b.hasRange = first, last, true
	if !hadRange || b.count == 0 {
		return nil
	}

	for slot, ok := range oldPresent {
		if !ok {
			continue
		}
		idx, err := oldFirst.Advance(uint64(slot))
		if err != nil {
			return err
		}
		to, inside := b.slotOf(idx)
		if !inside {
			return fmt.Errorf("%w: %s outside [%s, %s]", errs.ErrOutOfRange, idx, first, last)
		}
		b.view(to).CopyFrom(chunkView(b.structure, oldArena, oldStrs, slot))
		b.present[to] = true
	}

	return nil
}

// ensureSlot grows the dense range to cover idx.
func (b *streamBody) ensureSlot(idx index.Index) (int, error) {
	if slot, ok := b.slotOf(idx); ok {
		return slot, nil
	}

	first, last := idx, idx
	if b.hasRange {
		first, last = b.first, b.last
		if idx.Less(first) {
			first = idx
		}
		if last.Less(idx) {
			last = idx
		}
	}
	if err := b.relayout(first, last); err != nil {
		return 0, err
	}
	slot, _ := b.slotOf(idx)

	return slot, nil
}

// storedBounds returns the lowest and highest stored index.
func (b *streamBody) storedBounds() (lo, hi index.Index, ok bool) {
	b.each(func(idx index.Index, _ *schema.Chunk) bool {
		if !ok {
			lo, ok = idx, true
		}
		hi = idx

		return true
	})

	return lo, hi, ok
}

// SetElementRange declares the index range [first, last] a dense stream
// covers. A dense stream is repacked immediately; a sparse stream keeps the
// range for a later UseDenseStorage.
//
// Parameters:
//   - first: lowest index of the range
//   - last: highest index of the range
//
// Returns:
//   - error: ErrIndexTypeMismatch, ErrDenseUnsupported, ErrOutOfRange when
//     last orders before first or a stored record falls outside the range,
//     ErrDenseRangeTooLarge
func (s *Stream) SetElementRange(first, last index.Index) error {
	b := s.body()
	if err := b.checkIndex(first); err != nil {
		return err
	}
	if err := b.checkIndex(last); err != nil {
		return err
	}
	if _, err := rangeSlots(first, last); err != nil {
		return err
	}
	if lo, hi, ok := b.storedBounds(); ok && (lo.Less(first) || last.Less(hi)) {
		return fmt.Errorf("%w: records [%s, %s] outside [%s, %s]", errs.ErrOutOfRange, lo, hi, first, last)
	}

	b = s.mut()
	if b.dense {
		return b.relayout(first, last)
	}
	b.first, b.last, b.hasRange = first, last, true

	return nil
}

// ElementRange returns the declared element range.
func (s *Stream) ElementRange() (first, last index.Index, ok bool) {
	b := s.body()
	return b.first, b.last, b.hasRange
}

// IsDense reports whether the stream uses packed storage.
func (s *Stream) IsDense() bool {
	return s.body().dense
}

// UseDenseStorage switches between sparse and packed storage. Enabling packed
// storage needs an element range set with SetElementRange and an index type
// that supports dense mode. The stored records are unchanged.
func (s *Stream) UseDenseStorage(dense bool) error {
	b := s.body()
	if b.dense == dense {
		return nil
	}

	if !dense {
		b = s.mut()
		entries := make([]sparseEntry, 0, b.count)
		b.each(func(idx index.Index, c *schema.Chunk) bool {
			entries = append(entries, sparseEntry{idx: idx, chunk: c.Clone()})
			return true
		})
		b.entries = entries
		b.dense = false
		b.arena, b.strs, b.present = nil, nil, nil
		b.count = 0

		return nil
	}

	if !b.hasRange {
		return fmt.Errorf("%w: stream %q", errs.ErrNoElementRange, b.name)
	}
	if !b.first.SupportsDenseMode() {
		return fmt.Errorf("%w: %s", errs.ErrDenseUnsupported, b.indexType)
	}
	if err := s.SetElementRange(b.first, b.last); err != nil {
		return err
	}

	b = s.mut()
	entries := b.entries
	b.entries = nil
	b.hasRange = false
	if err := b.relayout(b.first, b.last); err != nil {
		b.entries = entries
		b.hasRange = true
		b.arena, b.strs, b.present = nil, nil, nil

		return err
	}
	b.dense = true
	for _, e := range entries {
		slot, _ := b.slotOf(e.idx)
		b.view(slot).CopyFrom(e.chunk)
		b.present[slot] = true
		b.count++
	}

	return nil
}
