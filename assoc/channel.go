package assoc

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/cow"
)

type channelBody struct {
	name    string
	streams []*Stream // sorted by name
}

func (b *channelBody) clone() *channelBody {
	c := &channelBody{name: b.name, streams: make([]*Stream, len(b.streams))}
	for i, s := range b.streams {
		c.streams[i] = s.deepCopy()
	}

	return c
}

func (b *channelBody) search(name string) (int, bool) {
	return slices.BinarySearchFunc(b.streams, name, func(s *Stream, n string) int {
		return strings.Compare(s.Name(), n)
	})
}

// Channel is a named set of Streams with unique names. Streams of one channel
// usually describe the same elements of their owner, so element removal and
// insertion fan out to every stream.
type Channel struct {
	ref cow.Ref[channelBody]
}

// NewChannel creates an empty channel.
func NewChannel(name string) *Channel {
	return &Channel{ref: cow.New(&channelBody{name: name})}
}

func (c *Channel) body() *channelBody {
	return c.ref.Get()
}

func (c *Channel) mut() *channelBody {
	c.ref.MakeUnique((*channelBody).clone)
	return c.ref.Get()
}

// Share returns another handle over the same streams.
func (c *Channel) Share() *Channel {
	return &Channel{ref: c.ref.Share()}
}

// Release drops this handle's claim on the shared streams.
func (c *Channel) Release() {
	c.ref.Release()
}

// IsShared reports whether another handle shares the streams.
func (c *Channel) IsShared() bool {
	return c.ref.IsShared()
}

// MakeUnique gives the channel a private deep copy of every stream.
func (c *Channel) MakeUnique() bool {
	return c.ref.MakeUnique((*channelBody).clone)
}

func (c *Channel) deepCopy() *Channel {
	return &Channel{ref: cow.New(c.body().clone())}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.body().name
}

func (c *Channel) setName(name string) {
	c.mut().name = name
}

// SetDataStream stores a share of s, replacing a stream of the same name.
//
// Returns:
//   - *Stream: the stored stream, editable in place
func (c *Channel) SetDataStream(s *Stream) *Stream {
	stored := s.Share()
	b := c.mut()
	i, ok := b.search(stored.Name())
	if ok {
		b.streams[i].Release()
		b.streams[i] = stored
	} else {
		b.streams = slices.Insert(b.streams, i, stored)
	}

	return stored
}

// FindDataStream returns the named stream for reading, or nil.
func (c *Channel) FindDataStream(name string) *Stream {
	b := c.body()
	if i, ok := b.search(name); ok {
		return b.streams[i]
	}

	return nil
}

// DataStream detaches the channel and returns the named stream for editing.
func (c *Channel) DataStream(name string) (*Stream, error) {
	if c.FindDataStream(name) == nil {
		return nil, fmt.Errorf("%w: %q in channel %q", errs.ErrStreamNotFound, name, c.Name())
	}
	b := c.mut()
	i, _ := b.search(name)

	return b.streams[i], nil
}

// DataStreamAt returns the i-th stream in name order for reading.
func (c *Channel) DataStreamAt(i int) (*Stream, bool) {
	b := c.body()
	if i < 0 || i >= len(b.streams) {
		return nil, false
	}

	return b.streams[i], true
}

// RemoveDataStream deletes the named stream.
func (c *Channel) RemoveDataStream(name string) error {
	if c.FindDataStream(name) == nil {
		return fmt.Errorf("%w: %q in channel %q", errs.ErrStreamNotFound, name, c.Name())
	}
	b := c.mut()
	i, _ := b.search(name)
	b.streams[i].Release()
	b.streams = slices.Delete(b.streams, i, i+1)

	return nil
}

// RenameDataStream changes the name of a stream.
//
// Returns:
//   - error: ErrStreamNotFound, ErrInvalidName, or ErrDuplicateStream when
//     newName is taken
func (c *Channel) RenameDataStream(oldName, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: empty stream name", errs.ErrInvalidName)
	}
	if c.FindDataStream(oldName) == nil {
		return fmt.Errorf("%w: %q in channel %q", errs.ErrStreamNotFound, oldName, c.Name())
	}
	if oldName == newName {
		return nil
	}
	if c.FindDataStream(newName) != nil {
		return fmt.Errorf("%w: %q in channel %q", errs.ErrDuplicateStream, newName, c.Name())
	}

	b := c.mut()
	i, _ := b.search(oldName)
	s := b.streams[i]
	b.streams = slices.Delete(b.streams, i, i+1)
	s.setName(newName)
	j, _ := b.search(newName)
	b.streams = slices.Insert(b.streams, j, s)

	return nil
}

// DataStreamCount returns the number of streams.
func (c *Channel) DataStreamCount() int {
	return len(c.body().streams)
}

// Empty reports whether the channel has no streams.
func (c *Channel) Empty() bool {
	return c.DataStreamCount() == 0
}

// All iterates the streams in name order for reading.
func (c *Channel) All() iter.Seq2[string, *Stream] {
	return func(yield func(string, *Stream) bool) {
		for _, s := range c.body().streams {
			if !yield(s.Name(), s) {
				return
			}
		}
	}
}

// RemoveElement removes the record at idx from every stream of matching index
// type. It reports whether any stream held a record there.
func (c *Channel) RemoveElement(idx index.Index) bool {
	found := false
	for _, s := range c.body().streams {
		if s.HasElement(idx) {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	for _, s := range c.mut().streams {
		if s.HasElement(idx) {
			_ = s.RemoveElement(idx)
		}
	}

	return true
}

// AddElement adds a default record at idx to every stream of matching index
// type that does not hold one. It reports whether any record was added.
func (c *Channel) AddElement(idx index.Index) bool {
	missing := false
	for _, s := range c.body().streams {
		if s.IndexType() == idx.TypeName() && !s.HasElement(idx) {
			missing = true
			break
		}
	}
	if !missing {
		return false
	}

	added := false
	for _, s := range c.mut().streams {
		if s.IndexType() == idx.TypeName() && !s.HasElement(idx) {
			if s.AddElement(idx) == nil {
				added = true
			}
		}
	}

	return added
}

// Equal reports whether both channels have the same name and equal streams.
func (c *Channel) Equal(other *Channel) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	a, b := c.body(), other.body()
	if a == b {
		return true
	}

	return a.name == b.name && slices.EqualFunc(a.streams, b.streams, (*Stream).Equal)
}
