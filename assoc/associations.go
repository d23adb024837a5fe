package assoc

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/internal/cow"
	"github.com/arloliu/mdata/schema"
)

type associationsBody struct {
	channels []*Channel // sorted by name
}

func (b *associationsBody) clone() *associationsBody {
	c := &associationsBody{channels: make([]*Channel, len(b.channels))}
	for i, ch := range b.channels {
		c.channels[i] = ch.deepCopy()
	}

	return c
}

func (b *associationsBody) search(name string) (int, bool) {
	return slices.BinarySearchFunc(b.channels, name, func(c *Channel, n string) int {
		return strings.Compare(c.Name(), n)
	})
}

// Associations is the set of named Channels attached to one host object.
type Associations struct {
	ref cow.Ref[associationsBody]
}

// NewAssociations creates an empty set.
func NewAssociations() *Associations {
	return &Associations{ref: cow.New(&associationsBody{})}
}

func (a *Associations) body() *associationsBody {
	return a.ref.Get()
}

func (a *Associations) mut() *associationsBody {
	a.ref.MakeUnique((*associationsBody).clone)
	return a.ref.Get()
}

// Share returns another handle over the same channels.
func (a *Associations) Share() *Associations {
	return &Associations{ref: a.ref.Share()}
}

// Release drops this handle's claim on the shared channels.
func (a *Associations) Release() {
	a.ref.Release()
}

// IsShared reports whether another handle shares the channels.
func (a *Associations) IsShared() bool {
	return a.ref.IsShared()
}

// MakeUnique gives the set a private deep copy of every channel and stream.
func (a *Associations) MakeUnique() bool {
	return a.ref.MakeUnique((*associationsBody).clone)
}

// Channel detaches the set and returns the named channel for editing,
// creating an empty one when it does not exist.
func (a *Associations) Channel(name string) *Channel {
	b := a.mut()
	i, ok := b.search(name)
	if !ok {
		b.channels = slices.Insert(b.channels, i, NewChannel(name))
	}

	return b.channels[i]
}

// SetChannel stores a share of c, replacing a channel of the same name.
func (a *Associations) SetChannel(c *Channel) *Channel {
	stored := c.Share()
	b := a.mut()
	i, ok := b.search(stored.Name())
	if ok {
		b.channels[i].Release()
		b.channels[i] = stored
	} else {
		b.channels = slices.Insert(b.channels, i, stored)
	}

	return stored
}

// FindChannel returns the named channel for reading, or nil.
func (a *Associations) FindChannel(name string) *Channel {
	b := a.body()
	if i, ok := b.search(name); ok {
		return b.channels[i]
	}

	return nil
}

// ChannelAt returns the i-th channel in name order for reading.
func (a *Associations) ChannelAt(i int) (*Channel, bool) {
	b := a.body()
	if i < 0 || i >= len(b.channels) {
		return nil, false
	}

	return b.channels[i], true
}

// RemoveChannel deletes the named channel.
func (a *Associations) RemoveChannel(name string) error {
	if a.FindChannel(name) == nil {
		return fmt.Errorf("%w: %q", errs.ErrChannelNotFound, name)
	}
	b := a.mut()
	i, _ := b.search(name)
	b.channels[i].Release()
	b.channels = slices.Delete(b.channels, i, i+1)

	return nil
}

// RenameChannel changes the name of a channel.
func (a *Associations) RenameChannel(oldName, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: empty channel name", errs.ErrInvalidName)
	}
	if a.FindChannel(oldName) == nil {
		return fmt.Errorf("%w: %q", errs.ErrChannelNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if a.FindChannel(newName) != nil {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateChannel, newName)
	}

	b := a.mut()
	i, _ := b.search(oldName)
	c := b.channels[i]
	b.channels = slices.Delete(b.channels, i, i+1)
	c.setName(newName)
	j, _ := b.search(newName)
	b.channels = slices.Insert(b.channels, j, c)

	return nil
}

// ChannelCount returns the number of channels.
func (a *Associations) ChannelCount() int {
	return len(a.body().channels)
}

// Empty reports whether the set has no channels.
func (a *Associations) Empty() bool {
	return a.ChannelCount() == 0
}

// All iterates the channels in name order for reading.
func (a *Associations) All() iter.Seq2[string, *Channel] {
	return func(yield func(string, *Channel) bool) {
		for _, c := range a.body().channels {
			if !yield(c.Name(), c) {
				return
			}
		}
	}
}

// Structures returns the distinct structures used by every stream, ordered
// by name.
func (a *Associations) Structures() []*schema.Structure {
	seen := make(map[*schema.Structure]struct{})
	var out []*schema.Structure
	for _, c := range a.body().channels {
		for _, s := range c.All() {
			st := s.Structure()
			if _, ok := seen[st]; ok {
				continue
			}
			seen[st] = struct{}{}
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(x, y *schema.Structure) int {
		return strings.Compare(x.Name(), y.Name())
	})

	return out
}

// Equal reports whether both sets hold equal channels.
func (a *Associations) Equal(other *Associations) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	x, y := a.body(), other.body()
	if x == y {
		return true
	}

	return slices.EqualFunc(x.channels, y.channels, (*Channel).Equal)
}
