// Package extcontent keeps a table of external files referenced by a host
// object, such as textures or caches, inside its metadata.
//
// The table is one stream of the ExternalContent structure keyed by
// IndexString on the entry key:
//
//	string "node"        owning node name
//	string "unresolved"  path as authored
//	string "resolved"    path after search rules were applied
//	string "roles"       roles joined by ';'
package extcontent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
)

const (
	// StructureName is the name of the table structure.
	StructureName = "ExternalContent"
	// ChannelName is the channel holding the table.
	ChannelName = "externalContent"
	// StreamName is the stream holding the table.
	StreamName = "entries"
	// RoleSeparator joins roles in the roles member.
	RoleSeparator = ";"
)

const (
	memberNode = iota
	memberUnresolved
	memberResolved
	memberRoles
)

var memberNames = [...]string{"node", "unresolved", "resolved", "roles"}

var structure = sync.OnceValue(func() *schema.Structure {
	s := schema.NewStructure(StructureName)
	for _, name := range memberNames {
		if err := s.AddMember(schema.String, 1, name); err != nil {
			panic(err)
		}
	}

	return s
})

// Structure returns the table structure. The same instance is returned on
// every call and must not be modified.
func Structure() *schema.Structure {
	return structure()
}

// Entry is one external content reference.
type Entry struct {
	Key        string
	Node       string
	Unresolved string
	Resolved   string
	Roles      []string
}

func (e Entry) validate() error {
	if e.Key == "" {
		return fmt.Errorf("%w: empty entry key", errs.ErrInvalidName)
	}
	for _, r := range e.Roles {
		if r == "" || strings.Contains(r, RoleSeparator) {
			return fmt.Errorf("%w: role %q", errs.ErrInvalidName, r)
		}
	}

	return nil
}

// Stream returns the table stream of a for editing, creating the channel and
// stream when missing.
//
// Returns:
//   - *assoc.Stream: the editable table
//   - error: ErrStructureMismatch when a stream of another structure uses the
//     table name
func Stream(a *assoc.Associations) (*assoc.Stream, error) {
	c := a.Channel(ChannelName)
	if s := c.FindDataStream(StreamName); s != nil {
		if !s.Structure().Equal(Structure()) {
			return nil, fmt.Errorf("%w: stream %q uses %q", errs.ErrStructureMismatch, StreamName, s.Structure().Name())
		}

		return c.DataStream(StreamName)
	}

	s := assoc.NewStream(Structure(), StreamName)
	if err := s.SetIndexType(index.StringTypeName); err != nil {
		return nil, err
	}
	c.SetDataStream(s)
	s.Release()

	return c.DataStream(StreamName)
}

func findStream(a *assoc.Associations) *assoc.Stream {
	if a == nil {
		return nil
	}
	c := a.FindChannel(ChannelName)
	if c == nil {
		return nil
	}
	s := c.FindDataStream(StreamName)
	if s == nil || !s.Structure().Equal(Structure()) {
		return nil
	}

	return s
}

func entryFrom(key string, h *schema.Handle) (Entry, error) {
	var vals [len(memberNames)]string
	for i, name := range memberNames {
		if err := h.SetPositionByMemberName(name); err != nil {
			return Entry{}, err
		}
		vals[i] = h.String(0)
	}

	e := Entry{
		Key:        key,
		Node:       vals[memberNode],
		Unresolved: vals[memberUnresolved],
		Resolved:   vals[memberResolved],
	}
	if vals[memberRoles] != "" {
		e.Roles = strings.Split(vals[memberRoles], RoleSeparator)
	}

	return e, nil
}

func fill(h *schema.Handle, e Entry) {
	vals := [len(memberNames)]string{
		memberNode:       e.Node,
		memberUnresolved: e.Unresolved,
		memberResolved:   e.Resolved,
		memberRoles:      strings.Join(e.Roles, RoleSeparator),
	}
	for i, name := range memberNames {
		_ = h.SetPositionByMemberName(name)
		h.SetString(0, vals[i])
	}
}

// GetEntry returns the entry stored under key.
//
// Returns:
//   - Entry: the entry
//   - error: ErrElementNotFound when a holds no such entry
func GetEntry(a *assoc.Associations, key string) (Entry, error) {
	s := findStream(a)
	if s == nil {
		return Entry{}, fmt.Errorf("%w: external content %q", errs.ErrElementNotFound, key)
	}
	h, err := s.Element(index.String(key))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: external content %q", errs.ErrElementNotFound, key)
	}

	return entryFrom(key, h)
}

// SetEntry stores e, replacing any entry with the same key.
//
// Returns:
//   - error: ErrInvalidName for an empty key or a role that is empty or holds
//     the separator
func SetEntry(a *assoc.Associations, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	s, err := Stream(a)
	if err != nil {
		return err
	}
	h := schema.NewHandle(Structure())
	fill(h, e)

	return s.SetElement(index.String(e.Key), h)
}

// UpdateEntry changes the paths of an existing entry, keeping its node and
// roles.
//
// Returns:
//   - error: ErrElementNotFound when a holds no such entry
func UpdateEntry(a *assoc.Associations, key, unresolved, resolved string) error {
	e, err := GetEntry(a, key)
	if err != nil {
		return err
	}
	e.Unresolved = unresolved
	e.Resolved = resolved

	return SetEntry(a, e)
}

// RemoveEntry deletes the entry stored under key.
func RemoveEntry(a *assoc.Associations, key string) error {
	if findStream(a) == nil {
		return fmt.Errorf("%w: external content %q", errs.ErrElementNotFound, key)
	}
	s, err := Stream(a)
	if err != nil {
		return err
	}

	return s.RemoveElement(index.String(key))
}

// Entries returns every entry of a ordered by key.
func Entries(a *assoc.Associations) ([]Entry, error) {
	s := findStream(a)
	if s == nil {
		return nil, nil
	}

	out := make([]Entry, 0, s.ElementCount())
	for idx, h := range s.All() {
		e, err := entryFrom(idx.AsString(), h)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, nil
}

// ReadTable reads fileName through reg and collects the external content of
// every associations set in it. Entries without a node take the associations
// name as node.
//
// Returns:
//   - []Entry: entries ordered by node, then key
//   - error: read failures
func ReadTable(ctx context.Context, reg *accessor.Registry, fileName string) ([]Entry, error) {
	acc, err := reg.ReadFile(ctx, fileName)
	if err != nil {
		return nil, err
	}

	var table []Entry
	for name, a := range acc.Associations() {
		entries, err := Entries(a)
		if err != nil {
			return nil, fmt.Errorf("associations %q: %w", name, err)
		}
		for _, e := range entries {
			if e.Node == "" {
				e.Node = name
			}
			table = append(table, e)
		}
	}
	slices.SortFunc(table, func(x, y Entry) int {
		if c := strings.Compare(x.Node, y.Node); c != 0 {
			return c
		}

		return strings.Compare(x.Key, y.Key)
	})

	return table, nil
}
