// Package host attaches metadata to application objects.
//
// A host object owns at most one Associations. Readers get the stored value,
// which may be shared with other owners; writers go through EditableMetadata,
// which detaches the value first so edits never leak into a copy.
package host

import (
	"github.com/arloliu/mdata/assoc"
)

// MetadataOwner is implemented by objects that carry metadata.
type MetadataOwner interface {
	// Metadata returns the attached metadata, or nil. The result must be
	// treated as read-only.
	Metadata() *assoc.Associations
	// EditableMetadata returns metadata that is safe to modify, creating an
	// empty set if none is attached.
	EditableMetadata() *assoc.Associations
	// SetMetadata attaches a share of a; nil removes the metadata.
	SetMetadata(a *assoc.Associations)
	// DeleteMetadata removes the metadata.
	DeleteMetadata()
}

// Owner is an embeddable MetadataOwner.
//
// The zero value carries no metadata.
type Owner struct {
	metadata *assoc.Associations
}

var _ MetadataOwner = (*Owner)(nil)

func (o *Owner) Metadata() *assoc.Associations {
	return o.metadata
}

func (o *Owner) EditableMetadata() *assoc.Associations {
	if o.metadata == nil {
		o.metadata = assoc.NewAssociations()
	}
	o.metadata.MakeUnique()

	return o.metadata
}

func (o *Owner) SetMetadata(a *assoc.Associations) {
	if a == o.metadata {
		return
	}
	o.DeleteMetadata()
	if a != nil {
		o.metadata = a.Share()
	}
}

func (o *Owner) DeleteMetadata() {
	if o.metadata != nil {
		o.metadata.Release()
		o.metadata = nil
	}
}

// HasMetadata reports whether non-empty metadata is attached.
func (o *Owner) HasMetadata() bool {
	return o.metadata != nil && !o.metadata.Empty()
}

// Node is a named host object.
type Node struct {
	Owner
	name string
}

// NewNode creates a node without metadata.
func NewNode(name string) *Node {
	return &Node{name: name}
}

func (n *Node) Name() string {
	return n.name
}
