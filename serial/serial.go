// Package serial defines the serializer interfaces for each layer of the
// metadata model and the registries that select a format by name.
//
// A format implements up to four serializers, one per layer: Structure,
// Stream, Channel and Associations. Format packages register their
// serializers into a Registry and hand back a function that removes them
// again, so a plug-in can install and uninstall formats without the engine
// knowing any concrete format.
package serial

import (
	"fmt"
	"io"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
)

// Format identifies a serialization format.
type Format interface {
	// FormatType returns the registered name, for example "Debug".
	FormatType() string
	// Description returns a one-line human readable summary.
	Description() string
}

// StructureSerializer reads and writes Structures.
type StructureSerializer interface {
	Format
	Read(r io.Reader, env Env) (*schema.Structure, error)
	Write(s *schema.Structure, w io.Writer) error
}

// StreamSerializer reads and writes Streams.
type StreamSerializer interface {
	Format
	Read(r io.Reader, env Env) (*assoc.Stream, error)
	Write(s *assoc.Stream, w io.Writer) error
}

// ChannelSerializer reads and writes Channels.
type ChannelSerializer interface {
	Format
	Read(r io.Reader, env Env) (*assoc.Channel, error)
	Write(c *assoc.Channel, w io.Writer) error
}

// AssociationsSerializer reads and writes Associations.
type AssociationsSerializer interface {
	Format
	Read(r io.Reader, env Env) (*assoc.Associations, error)
	Write(a *assoc.Associations, w io.Writer) error
}

var builtinIndexes = index.NewRegistry()

// Env resolves names met while reading. Streams refer to their Structure by
// name and to indices by type name and text.
type Env struct {
	// Structures resolves structure names. Nil resolves nothing.
	Structures *schema.Registry
	// Indexes creates indices from text. Nil uses the built-in index types.
	Indexes *index.Registry
}

// Structure looks up a structure by name.
func (e Env) Structure(name string) (*schema.Structure, error) {
	if e.Structures != nil {
		if s, ok := e.Structures.ByName(name); ok {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", errs.ErrStructureNotFound, name)
}

// Index creates an index of typeName from its text form.
func (e Env) Index(typeName, value string) (index.Index, error) {
	reg := e.Indexes
	if reg == nil {
		reg = builtinIndexes
	}

	return reg.Create(typeName, value)
}

// IndexRegistry returns the index registry used by Index.
func (e Env) IndexRegistry() *index.Registry {
	if e.Indexes == nil {
		return builtinIndexes
	}

	return e.Indexes
}
