// Package accessor reads and writes metadata files: a set of structures plus
// named associations.
//
// An Accessor pairs a file name with a Backend that knows one file format.
// Backends decode into Contents and encode from it; the Accessor handles name
// filtering, structure resolution, logging and file handling around them.
// A Registry maps file extensions to Accessor factories.
package accessor

import (
	"context"
	"io"
	"slices"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

// Contents is the data held by one metadata file.
type Contents struct {
	Structures   []*schema.Structure
	Associations map[string]*assoc.Associations
}

// AssociationNames returns the associations names in order.
func (c *Contents) AssociationNames() []string {
	names := make([]string, 0, len(c.Associations))
	for name := range c.Associations {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Want restricts a read to named structures and associations. A nil list
// accepts every name.
type Want struct {
	Structures   []string
	Associations []string
}

// WantsStructure reports whether the structure name passes the filter.
func (w Want) WantsStructure(name string) bool {
	return w.Structures == nil || slices.Contains(w.Structures, name)
}

// WantsAssociations reports whether the associations name passes the filter.
func (w Want) WantsAssociations(name string) bool {
	return w.Associations == nil || slices.Contains(w.Associations, name)
}

// Backend encodes and decodes one file format.
//
// Decode registers every structure it reads into env.Structures before
// decoding the associations that refer to them. It may skip associations
// the Want filter rejects; the Accessor filters again afterwards.
type Backend interface {
	// Name returns a short format name for messages.
	Name() string
	// Extensions returns the lower-case file extensions without dot.
	Extensions() []string
	Decode(ctx context.Context, r io.Reader, want Want, env serial.Env) (*Contents, error)
	Encode(ctx context.Context, w io.Writer, c *Contents) error
}

// FileBackend is a Backend that works on named files directly instead of
// streams.
type FileBackend interface {
	Backend
	DecodeFile(ctx context.Context, fileName string, want Want, env serial.Env) (*Contents, error)
	EncodeFile(ctx context.Context, fileName string, c *Contents) error
}

// RegisterStructures registers every structure into env.Structures.
func RegisterStructures(env serial.Env, structures []*schema.Structure) error {
	if env.Structures == nil {
		return nil
	}
	for _, s := range structures {
		if err := env.Structures.Register(s); err != nil {
			return err
		}
	}

	return nil
}
