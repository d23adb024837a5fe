// Package docfile implements accessor backends that store a whole metadata
// file as one document: JSON, YAML, XML or MessagePack.
package docfile

import (
	"context"
	"fmt"
	"io"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
	"github.com/arloliu/mdata/serial/docfmt"
)

var extensions = map[string][]string{
	format.JSON:        {"json"},
	format.YAML:        {"yaml", "yml"},
	format.XML:         {"xml"},
	format.MessagePack: {"mpk", "msgpack"},
}

// Backend reads and writes docfmt.FileDoc documents with one codec.
type Backend struct {
	codec docfmt.Codec
	exts  []string
}

var _ accessor.Backend = (*Backend)(nil)

// New creates the backend for the named codec.
//
// Parameters:
//   - name: one of the docfmt codec names, e.g. "JSON"
//
// Returns:
//   - *Backend: the backend
//   - error: ErrFormatNotFound for an unknown codec
func New(name string) (*Backend, error) {
	codec, err := docfmt.CodecByName(name)
	if err != nil {
		return nil, err
	}
	exts, ok := extensions[codec.Name()]
	if !ok {
		return nil, fmt.Errorf("%w: no extension for %s", errs.ErrFormatNotFound, codec.Name())
	}

	return &Backend{codec: codec, exts: exts}, nil
}

// Register maps the extensions of every document codec in reg. On failure
// nothing stays registered.
func Register(reg *accessor.Registry) (func(), error) {
	var undo []func()
	uninstall := func() {
		for _, u := range undo {
			u()
		}
	}
	for _, c := range docfmt.Codecs() {
		name := c.Name()
		u, err := reg.RegisterBackend(func() (accessor.Backend, error) {
			return New(name)
		})
		if err != nil {
			uninstall()
			return nil, err
		}
		undo = append(undo, u)
	}

	return uninstall, nil
}

func (b *Backend) Name() string { return b.codec.Name() }

func (b *Backend) Extensions() []string { return b.exts }

func (b *Backend) Encode(ctx context.Context, w io.Writer, c *accessor.Contents) error {
	var doc docfmt.FileDoc
	for _, s := range c.Structures {
		doc.Structures = append(doc.Structures, docfmt.StructureToDoc(s))
	}
	for _, name := range c.AssociationNames() {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc.Associations = append(doc.Associations, docfmt.AssociationsToDoc(name, c.Associations[name]))
	}

	return b.codec.Encode(w, &doc)
}

func (b *Backend) Decode(ctx context.Context, r io.Reader, want accessor.Want, env serial.Env) (*accessor.Contents, error) {
	var doc docfmt.FileDoc
	if err := b.codec.Decode(r, &doc); err != nil {
		return nil, err
	}

	structures := make([]*schema.Structure, 0, len(doc.Structures))
	for _, sd := range doc.Structures {
		s, err := docfmt.StructureFromDoc(sd)
		if err != nil {
			return nil, err
		}
		structures = append(structures, s)
	}
	if err := accessor.RegisterStructures(env, structures); err != nil {
		return nil, err
	}

	c := &accessor.Contents{Structures: structures, Associations: make(map[string]*assoc.Associations)}
	for _, ad := range doc.Associations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !want.WantsAssociations(ad.Name) {
			continue
		}
		if _, ok := c.Associations[ad.Name]; ok {
			return nil, fmt.Errorf("%w: associations %q", errs.ErrInvalidName, ad.Name)
		}
		a, err := docfmt.AssociationsFromDoc(ad, env)
		if err != nil {
			return nil, fmt.Errorf("associations %q: %w", ad.Name, err)
		}
		c.Associations[ad.Name] = a
	}

	return c, nil
}
