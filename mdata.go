// Package mdata is a metadata engine for attaching typed, structured records
// to host objects and storing them in files.
//
// Records follow user-defined Structures (package schema) and are organised
// into Streams keyed by an Index (package index), Streams into Channels, and
// Channels into Associations (package assoc). Serializers (package serial)
// turn each layer into bytes, and Accessors (package accessor) read and write
// whole files selected by extension.
//
// # Basic Usage
//
// Describe a record layout and fill a stream:
//
//	motion := schema.NewStructure("Motion")
//	_ = motion.AddMember(schema.Float, 3, "velocity")
//
//	s, _ := assoc.NewDenseStream(motion, "motion", 8)
//	h, _ := s.EditElement(index.Simple(3))
//	h.SetFloats(1, 2, 3)
//
//	a := assoc.NewAssociations()
//	a.Channel("vertex").SetDataStream(s)
//
// Write and read a file through a Context:
//
//	mctx, _ := mdata.NewContext()
//	defer mctx.Close()
//
//	_ = mctx.WriteFile(ctx, "scene.mdb", nil, map[string]*assoc.Associations{"mesh": a})
//	acc, _ := mctx.ReadFile(ctx, "scene.mdb")
//	mesh := acc.Associations()["mesh"]
//
// # Package Structure
//
// A Context bundles the registries a program needs with every built-in
// format and file type installed. Packages can also be used directly with
// registries of their own, which is how tests isolate their state.
package mdata

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/accessor/binfile"
	"github.com/arloliu/mdata/accessor/boltfile"
	"github.com/arloliu/mdata/accessor/docfile"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/options"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
	"github.com/arloliu/mdata/serial/binfmt"
	"github.com/arloliu/mdata/serial/debugfmt"
	"github.com/arloliu/mdata/serial/docfmt"
)

// Context owns the registries used to create, serialize and store metadata.
//
// Registries are safe for concurrent use; the Accessors they create are not.
type Context struct {
	Structures *schema.Registry
	Indexes    *index.Registry
	Formats    *serial.Registry
	Accessors  *accessor.Registry

	logger    zerolog.Logger
	binary    []binfile.Option
	binaryFmt []binfmt.Option
	bolt      []boltfile.Option

	undo      []func()
	closeOnce sync.Once
}

// Option configures a Context.
type Option = options.Option[*Context]

// WithLogger sets the logger handed to every Accessor.
func WithLogger(logger zerolog.Logger) Option {
	return options.NoError(func(c *Context) {
		c.logger = logger
	})
}

// WithBinaryOptions forwards options to the .mdb backend.
func WithBinaryOptions(opts ...binfile.Option) Option {
	return options.NoError(func(c *Context) {
		c.binary = append(c.binary, opts...)
	})
}

// WithBinaryFormatOptions forwards options to the Binary serializers.
func WithBinaryFormatOptions(opts ...binfmt.Option) Option {
	return options.NoError(func(c *Context) {
		c.binaryFmt = append(c.binaryFmt, opts...)
	})
}

// WithBoltOptions forwards options to the .bolt backend.
func WithBoltOptions(opts ...boltfile.Option) Option {
	return options.NoError(func(c *Context) {
		c.bolt = append(c.bolt, opts...)
	})
}

// NewContext creates a Context with the built-in index types, serializer
// formats and file types installed.
//
// Parameters:
//   - opts: optional configuration
//
// Returns:
//   - *Context: the context; Close releases what it installed
//   - error: an option or registration failure
func NewContext(opts ...Option) (*Context, error) {
	c := &Context{
		Structures: schema.NewRegistry(),
		Indexes:    index.NewRegistry(),
		Formats:    serial.NewRegistry(),
		logger:     zerolog.Nop(),
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	c.Accessors = accessor.NewRegistry(
		accessor.WithStructureRegistry(c.Structures),
		accessor.WithIndexRegistry(c.Indexes),
		accessor.WithLogger(c.logger),
	)

	installs := []func() (func(), error){
		func() (func(), error) { return debugfmt.Register(c.Formats) },
		func() (func(), error) { return binfmt.Register(c.Formats, c.binaryFmt...) },
		func() (func(), error) { return docfmt.RegisterAll(c.Formats) },
		func() (func(), error) { return binfile.Register(c.Accessors, c.binary...) },
		func() (func(), error) { return docfile.Register(c.Accessors) },
		func() (func(), error) { return boltfile.Register(c.Accessors, c.bolt...) },
	}
	for _, install := range installs {
		undo, err := install()
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.undo = append(c.undo, undo)
	}

	return c, nil
}

// Env returns the serializer environment resolving through the context
// registries.
func (c *Context) Env() serial.Env {
	return serial.Env{Structures: c.Structures, Indexes: c.Indexes}
}

// ReadFile reads fileName with the Accessor registered for its extension.
func (c *Context) ReadFile(ctx context.Context, fileName string, opts ...accessor.ReadOption) (*accessor.Accessor, error) {
	return c.Accessors.ReadFile(ctx, fileName, opts...)
}

// WriteFile writes structures and named associations to fileName with the
// Accessor registered for its extension. Structures the associations use
// are written even when not listed.
func (c *Context) WriteFile(ctx context.Context, fileName string, structures []*schema.Structure,
	associations map[string]*assoc.Associations,
) error {
	a, err := c.Accessors.ForFile(fileName)
	if err != nil {
		return err
	}
	a.SetStructures(structures)

	names := make([]string, 0, len(associations))
	for name := range associations {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		a.SetAssociations(name, associations[name])
	}

	return a.Write(ctx)
}

// Close deregisters everything NewContext installed. Registries stay usable
// but lose the built-ins; calling Close again does nothing.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		for _, undo := range slices.Backward(c.undo) {
			undo()
		}
		c.undo = nil
	})

	return nil
}
