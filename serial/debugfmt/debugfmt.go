// Package debugfmt implements the "Debug" format: an indented, line based
// text form of every layer that reads back into equal values.
//
// Tokens are keywords, integers, braces and Go quoted strings:
//
//	stream "motion" {
//		structure "Motion"
//		index "Index"
//		element "3" {
//			set "velocity" "1" "2" "3"
//		}
//	}
//
// Member values use Handle.Str, so every data type has a lossless text form.
// Members an element omits keep their defaults.
package debugfmt

import (
	"io"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

// Name is the registered format name.
const Name = format.Debug

type base struct{}

func (base) FormatType() string { return Name }

func (base) Description() string { return "Human readable text, round-trippable" }

// StructureFormat serializes Structures.
type StructureFormat struct{ base }

// StreamFormat serializes Streams.
type StreamFormat struct{ base }

// ChannelFormat serializes Channels.
type ChannelFormat struct{ base }

// AssociationsFormat serializes Associations.
type AssociationsFormat struct{ base }

var (
	_ serial.StructureSerializer    = StructureFormat{}
	_ serial.StreamSerializer       = StreamFormat{}
	_ serial.ChannelSerializer      = ChannelFormat{}
	_ serial.AssociationsSerializer = AssociationsFormat{}
)

// Register installs the Debug serializers of every layer.
func Register(reg *serial.Registry) (func(), error) {
	return reg.Install(serial.Serializers{
		Structure:    StructureFormat{},
		Stream:       StreamFormat{},
		Channel:      ChannelFormat{},
		Associations: AssociationsFormat{},
	})
}

func (StructureFormat) Write(s *schema.Structure, w io.Writer) error {
	tw := newWriter(w)
	tw.structure(s)

	return tw.flush()
}

func (StructureFormat) Read(r io.Reader, _ serial.Env) (*schema.Structure, error) {
	p := newParser(r)
	s := p.structure()
	if err := p.finish(); err != nil {
		return nil, err
	}

	return s, nil
}

func (StreamFormat) Write(s *assoc.Stream, w io.Writer) error {
	tw := newWriter(w)
	tw.stream(s)

	return tw.flush()
}

func (StreamFormat) Read(r io.Reader, env serial.Env) (*assoc.Stream, error) {
	p := newParser(r)
	s := p.stream(env)
	if err := p.finish(); err != nil {
		return nil, err
	}

	return s, nil
}

func (ChannelFormat) Write(c *assoc.Channel, w io.Writer) error {
	tw := newWriter(w)
	tw.channel(c)

	return tw.flush()
}

func (ChannelFormat) Read(r io.Reader, env serial.Env) (*assoc.Channel, error) {
	p := newParser(r)
	c := p.channel(env)
	if err := p.finish(); err != nil {
		return nil, err
	}

	return c, nil
}

func (AssociationsFormat) Write(a *assoc.Associations, w io.Writer) error {
	tw := newWriter(w)
	tw.associations(a)

	return tw.flush()
}

func (AssociationsFormat) Read(r io.Reader, env serial.Env) (*assoc.Associations, error) {
	p := newParser(r)
	a := p.associations(env)
	if err := p.finish(); err != nil {
		return nil, err
	}

	return a, nil
}
