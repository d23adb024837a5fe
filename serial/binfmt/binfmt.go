// Package binfmt implements the "Binary" format, a compact byte encoding of
// every layer of the metadata model.
//
// A top-level blob starts with a kind byte ('S' structure, 'T' stream,
// 'C' channel, 'A' associations) and a byte order byte ('L' or 'B'),
// followed by the body:
//
//	structure:    name, member count, {type u8, length uvarint, name}...
//	stream:       name, structure name, structure fingerprint u64,
//	              index type, flags u8, [first, last], count, {index, record}...
//	channel:      name, stream count, stream...
//	associations: channel count, channel...
//
// Strings and counts use uvarint lengths. Record members are written in
// member order with fixed-width values in the blob's byte order; string
// members are length-prefixed. The fingerprint lets a reader reject a stream
// whose structure changed layout since it was written.
package binfmt

import (
	"fmt"
	"io"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/encoding"
	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/internal/options"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

// Name is the registered format name.
const Name = format.Binary

// Blob kinds.
const (
	KindStructure    byte = 'S'
	KindStream       byte = 'T'
	KindChannel      byte = 'C'
	KindAssociations byte = 'A'
)

const (
	orderLittle byte = 'L'
	orderBig    byte = 'B'
)

// Config holds the writer settings.
type Config struct {
	engine endian.EndianEngine
}

// Option configures the Binary serializers.
type Option = options.Option[*Config]

// WithByteOrder selects the byte order of fixed-width values. Readers detect
// the order from the blob, so this only affects writing.
func WithByteOrder(engine endian.EndianEngine) Option {
	return options.New(func(c *Config) error {
		if engine == nil {
			return fmt.Errorf("%w: nil byte order", errs.ErrInvalidHeaderFlags)
		}
		c.engine = engine

		return nil
	})
}

// Format carries the shared writer settings of the Binary serializers.
type Format struct {
	engine endian.EndianEngine
}

// New creates the Binary format. Little-endian is the default byte order.
func New(opts ...Option) (*Format, error) {
	cfg := &Config{engine: endian.GetLittleEndianEngine()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Format{engine: cfg.engine}, nil
}

func (f *Format) FormatType() string { return Name }

func (f *Format) Description() string { return "Compact binary, endian-aware" }

// Engine returns the byte order used for writing.
func (f *Format) Engine() endian.EndianEngine {
	return f.engine
}

// StructureFormat serializes Structures.
type StructureFormat struct{ *Format }

// StreamFormat serializes Streams.
type StreamFormat struct{ *Format }

// ChannelFormat serializes Channels.
type ChannelFormat struct{ *Format }

// AssociationsFormat serializes Associations.
type AssociationsFormat struct{ *Format }

var (
	_ serial.StructureSerializer    = StructureFormat{}
	_ serial.StreamSerializer       = StreamFormat{}
	_ serial.ChannelSerializer      = ChannelFormat{}
	_ serial.AssociationsSerializer = AssociationsFormat{}
)

// Register installs the Binary serializers of every layer.
func Register(reg *serial.Registry, opts ...Option) (func(), error) {
	f, err := New(opts...)
	if err != nil {
		return nil, err
	}

	return reg.Install(serial.Serializers{
		Structure:    StructureFormat{f},
		Stream:       StreamFormat{f},
		Channel:      ChannelFormat{f},
		Associations: AssociationsFormat{f},
	})
}

func (f *Format) write(w io.Writer, kind byte, body func(*encoding.VarStringEncoder) error) error {
	enc := encoding.NewVarStringEncoder(f.engine)
	defer enc.Reset()

	order := orderLittle
	if endian.IsBigEndian(f.engine) {
		order = orderBig
	}
	enc.WriteUint8(kind)
	enc.WriteUint8(order)
	if err := body(enc); err != nil {
		return err
	}
	_, err := w.Write(enc.Bytes())

	return err
}

// openBlob checks the kind and byte order prefix and returns a decoder over
// the body.
func openBlob(r io.Reader, kind byte) (*encoding.VarStringDecoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: blob of %d bytes", errs.ErrMalformedPayload, len(data))
	}
	if data[0] != kind {
		return nil, fmt.Errorf("%w: blob kind %q, want %q", errs.ErrMalformedPayload, data[0], kind)
	}

	var engine endian.EndianEngine
	switch data[1] {
	case orderLittle:
		engine = endian.GetLittleEndianEngine()
	case orderBig:
		engine = endian.GetBigEndianEngine()
	default:
		return nil, fmt.Errorf("%w: byte order %q", errs.ErrInvalidHeaderFlags, data[1])
	}

	return encoding.NewVarStringDecoder(data[2:], engine), nil
}

func closeBlob(dec *encoding.VarStringDecoder) error {
	if err := dec.Err(); err != nil {
		return err
	}
	if dec.Remaining() > 0 {
		return fmt.Errorf("%w: %d trailing bytes", errs.ErrExcessData, dec.Remaining())
	}

	return nil
}

func (f StructureFormat) Write(s *schema.Structure, w io.Writer) error {
	return f.write(w, KindStructure, func(enc *encoding.VarStringEncoder) error {
		return EncodeStructure(enc, s)
	})
}

func (f StructureFormat) Read(r io.Reader, _ serial.Env) (*schema.Structure, error) {
	dec, err := openBlob(r, KindStructure)
	if err != nil {
		return nil, err
	}
	s, err := DecodeStructure(dec)
	if err != nil {
		return nil, err
	}

	if err := closeBlob(dec); err != nil {
		return nil, err
	}

	return s, nil
}

func (f StreamFormat) Write(s *assoc.Stream, w io.Writer) error {
	return f.write(w, KindStream, func(enc *encoding.VarStringEncoder) error {
		return EncodeStream(enc, s)
	})
}

func (f StreamFormat) Read(r io.Reader, env serial.Env) (*assoc.Stream, error) {
	dec, err := openBlob(r, KindStream)
	if err != nil {
		return nil, err
	}
	s, err := DecodeStream(dec, env)
	if err != nil {
		return nil, err
	}

	if err := closeBlob(dec); err != nil {
		return nil, err
	}

	return s, nil
}

func (f ChannelFormat) Write(c *assoc.Channel, w io.Writer) error {
	return f.write(w, KindChannel, func(enc *encoding.VarStringEncoder) error {
		return EncodeChannel(enc, c)
	})
}

func (f ChannelFormat) Read(r io.Reader, env serial.Env) (*assoc.Channel, error) {
	dec, err := openBlob(r, KindChannel)
	if err != nil {
		return nil, err
	}
	c, err := DecodeChannel(dec, env)
	if err != nil {
		return nil, err
	}

	if err := closeBlob(dec); err != nil {
		return nil, err
	}

	return c, nil
}

func (f AssociationsFormat) Write(a *assoc.Associations, w io.Writer) error {
	return f.write(w, KindAssociations, func(enc *encoding.VarStringEncoder) error {
		return EncodeAssociations(enc, a)
	})
}

func (f AssociationsFormat) Read(r io.Reader, env serial.Env) (*assoc.Associations, error) {
	dec, err := openBlob(r, KindAssociations)
	if err != nil {
		return nil, err
	}
	a, err := DecodeAssociations(dec, env)
	if err != nil {
		return nil, err
	}

	if err := closeBlob(dec); err != nil {
		return nil, err
	}

	return a, nil
}
