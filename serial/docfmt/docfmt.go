package docfmt

import (
	"io"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

// Format serializes every layer through the document model with one codec.
type Format struct {
	codec Codec
}

// New creates a document format over codec.
func New(codec Codec) *Format {
	return &Format{codec: codec}
}

func (f *Format) FormatType() string { return f.codec.Name() }

func (f *Format) Description() string { return f.codec.Name() + " document" }

// Codec returns the underlying codec.
func (f *Format) Codec() Codec {
	return f.codec
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

// Register installs the serializers of every layer for codec.
func Register(reg *serial.Registry, codec Codec) (func(), error) {
	f := New(codec)

	return reg.Install(serial.Serializers{
		Structure:    StructureFormat{f},
		Stream:       StreamFormat{f},
		Channel:      ChannelFormat{f},
		Associations: AssociationsFormat{f},
	})
}

// RegisterAll installs every built-in codec. On failure nothing stays
// registered.
func RegisterAll(reg *serial.Registry) (func(), error) {
	var undo []func()
	uninstall := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
	for _, c := range Codecs() {
		d, err := Register(reg, c)
		if err != nil {
			uninstall()
			return nil, err
		}
		undo = append(undo, d)
	}

	return uninstall, nil
}

func (f StructureFormat) Write(s *schema.Structure, w io.Writer) error {
	d := StructureToDoc(s)
	return f.codec.Encode(w, &d)
}

func (f StructureFormat) Read(r io.Reader, _ serial.Env) (*schema.Structure, error) {
	var d StructureDoc
	if err := f.codec.Decode(r, &d); err != nil {
		return nil, err
	}

	return StructureFromDoc(d)
}

func (f StreamFormat) Write(s *assoc.Stream, w io.Writer) error {
	d := StreamToDoc(s)
	return f.codec.Encode(w, &d)
}

func (f StreamFormat) Read(r io.Reader, env serial.Env) (*assoc.Stream, error) {
	var d StreamDoc
	if err := f.codec.Decode(r, &d); err != nil {
		return nil, err
	}

	return StreamFromDoc(d, env)
}

func (f ChannelFormat) Write(c *assoc.Channel, w io.Writer) error {
	d := ChannelToDoc(c)
	return f.codec.Encode(w, &d)
}

func (f ChannelFormat) Read(r io.Reader, env serial.Env) (*assoc.Channel, error) {
	var d ChannelDoc
	if err := f.codec.Decode(r, &d); err != nil {
		return nil, err
	}

	return ChannelFromDoc(d, env)
}

func (f AssociationsFormat) Write(a *assoc.Associations, w io.Writer) error {
	d := AssociationsToDoc("", a)
	return f.codec.Encode(w, &d)
}

func (f AssociationsFormat) Read(r io.Reader, env serial.Env) (*assoc.Associations, error) {
	var d AssociationsDoc
	if err := f.codec.Decode(r, &d); err != nil {
		return nil, err
	}

	return AssociationsFromDoc(d, env)
}
