// Package docfmt implements document formats: a tree of plain structs that
// mirrors the metadata model, rendered by one Codec per format.
//
// The same model backs JSON, YAML, XML and MessagePack. Member values are
// stored as their Handle.Str text so every data type survives each codec
// unchanged. Index and value strings that a codec could alter are written
// as EncodedPrefix followed by base64.
package docfmt

import (
	"encoding/xml"
	"fmt"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

// MemberDoc describes one member.
type MemberDoc struct {
	Name   string `json:"name" yaml:"name" msgpack:"name" xml:"name,attr"`
	Type   string `json:"type" yaml:"type" msgpack:"type" xml:"type,attr"`
	Length int    `json:"length" yaml:"length" msgpack:"length" xml:"length,attr"`
}

// StructureDoc describes a structure.
type StructureDoc struct {
	XMLName xml.Name    `json:"-" yaml:"-" msgpack:"-" xml:"structure"`
	Name    string      `json:"name" yaml:"name" msgpack:"name" xml:"name,attr"`
	Members []MemberDoc `json:"members,omitempty" yaml:"members,omitempty" msgpack:"members,omitempty" xml:"member"`
}

// RangeDoc is the declared element range of a stream.
type RangeDoc struct {
	First string `json:"first" yaml:"first" msgpack:"first" xml:"first,attr"`
	Last  string `json:"last" yaml:"last" msgpack:"last" xml:"last,attr"`
}

// ValueDoc holds the element values of one member.
type ValueDoc struct {
	Member string   `json:"member" yaml:"member" msgpack:"member" xml:"member,attr"`
	Items  []string `json:"items" yaml:"items" msgpack:"items" xml:"item"`
}

// ElementDoc is one record of a stream.
type ElementDoc struct {
	Index  string     `json:"index" yaml:"index" msgpack:"index" xml:"index,attr"`
	Values []ValueDoc `json:"values,omitempty" yaml:"values,omitempty" msgpack:"values,omitempty" xml:"value"`
}

// StreamDoc describes a stream and its records.
type StreamDoc struct {
	XMLName     xml.Name     `json:"-" yaml:"-" msgpack:"-" xml:"stream"`
	Name        string       `json:"name" yaml:"name" msgpack:"name" xml:"name,attr"`
	Structure   string       `json:"structure" yaml:"structure" msgpack:"structure" xml:"structure,attr"`
	IndexType   string       `json:"indexType" yaml:"indexType" msgpack:"indexType" xml:"indexType,attr"`
	UseDefaults bool         `json:"useDefaults,omitempty" yaml:"useDefaults,omitempty" msgpack:"useDefaults,omitempty" xml:"useDefaults,attr,omitempty"`
	Dense       bool         `json:"dense,omitempty" yaml:"dense,omitempty" msgpack:"dense,omitempty" xml:"dense,attr,omitempty"`
	Range       *RangeDoc    `json:"range,omitempty" yaml:"range,omitempty" msgpack:"range,omitempty" xml:"range,omitempty"`
	Elements    []ElementDoc `json:"elements,omitempty" yaml:"elements,omitempty" msgpack:"elements,omitempty" xml:"element"`
}

// ChannelDoc describes a channel.
type ChannelDoc struct {
	XMLName xml.Name    `json:"-" yaml:"-" msgpack:"-" xml:"channel"`
	Name    string      `json:"name" yaml:"name" msgpack:"name" xml:"name,attr"`
	Streams []StreamDoc `json:"streams,omitempty" yaml:"streams,omitempty" msgpack:"streams,omitempty" xml:"stream"`
}

// AssociationsDoc describes an associations set. Name is used by file
// documents that hold several named sets.
type AssociationsDoc struct {
	XMLName  xml.Name     `json:"-" yaml:"-" msgpack:"-" xml:"associations"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty" xml:"name,attr,omitempty"`
	Channels []ChannelDoc `json:"channels,omitempty" yaml:"channels,omitempty" msgpack:"channels,omitempty" xml:"channel"`
}

// FileDoc is the content of a metadata file: structures plus named
// associations.
type FileDoc struct {
	XMLName      xml.Name          `json:"-" yaml:"-" msgpack:"-" xml:"metadata"`
	Structures   []StructureDoc    `json:"structures,omitempty" yaml:"structures,omitempty" msgpack:"structures,omitempty" xml:"structure"`
	Associations []AssociationsDoc `json:"associations,omitempty" yaml:"associations,omitempty" msgpack:"associations,omitempty" xml:"associations"`
}

// StructureToDoc converts a structure.
func StructureToDoc(s *schema.Structure) StructureDoc {
	d := StructureDoc{Name: s.Name(), Members: make([]MemberDoc, 0, s.Len())}
	for _, m := range s.Members() {
		d.Members = append(d.Members, MemberDoc{Name: m.Name(), Type: m.Type().String(), Length: m.Length()})
	}

	return d
}

// StructureFromDoc rebuilds a structure.
func StructureFromDoc(d StructureDoc) (*schema.Structure, error) {
	s := schema.NewStructure(d.Name)
	for _, m := range d.Members {
		dt, err := schema.ParseDataType(m.Type)
		if err != nil {
			return nil, fmt.Errorf("structure %q: %w", d.Name, err)
		}
		if err := s.AddMember(dt, m.Length, m.Name); err != nil {
			return nil, fmt.Errorf("structure %q: %w", d.Name, err)
		}
	}

	return s, nil
}

// StreamToDoc converts a stream and its records.
func StreamToDoc(s *assoc.Stream) StreamDoc {
	st := s.Structure()
	d := StreamDoc{
		Name:        s.Name(),
		Structure:   st.Name(),
		IndexType:   s.IndexType(),
		UseDefaults: s.UseDefaults(),
		Dense:       s.IsDense(),
		Elements:    make([]ElementDoc, 0, s.ElementCount()),
	}
	if first, last, ok := s.ElementRange(); ok {
		d.Range = &RangeDoc{First: encodeText(first.AsString()), Last: encodeText(last.AsString())}
	}

	for idx, h := range s.All() {
		e := ElementDoc{Index: encodeText(idx.AsString()), Values: make([]ValueDoc, 0, st.Len())}
		for i, m := range st.Members() {
			_ = h.SetPositionByMemberIndex(i)
			v := ValueDoc{Member: m.Name(), Items: make([]string, m.Length())}
			for dim := range v.Items {
				v.Items[dim] = encodeText(h.Str(dim))
			}
			e.Values = append(e.Values, v)
		}
		d.Elements = append(d.Elements, e)
	}

	return d
}

// StreamFromDoc rebuilds a stream, resolving its structure and indices
// through env. Members an element omits keep their defaults.
func StreamFromDoc(d StreamDoc, env serial.Env) (*assoc.Stream, error) {
	st, err := env.Structure(d.Structure)
	if err != nil {
		return nil, fmt.Errorf("stream %q: %w", d.Name, err)
	}

	s := assoc.NewStream(st, d.Name)
	if d.IndexType != "" {
		if err := s.SetIndexType(d.IndexType); err != nil {
			return nil, err
		}
	}
	s.SetUseDefaults(d.UseDefaults)
	if d.Range != nil {
		first, err := docIndex(env, s.IndexType(), d.Range.First)
		if err != nil {
			return nil, fmt.Errorf("stream %q range: %w", d.Name, err)
		}
		last, err := docIndex(env, s.IndexType(), d.Range.Last)
		if err != nil {
			return nil, fmt.Errorf("stream %q range: %w", d.Name, err)
		}
		if err := s.SetElementRange(first, last); err != nil {
			return nil, err
		}
	}
	if d.Dense {
		if err := s.UseDenseStorage(true); err != nil {
			return nil, err
		}
	}

	for _, e := range d.Elements {
		idx, err := docIndex(env, s.IndexType(), e.Index)
		if err != nil {
			return nil, fmt.Errorf("stream %q: %w", d.Name, err)
		}
		h := schema.NewHandle(st)
		for _, v := range e.Values {
			if err := h.SetPositionByMemberName(v.Member); err != nil {
				return nil, fmt.Errorf("stream %q element %s: %w", d.Name, e.Index, err)
			}
			if len(v.Items) > h.DataLength() {
				return nil, fmt.Errorf("%w: stream %q element %s member %q holds %d values, got %d",
					errs.ErrOutOfRange, d.Name, e.Index, v.Member, h.DataLength(), len(v.Items))
			}
			for dim, item := range v.Items {
				text, err := decodeText(item)
				if err != nil {
					return nil, fmt.Errorf("stream %q element %s: %w", d.Name, e.Index, err)
				}
				if err := h.FromStr(text, dim); err != nil {
					return nil, fmt.Errorf("stream %q element %s: %w", d.Name, e.Index, err)
				}
			}
		}
		if err := s.SetElement(idx, h); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func docIndex(env serial.Env, typeName, text string) (index.Index, error) {
	value, err := decodeText(text)
	if err != nil {
		return index.Index{}, err
	}

	return env.Index(typeName, value)
}

// ChannelToDoc converts a channel.
func ChannelToDoc(c *assoc.Channel) ChannelDoc {
	d := ChannelDoc{Name: c.Name(), Streams: make([]StreamDoc, 0, c.DataStreamCount())}
	for _, s := range c.All() {
		d.Streams = append(d.Streams, StreamToDoc(s))
	}

	return d
}

// ChannelFromDoc rebuilds a channel.
func ChannelFromDoc(d ChannelDoc, env serial.Env) (*assoc.Channel, error) {
	c := assoc.NewChannel(d.Name)
	for _, sd := range d.Streams {
		s, err := StreamFromDoc(sd, env)
		if err != nil {
			return nil, err
		}
		if c.FindDataStream(s.Name()) != nil {
			return nil, fmt.Errorf("%w: %q in channel %q", errs.ErrDuplicateStream, s.Name(), d.Name)
		}
		c.SetDataStream(s)
		s.Release()
	}

	return c, nil
}

// AssociationsToDoc converts an associations set stored under name.
func AssociationsToDoc(name string, a *assoc.Associations) AssociationsDoc {
	d := AssociationsDoc{Name: name, Channels: make([]ChannelDoc, 0, a.ChannelCount())}
	for _, c := range a.All() {
		d.Channels = append(d.Channels, ChannelToDoc(c))
	}

	return d
}

// AssociationsFromDoc rebuilds an associations set.
func AssociationsFromDoc(d AssociationsDoc, env serial.Env) (*assoc.Associations, error) {
	a := assoc.NewAssociations()
	for _, cd := range d.Channels {
		c, err := ChannelFromDoc(cd, env)
		if err != nil {
			return nil, err
		}
		if a.FindChannel(c.Name()) != nil {
			return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateChannel, c.Name())
		}
		a.SetChannel(c)
		c.Release()
	}

	return a, nil
}
