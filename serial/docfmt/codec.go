package docfmt

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Codec renders document values in one syntax.
type Codec interface {
	// Name returns the format name the codec registers under.
	Name() string
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
}

func syntaxError(c Codec, err error) error {
	return fmt.Errorf("%w: %s: %v", errs.ErrBadSyntax, c.Name(), err)
}

// JSONCodec renders indented JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return format.JSON }

func (JSONCodec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func (c JSONCodec) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return syntaxError(c, err)
	}

	return nil
}

// YAMLCodec renders YAML with two space indentation.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return format.YAML }

func (YAMLCodec) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}

func (c YAMLCodec) Decode(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return syntaxError(c, err)
	}

	return nil
}

// XMLCodec renders indented XML with a declaration.
type XMLCodec struct{}

func (XMLCodec) Name() string { return format.XML }

func (XMLCodec) Encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")

	return err
}

func (c XMLCodec) Decode(r io.Reader, v any) error {
	if err := xml.NewDecoder(r).Decode(v); err != nil {
		return syntaxError(c, err)
	}

	return nil
}

// MessagePackCodec renders MessagePack using pooled encoders.
type MessagePackCodec struct{}

func (MessagePackCodec) Name() string { return format.MessagePack }

func (MessagePackCodec) Encode(w io.Writer, v any) error {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(w)

	return enc.Encode(v)
}

func (c MessagePackCodec) Decode(r io.Reader, v any) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(r)
	if err := dec.Decode(v); err != nil {
		return syntaxError(c, err)
	}

	return nil
}

// Codecs returns every built-in codec.
func Codecs() []Codec {
	return []Codec{JSONCodec{}, YAMLCodec{}, XMLCodec{}, MessagePackCodec{}}
}

// CodecByName returns the built-in codec registered under name.
func CodecByName(name string) (Codec, error) {
	for _, c := range Codecs() {
		if c.Name() == name {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", errs.ErrFormatNotFound, name)
}
