package binfmt

import (
	"fmt"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/encoding"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

const (
	flagUseDefaults uint8 = 1 << iota
	flagDense
	flagRange
)

// EncodeStructure appends the body of a structure.
func EncodeStructure(enc *encoding.VarStringEncoder, s *schema.Structure) error {
	if err := enc.Write(s.Name()); err != nil {
		return err
	}
	enc.WriteUvarint(uint64(s.Len()))
	for _, m := range s.Members() {
		enc.WriteUint8(uint8(m.Type()))
		enc.WriteUvarint(uint64(m.Length())) //nolint:gosec
		if err := enc.Write(m.Name()); err != nil {
			return err
		}
	}

	return nil
}

// DecodeStructure reads the body of a structure.
func DecodeStructure(dec *encoding.VarStringDecoder) (*schema.Structure, error) {
	s := schema.NewStructure(dec.Read())
	n := dec.ReadCount()
	for range n {
		typ := schema.DataType(dec.ReadUint8())
		length := dec.ReadUvarint()
		name := dec.Read()
		if err := dec.Err(); err != nil {
			return nil, err
		}
		if length > uint64(encoding.MaxStringLength) {
			return nil, fmt.Errorf("%w: member %q length %d", errs.ErrInvalidLength, name, length)
		}
		if err := s.AddMember(typ, int(length), name); err != nil {
			return nil, err
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

func encodeRecord(enc *encoding.VarStringEncoder, h *schema.Handle) error {
	for i, m := range h.Structure().Members() {
		if err := h.SetPositionByMemberIndex(i); err != nil {
			return err
		}
		for dim := range m.Length() {
			switch m.Type() {
			case schema.Bool:
				enc.WriteBool(h.Bool(dim))
			case schema.Int8:
				enc.WriteUint8(uint8(h.Int8(dim)))
			case schema.Int16:
				enc.WriteUint16(uint16(h.Int16(dim)))
			case schema.Int32:
				enc.WriteUint32(uint32(h.Int32(dim)))
			case schema.Int64:
				enc.WriteUint64(uint64(h.Int64(dim)))
			case schema.UInt8:
				enc.WriteUint8(h.UInt8(dim))
			case schema.UInt16:
				enc.WriteUint16(h.UInt16(dim))
			case schema.UInt32:
				enc.WriteUint32(h.UInt32(dim))
			case schema.UInt64:
				enc.WriteUint64(h.UInt64(dim))
			case schema.Float:
				enc.WriteFloat32(h.Float(dim))
			case schema.Double:
				enc.WriteFloat64(h.Double(dim))
			case schema.FloatMatrix4x4:
				for _, v := range h.FloatMatrix(dim) {
					enc.WriteFloat32(v)
				}
			case schema.DoubleMatrix4x4:
				for _, v := range h.DoubleMatrix(dim) {
					enc.WriteFloat64(v)
				}
			case schema.String:
				if err := enc.Write(h.String(dim)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: %s", errs.ErrInvalidDataType, m.Type())
			}
		}
	}

	return nil
}

func decodeRecord(dec *encoding.VarStringDecoder, h *schema.Handle) error {
	for i, m := range h.Structure().Members() {
		if err := h.SetPositionByMemberIndex(i); err != nil {
			return err
		}
		for dim := range m.Length() {
			switch m.Type() {
			case schema.Bool:
				h.SetBool(dim, dec.ReadBool())
			case schema.Int8:
				h.SetInt8(dim, int8(dec.ReadUint8()))
			case schema.Int16:
				h.SetInt16(dim, int16(dec.ReadUint16()))
			case schema.Int32:
				h.SetInt32(dim, int32(dec.ReadUint32()))
			case schema.Int64:
				h.SetInt64(dim, int64(dec.ReadUint64()))
			case schema.UInt8:
				h.SetUInt8(dim, dec.ReadUint8())
			case schema.UInt16:
				h.SetUInt16(dim, dec.ReadUint16())
			case schema.UInt32:
				h.SetUInt32(dim, dec.ReadUint32())
			case schema.UInt64:
				h.SetUInt64(dim, dec.ReadUint64())
			case schema.Float:
				h.SetFloat(dim, dec.ReadFloat32())
			case schema.Double:
				h.SetDouble(dim, dec.ReadFloat64())
			case schema.FloatMatrix4x4:
				var mat [schema.MatrixElements]float32
				for k := range mat {
					mat[k] = dec.ReadFloat32()
				}
				h.SetFloatMatrix(dim, mat)
			case schema.DoubleMatrix4x4:
				var mat [schema.MatrixElements]float64
				for k := range mat {
					mat[k] = dec.ReadFloat64()
				}
				h.SetDoubleMatrix(dim, mat)
			case schema.String:
				h.SetString(dim, dec.Read())
			}
		}
		if err := dec.Err(); err != nil {
			return err
		}
	}

	return nil
}

// EncodeStream appends the body of a stream.
func EncodeStream(enc *encoding.VarStringEncoder, s *assoc.Stream) error {
	st := s.Structure()
	for _, text := range []string{s.Name(), st.Name()} {
		if err := enc.Write(text); err != nil {
			return err
		}
	}
	enc.WriteUint64(st.Fingerprint())
	if err := enc.Write(s.IndexType()); err != nil {
		return err
	}

	var flags uint8
	if s.UseDefaults() {
		flags |= flagUseDefaults
	}
	if s.IsDense() {
		flags |= flagDense
	}
	first, last, hasRange := s.ElementRange()
	if hasRange {
		flags |= flagRange
	}
	enc.WriteUint8(flags)
	if hasRange {
		if err := enc.WriteSlice([]string{first.AsString(), last.AsString()}); err != nil {
			return err
		}
	}

	enc.WriteUvarint(uint64(s.ElementCount())) //nolint:gosec
	for idx, h := range s.All() {
		if err := enc.Write(idx.AsString()); err != nil {
			return err
		}
		if err := encodeRecord(enc, h); err != nil {
			return err
		}
	}

	return nil
}

// DecodeStream reads the body of a stream, resolving its structure and
// indices through env.
//
// Returns:
//   - *assoc.Stream: the decoded stream
//   - error: ErrMalformedPayload, ErrStructureNotFound, or
//     ErrStructureMismatch when the resolved structure has another layout
func DecodeStream(dec *encoding.VarStringDecoder, env serial.Env) (*assoc.Stream, error) {
	name := dec.Read()
	structName := dec.Read()
	fingerprint := dec.ReadUint64()
	indexType := dec.Read()
	flags := dec.ReadUint8()
	var bounds []string
	if flags&flagRange != 0 {
		bounds = dec.ReadSlice()
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	st, err := env.Structure(structName)
	if err != nil {
		return nil, err
	}
	if st.Fingerprint() != fingerprint {
		return nil, fmt.Errorf("%w: structure %q of stream %q changed layout", errs.ErrStructureMismatch, structName, name)
	}

	s := assoc.NewStream(st, name)
	if err := s.SetIndexType(indexType); err != nil {
		return nil, err
	}
	s.SetUseDefaults(flags&flagUseDefaults != 0)
	if flags&flagRange != 0 {
		if len(bounds) != 2 {
			return nil, fmt.Errorf("%w: element range of %d bounds", errs.ErrMalformedPayload, len(bounds))
		}
		first, err := env.Index(indexType, bounds[0])
		if err != nil {
			return nil, err
		}
		last, err := env.Index(indexType, bounds[1])
		if err != nil {
			return nil, err
		}
		if err := s.SetElementRange(first, last); err != nil {
			return nil, err
		}
	}
	if flags&flagDense != 0 {
		if err := s.UseDenseStorage(true); err != nil {
			return nil, err
		}
	}

	count := dec.ReadCount()
	h := schema.NewHandle(st)
	for range count {
		text := dec.Read()
		if err := dec.Err(); err != nil {
			return nil, err
		}
		idx, err := env.Index(indexType, text)
		if err != nil {
			return nil, err
		}
		if err := decodeRecord(dec, h); err != nil {
			return nil, err
		}
		if err := s.SetElement(idx, h); err != nil {
			return nil, err
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// EncodeChannel appends the body of a channel.
func EncodeChannel(enc *encoding.VarStringEncoder, c *assoc.Channel) error {
	if err := enc.Write(c.Name()); err != nil {
		return err
	}
	enc.WriteUvarint(uint64(c.DataStreamCount())) //nolint:gosec
	for _, s := range c.All() {
		if err := EncodeStream(enc, s); err != nil {
			return err
		}
	}

	return nil
}

// DecodeChannel reads the body of a channel.
func DecodeChannel(dec *encoding.VarStringDecoder, env serial.Env) (*assoc.Channel, error) {
	c := assoc.NewChannel(dec.Read())
	n := dec.ReadCount()
	for range n {
		s, err := DecodeStream(dec, env)
		if err != nil {
			return nil, err
		}
		if c.FindDataStream(s.Name()) != nil {
			return nil, fmt.Errorf("%w: %q in channel %q", errs.ErrDuplicateStream, s.Name(), c.Name())
		}
		c.SetDataStream(s)
		s.Release()
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	return c, nil
}

// EncodeAssociations appends the body of an associations set.
func EncodeAssociations(enc *encoding.VarStringEncoder, a *assoc.Associations) error {
	enc.WriteUvarint(uint64(a.ChannelCount())) //nolint:gosec
	for _, c := range a.All() {
		if err := EncodeChannel(enc, c); err != nil {
			return err
		}
	}

	return nil
}

// DecodeAssociations reads the body of an associations set.
func DecodeAssociations(dec *encoding.VarStringDecoder, env serial.Env) (*assoc.Associations, error) {
	a := assoc.NewAssociations()
	n := dec.ReadCount()
	for range n {
		c, err := DecodeChannel(dec, env)
		if err != nil {
			return nil, err
		}
		if a.FindChannel(c.Name()) != nil {
			return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateChannel, c.Name())
		}
		a.SetChannel(c)
		c.Release()
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	return a, nil
}
