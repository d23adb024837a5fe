package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/mdata/errs"
)

// Str formats element dim of the positioned member as text.
//
// Integers use base 10, floats the shortest representation that parses back
// to the same value, bools "true"/"false", matrices 16 space separated
// scalars and strings are returned verbatim.
func (h *Handle) Str(dim int) string {
	m := h.Member()
	switch m.typ {
	case Bool:
		return strconv.FormatBool(h.Bool(dim))
	case Int8:
		return strconv.FormatInt(int64(h.Int8(dim)), 10)
	case Int16:
		return strconv.FormatInt(int64(h.Int16(dim)), 10)
	case Int32:
		return strconv.FormatInt(int64(h.Int32(dim)), 10)
	case Int64:
		return strconv.FormatInt(h.Int64(dim), 10)
	case UInt8:
		return strconv.FormatUint(uint64(h.UInt8(dim)), 10)
	case UInt16:
		return strconv.FormatUint(uint64(h.UInt16(dim)), 10)
	case UInt32:
		return strconv.FormatUint(uint64(h.UInt32(dim)), 10)
	case UInt64:
		return strconv.FormatUint(h.UInt64(dim), 10)
	case Float:
		return strconv.FormatFloat(float64(h.Float(dim)), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(h.Double(dim), 'g', -1, 64)
	case FloatMatrix4x4:
		mat := h.FloatMatrix(dim)
		parts := make([]string, len(mat))
		for i, v := range mat {
			parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}

		return strings.Join(parts, " ")
	case DoubleMatrix4x4:
		mat := h.DoubleMatrix(dim)
		parts := make([]string, len(mat))
		for i, v := range mat {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}

		return strings.Join(parts, " ")
	case String:
		return h.String(dim)
	default:
		return ""
	}
}

// FromStr parses value into element dim of the positioned member, using the
// form produced by Str.
//
// Returns:
//   - error: ErrBadSyntax for unparsable text or a value out of the type's
//     range, ErrOutOfRange for a bad element, ErrNoHandleData
func (h *Handle) FromStr(value string, dim int) error {
	m, err := h.checkValue(dim)
	if err != nil {
		return err
	}

	bad := func(err error) error {
		return fmt.Errorf("%w: %q for %s member %q: %v", errs.ErrBadSyntax, value, m.typ, m.name, err)
	}

	switch m.typ {
	case Bool:
		v, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return bad(err)
		}
		h.SetBool(dim, v)
	case Int8, Int16, Int32, Int64:
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, m.typ.Size()*8)
		if err != nil {
			return bad(err)
		}
		switch m.typ {
		case Int8:
			h.SetInt8(dim, int8(v))
		case Int16:
			h.SetInt16(dim, int16(v))
		case Int32:
			h.SetInt32(dim, int32(v))
		default:
			h.SetInt64(dim, v)
		}
	case UInt8, UInt16, UInt32, UInt64:
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, m.typ.Size()*8)
		if err != nil {
			return bad(err)
		}
		switch m.typ {
		case UInt8:
			h.SetUInt8(dim, uint8(v))
		case UInt16:
			h.SetUInt16(dim, uint16(v))
		case UInt32:
			h.SetUInt32(dim, uint32(v))
		default:
			h.SetUInt64(dim, v)
		}
	case Float:
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err != nil {
			return bad(err)
		}
		h.SetFloat(dim, float32(v))
	case Double:
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return bad(err)
		}
		h.SetDouble(dim, v)
	case FloatMatrix4x4:
		vals, err := parseMatrix(value, 32)
		if err != nil {
			return bad(err)
		}
		var mat [MatrixElements]float32
		for i, v := range vals {
			mat[i] = float32(v)
		}
		h.SetFloatMatrix(dim, mat)
	case DoubleMatrix4x4:
		vals, err := parseMatrix(value, 64)
		if err != nil {
			return bad(err)
		}
		h.SetDoubleMatrix(dim, [MatrixElements]float64(vals))
	case String:
		h.SetString(dim, value)
	default:
		return fmt.Errorf("%w: %s", errs.ErrInvalidDataType, m.typ)
	}

	return nil
}

func parseMatrix(value string, bitSize int) ([]float64, error) {
	fields := strings.Fields(value)
	if len(fields) != MatrixElements {
		return nil, fmt.Errorf("want %d values, got %d", MatrixElements, len(fields))
	}
	out := make([]float64, MatrixElements)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, bitSize)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}
