package schema

import (
	"fmt"
	"math"

	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
)

var le = endian.GetLittleEndianEngine()

// slot returns the bytes of element dim of the positioned member, panicking
// on a type mismatch or out-of-range element.
func (h *Handle) slot(t DataType, dim int) []byte {
	m := h.checkAccess(t, dim)
	off := m.ElementOffset(dim)

	return h.chunk.data[off : off+t.Size()]
}

func (h *Handle) checkAccess(t DataType, dim int) Member {
	if h.chunk == nil {
		panic("schema: handle has no data")
	}
	m := h.Member()
	if m.typ != t {
		panic(fmt.Sprintf("schema: %s accessor used on %s member %q", t, m.typ, m.name))
	}
	if dim < 0 || dim >= m.length {
		panic(fmt.Sprintf("schema: element %d out of range for member %q of length %d", dim, m.name, m.length))
	}

	return m
}

func (h *Handle) Bool(dim int) bool {
	return h.slot(Bool, dim)[0] != 0
}

func (h *Handle) SetBool(dim int, v bool) {
	var b byte
	if v {
		b = 1
	}
	h.slot(Bool, dim)[0] = b
}

func (h *Handle) Int8(dim int) int8 {
	return int8(h.slot(Int8, dim)[0]) //nolint:gosec
}

func (h *Handle) SetInt8(dim int, v int8) {
	h.slot(Int8, dim)[0] = byte(v)
}

func (h *Handle) Int16(dim int) int16 {
	return int16(le.Uint16(h.slot(Int16, dim))) //nolint:gosec
}

func (h *Handle) SetInt16(dim int, v int16) {
	le.PutUint16(h.slot(Int16, dim), uint16(v)) //nolint:gosec
}

func (h *Handle) Int32(dim int) int32 {
	return int32(le.Uint32(h.slot(Int32, dim))) //nolint:gosec
}

func (h *Handle) SetInt32(dim int, v int32) {
	le.PutUint32(h.slot(Int32, dim), uint32(v)) //nolint:gosec
}

func (h *Handle) Int64(dim int) int64 {
	return int64(le.Uint64(h.slot(Int64, dim))) //nolint:gosec
}

func (h *Handle) SetInt64(dim int, v int64) {
	le.PutUint64(h.slot(Int64, dim), uint64(v)) //nolint:gosec
}

func (h *Handle) UInt8(dim int) uint8 {
	return h.slot(UInt8, dim)[0]
}

func (h *Handle) SetUInt8(dim int, v uint8) {
	h.slot(UInt8, dim)[0] = v
}

func (h *Handle) UInt16(dim int) uint16 {
	return le.Uint16(h.slot(UInt16, dim))
}

func (h *Handle) SetUInt16(dim int, v uint16) {
	le.PutUint16(h.slot(UInt16, dim), v)
}

func (h *Handle) UInt32(dim int) uint32 {
	return le.Uint32(h.slot(UInt32, dim))
}

func (h *Handle) SetUInt32(dim int, v uint32) {
	le.PutUint32(h.slot(UInt32, dim), v)
}

func (h *Handle) UInt64(dim int) uint64 {
	return le.Uint64(h.slot(UInt64, dim))
}

func (h *Handle) SetUInt64(dim int, v uint64) {
	le.PutUint64(h.slot(UInt64, dim), v)
}

// Float returns element dim of a Float member.
func (h *Handle) Float(dim int) float32 {
	return math.Float32frombits(le.Uint32(h.slot(Float, dim)))
}

func (h *Handle) SetFloat(dim int, v float32) {
	le.PutUint32(h.slot(Float, dim), math.Float32bits(v))
}

// Double returns element dim of a Double member.
func (h *Handle) Double(dim int) float64 {
	return math.Float64frombits(le.Uint64(h.slot(Double, dim)))
}

func (h *Handle) SetDouble(dim int, v float64) {
	le.PutUint64(h.slot(Double, dim), math.Float64bits(v))
}

// FloatMatrix returns element dim of a FloatMatrix4x4 member in row-major order.
func (h *Handle) FloatMatrix(dim int) [MatrixElements]float32 {
	b := h.slot(FloatMatrix4x4, dim)
	var m [MatrixElements]float32
	for i := range m {
		m[i] = math.Float32frombits(le.Uint32(b[i*4:]))
	}

	return m
}

func (h *Handle) SetFloatMatrix(dim int, m [MatrixElements]float32) {
	b := h.slot(FloatMatrix4x4, dim)
	for i, v := range m {
		le.PutUint32(b[i*4:], math.Float32bits(v))
	}
}

// DoubleMatrix returns element dim of a DoubleMatrix4x4 member in row-major order.
func (h *Handle) DoubleMatrix(dim int) [MatrixElements]float64 {
	b := h.slot(DoubleMatrix4x4, dim)
	var m [MatrixElements]float64
	for i := range m {
		m[i] = math.Float64frombits(le.Uint64(b[i*8:]))
	}

	return m
}

func (h *Handle) SetDoubleMatrix(dim int, m [MatrixElements]float64) {
	b := h.slot(DoubleMatrix4x4, dim)
	for i, v := range m {
		le.PutUint64(b[i*8:], math.Float64bits(v))
	}
}

// String returns element dim of a String member.
func (h *Handle) String(dim int) string {
	m := h.checkAccess(String, dim)
	return h.chunk.strs[m.ElementOffset(dim)]
}

func (h *Handle) SetString(dim int, v string) {
	m := h.checkAccess(String, dim)
	h.chunk.strs[m.ElementOffset(dim)] = v
}

// Floats copies every element of a Float member.
func (h *Handle) Floats() []float32 {
	out := make([]float32, h.DataLength())
	for i := range out {
		out[i] = h.Float(i)
	}

	return out
}

// SetFloats writes vals to the leading elements of a Float member.
func (h *Handle) SetFloats(vals ...float32) {
	for i, v := range vals {
		h.SetFloat(i, v)
	}
}

// Doubles copies every element of a Double member.
func (h *Handle) Doubles() []float64 {
	out := make([]float64, h.DataLength())
	for i := range out {
		out[i] = h.Double(i)
	}

	return out
}

// SetDoubles writes vals to the leading elements of a Double member.
func (h *Handle) SetDoubles(vals ...float64) {
	for i, v := range vals {
		h.SetDouble(i, v)
	}
}

// Int32s copies every element of an Int32 member.
func (h *Handle) Int32s() []int32 {
	out := make([]int32, h.DataLength())
	for i := range out {
		out[i] = h.Int32(i)
	}

	return out
}

// SetInt32s writes vals to the leading elements of an Int32 member.
func (h *Handle) SetInt32s(vals ...int32) {
	for i, v := range vals {
		h.SetInt32(i, v)
	}
}

// Strings copies every element of a String member.
func (h *Handle) Strings() []string {
	out := make([]string, h.DataLength())
	for i := range out {
		out[i] = h.String(i)
	}

	return out
}

func (h *Handle) checkValue(dim int) (Member, error) {
	if h.chunk == nil {
		return Member{}, errs.ErrNoHandleData
	}
	m, ok := h.structure.Member(h.pos)
	if !ok {
		return Member{}, fmt.Errorf("%w: no member at position %d", errs.ErrOutOfRange, h.pos)
	}
	if dim < 0 || dim >= m.length {
		return Member{}, fmt.Errorf("%w: element %d of member %q", errs.ErrOutOfRange, dim, m.name)
	}

	return m, nil
}

// Value returns element dim of the positioned member as its natural Go type:
// bool, int8..int64, uint8..uint64, float32, float64, [16]float32,
// [16]float64 or string.
func (h *Handle) Value(dim int) (any, error) {
	m, err := h.checkValue(dim)
	if err != nil {
		return nil, err
	}

	switch m.typ {
	case Bool:
		return h.Bool(dim), nil
	case Int8:
		return h.Int8(dim), nil
	case Int16:
		return h.Int16(dim), nil
	case Int32:
		return h.Int32(dim), nil
	case Int64:
		return h.Int64(dim), nil
	case UInt8:
		return h.UInt8(dim), nil
	case UInt16:
		return h.UInt16(dim), nil
	case UInt32:
		return h.UInt32(dim), nil
	case UInt64:
		return h.UInt64(dim), nil
	case Float:
		return h.Float(dim), nil
	case Double:
		return h.Double(dim), nil
	case FloatMatrix4x4:
		return h.FloatMatrix(dim), nil
	case DoubleMatrix4x4:
		return h.DoubleMatrix(dim), nil
	case String:
		return h.String(dim), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidDataType, m.typ)
	}
}

// SetValue writes element dim of the positioned member. v must have the
// member's natural Go type (see Value).
//
// Returns:
//   - error: ErrTypeMismatch when v has another type, ErrOutOfRange or ErrNoHandleData
func (h *Handle) SetValue(dim int, v any) error {
	m, err := h.checkValue(dim)
	if err != nil {
		return err
	}

	ok := true
	switch m.typ {
	case Bool:
		var x bool
		if x, ok = v.(bool); ok {
			h.SetBool(dim, x)
		}
	case Int8:
		var x int8
		if x, ok = v.(int8); ok {
			h.SetInt8(dim, x)
		}
	case Int16:
		var x int16
		if x, ok = v.(int16); ok {
			h.SetInt16(dim, x)
		}
	case Int32:
		var x int32
		if x, ok = v.(int32); ok {
			h.SetInt32(dim, x)
		}
	case Int64:
		var x int64
		if x, ok = v.(int64); ok {
			h.SetInt64(dim, x)
		}
	case UInt8:
		var x uint8
		if x, ok = v.(uint8); ok {
			h.SetUInt8(dim, x)
		}
	case UInt16:
		var x uint16
		if x, ok = v.(uint16); ok {
			h.SetUInt16(dim, x)
		}
	case UInt32:
		var x uint32
		if x, ok = v.(uint32); ok {
			h.SetUInt32(dim, x)
		}
	case UInt64:
		var x uint64
		if x, ok = v.(uint64); ok {
			h.SetUInt64(dim, x)
		}
	case Float:
		var x float32
		if x, ok = v.(float32); ok {
			h.SetFloat(dim, x)
		}
	case Double:
		var x float64
		if x, ok = v.(float64); ok {
			h.SetDouble(dim, x)
		}
	case FloatMatrix4x4:
		var x [MatrixElements]float32
		if x, ok = v.([MatrixElements]float32); ok {
			h.SetFloatMatrix(dim, x)
		}
	case DoubleMatrix4x4:
		var x [MatrixElements]float64
		if x, ok = v.([MatrixElements]float64); ok {
			h.SetDoubleMatrix(dim, x)
		}
	case String:
		var x string
		if x, ok = v.(string); ok {
			h.SetString(dim, x)
		}
	default:
		return fmt.Errorf("%w: %s", errs.ErrInvalidDataType, m.typ)
	}

	if !ok {
		return fmt.Errorf("%w: %T for %s member %q", errs.ErrTypeMismatch, v, m.typ, m.name)
	}

	return nil
}
