package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
)

// VarStringDecoder reads values written by VarStringEncoder from a byte slice.
//
// The first failure is sticky: later reads return zero values and Err keeps
// reporting the original error wrapped around errs.ErrMalformedPayload.
type VarStringDecoder struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
	err    error
}

// NewVarStringDecoder creates a decoder over data using engine for fixed-width values.
func NewVarStringDecoder(data []byte, engine endian.EndianEngine) *VarStringDecoder {
	return &VarStringDecoder{data: data, engine: engine}
}

// Err returns the first decoding error.
func (d *VarStringDecoder) Err() error {
	return d.err
}

// Remaining returns the number of unread bytes.
func (d *VarStringDecoder) Remaining() int {
	return len(d.data) - d.pos
}

// Offset returns the current read position.
func (d *VarStringDecoder) Offset() int {
	return d.pos
}

func (d *VarStringDecoder) fail(what string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: truncated %s at offset %d", errs.ErrMalformedPayload, what, d.pos)
	}
}

func (d *VarStringDecoder) take(n int, what string) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Remaining() < n {
		d.fail(what)
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n

	return b
}

// ReadUvarint reads an unsigned varint.
func (d *VarStringDecoder) ReadUvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		d.fail("uvarint")
		return 0
	}
	d.pos += n

	return v
}

// ReadVarint reads a zigzag encoded signed varint.
func (d *VarStringDecoder) ReadVarint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		d.fail("varint")
		return 0
	}
	d.pos += n

	return v
}

// ReadCount reads a uvarint count and checks it against the remaining input,
// assuming every counted item occupies at least one byte.
func (d *VarStringDecoder) ReadCount() int {
	v := d.ReadUvarint()
	if d.err != nil {
		return 0
	}
	if v > uint64(d.Remaining()) {
		d.fail("count")
		return 0
	}

	return int(v)
}

// Read reads a length-prefixed string.
func (d *VarStringDecoder) Read() string {
	n := d.ReadUvarint()
	if d.err != nil {
		return ""
	}
	if n > uint64(d.Remaining()) || n > MaxStringLength {
		d.fail("string")
		return ""
	}

	return string(d.take(int(n), "string"))
}

// ReadSlice reads a count followed by that many strings.
func (d *VarStringDecoder) ReadSlice() []string {
	n := d.ReadCount()
	if d.err != nil {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.Read())
	}

	return out
}

// ReadBytes reads a length-prefixed byte slice. The result aliases the input.
func (d *VarStringDecoder) ReadBytes() []byte {
	n := d.ReadUvarint()
	if d.err != nil {
		return nil
	}
	if n > uint64(d.Remaining()) {
		d.fail("bytes")
		return nil
	}

	return d.take(int(n), "bytes")
}

func (d *VarStringDecoder) ReadBool() bool {
	b := d.take(1, "bool")
	return b != nil && b[0] != 0
}

func (d *VarStringDecoder) ReadUint8() uint8 {
	b := d.take(1, "uint8")
	if b == nil {
		return 0
	}

	return b[0]
}

func (d *VarStringDecoder) ReadUint16() uint16 {
	b := d.take(2, "uint16")
	if b == nil {
		return 0
	}

	return d.engine.Uint16(b)
}

func (d *VarStringDecoder) ReadUint32() uint32 {
	b := d.take(4, "uint32")
	if b == nil {
		return 0
	}

	return d.engine.Uint32(b)
}

func (d *VarStringDecoder) ReadUint64() uint64 {
	b := d.take(8, "uint64")
	if b == nil {
		return 0
	}

	return d.engine.Uint64(b)
}

func (d *VarStringDecoder) ReadFloat32() float32 {
	return math.Float32frombits(d.ReadUint32())
}

func (d *VarStringDecoder) ReadFloat64() float64 {
	return math.Float64frombits(d.ReadUint64())
}
