package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/internal/pool"
)

// MaxStringLength is the maximum byte length of an encoded string.
const MaxStringLength = math.MaxInt32

// VarStringEncoder writes length-prefixed strings and fixed-width scalars
// into a pooled buffer.
//
// Each string is encoded as:
//   - uvarint: byte length
//   - N bytes: string data (UTF-8)
//
// Fixed-width integers and floats use the encoder's byte order. Lengths and
// counts use unsigned varints, which are byte order independent.
type VarStringEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

// NewVarStringEncoder creates a new encoder using the specified endian engine.
//
// Parameters:
//   - engine: Endian engine for fixed-width values
//
// Returns:
//   - *VarStringEncoder: A new encoder backed by a pooled payload buffer
func NewVarStringEncoder(engine endian.EndianEngine) *VarStringEncoder {
	return &VarStringEncoder{
		engine: engine,
		buf:    pool.GetPayloadBuffer(),
	}
}

// Engine returns the byte order used for fixed-width values.
func (e *VarStringEncoder) Engine() endian.EndianEngine {
	return e.engine
}

// Write encodes a single string with a uvarint length prefix.
//
// Parameters:
//   - text: String to encode
//
// Returns:
//   - error: nil if successful, error if the string exceeds MaxStringLength
func (e *VarStringEncoder) Write(text string) error {
	if len(text) > MaxStringLength {
		return fmt.Errorf("text length %d exceeds maximum %d", len(text), MaxStringLength)
	}

	e.count++
	e.buf.Grow(binary.MaxVarintLen64 + len(text))
	e.buf.B = binary.AppendUvarint(e.buf.B, uint64(len(text)))
	e.buf.B = append(e.buf.B, text...)

	return nil
}

// WriteSlice encodes a count followed by each string of texts.
func (e *VarStringEncoder) WriteSlice(texts []string) error {
	e.WriteUvarint(uint64(len(texts)))
	for _, text := range texts {
		if err := e.Write(text); err != nil {
			return err
		}
	}

	return nil
}

// WriteUvarint encodes an unsigned integer as a varint.
func (e *VarStringEncoder) WriteUvarint(val uint64) {
	e.buf.B = binary.AppendUvarint(e.buf.B, val)
}

// WriteVarint encodes a signed integer as a zigzag varint.
func (e *VarStringEncoder) WriteVarint(val int64) {
	e.buf.B = binary.AppendVarint(e.buf.B, val)
}

// WriteBool encodes a bool as one byte.
func (e *VarStringEncoder) WriteBool(val bool) {
	var b byte
	if val {
		b = 1
	}
	e.buf.B = append(e.buf.B, b)
}

func (e *VarStringEncoder) WriteUint8(val uint8) {
	e.buf.B = append(e.buf.B, val)
}

func (e *VarStringEncoder) WriteUint16(val uint16) {
	e.buf.B = e.engine.AppendUint16(e.buf.B, val)
}

func (e *VarStringEncoder) WriteUint32(val uint32) {
	e.buf.B = e.engine.AppendUint32(e.buf.B, val)
}

func (e *VarStringEncoder) WriteUint64(val uint64) {
	e.buf.B = e.engine.AppendUint64(e.buf.B, val)
}

// WriteFloat32 encodes the IEEE 754 bits of val.
func (e *VarStringEncoder) WriteFloat32(val float32) {
	e.WriteUint32(math.Float32bits(val))
}

// WriteFloat64 encodes the IEEE 754 bits of val.
func (e *VarStringEncoder) WriteFloat64(val float64) {
	e.WriteUint64(math.Float64bits(val))
}

// WriteBytes appends raw bytes with a uvarint length prefix.
func (e *VarStringEncoder) WriteBytes(data []byte) {
	e.buf.Grow(binary.MaxVarintLen64 + len(data))
	e.buf.B = binary.AppendUvarint(e.buf.B, uint64(len(data)))
	e.buf.B = append(e.buf.B, data...)
}

// Bytes returns the encoded data.
//
// The returned slice shares the underlying buffer with the encoder.
// Do not modify it, and do not use it after Reset.
func (e *VarStringEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of strings encoded.
func (e *VarStringEncoder) Len() int {
	return e.count
}

// Size returns the total size of encoded data in bytes.
func (e *VarStringEncoder) Size() int {
	return e.buf.Len()
}

// Reset clears the encoder state and returns the buffer to the pool.
//
// After calling Reset, the encoder should not be used again.
func (e *VarStringEncoder) Reset() {
	if e.buf != nil {
		pool.PutPayloadBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}
