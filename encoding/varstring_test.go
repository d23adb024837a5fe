package encoding

import (
	"math"
	"strings"
	"testing"

	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
	"github.com/stretchr/testify/require"
)

func TestVarStringEncoder_Write(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	t.Run("Empty string", func(t *testing.T) {
		encoder := NewVarStringEncoder(engine)
		defer encoder.Reset()

		require.NoError(t, encoder.Write(""))
		require.Equal(t, 1, encoder.Len())
		require.Equal(t, 1, encoder.Size())
	})

	t.Run("Short string", func(t *testing.T) {
		encoder := NewVarStringEncoder(engine)
		defer encoder.Reset()

		require.NoError(t, encoder.Write("hello"))
		b := encoder.Bytes()
		require.Equal(t, byte(5), b[0])
		require.Equal(t, "hello", string(b[1:]))
	})

	t.Run("Long string uses multi-byte length", func(t *testing.T) {
		encoder := NewVarStringEncoder(engine)
		defer encoder.Reset()

		long := strings.Repeat("a", 300)
		require.NoError(t, encoder.Write(long))
		require.Equal(t, 302, encoder.Size())
	})
}

func TestVarStringRoundTrip(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		encoder := NewVarStringEncoder(engine)

		require.NoError(t, encoder.Write("position"))
		require.NoError(t, encoder.WriteSlice([]string{"a", "", "ccc"}))
		encoder.WriteUvarint(1 << 40)
		encoder.WriteVarint(-12345)
		encoder.WriteBool(true)
		encoder.WriteUint8(0xAB)
		encoder.WriteUint16(0xBEEF)
		encoder.WriteUint32(0xDEADBEEF)
		encoder.WriteUint64(math.MaxUint64 - 1)
		encoder.WriteFloat32(1.5)
		encoder.WriteFloat64(-2.25)
		encoder.WriteBytes([]byte{1, 2, 3})

		data := append([]byte(nil), encoder.Bytes()...)
		encoder.Reset()

		d := NewVarStringDecoder(data, engine)
		require.Equal(t, "position", d.Read())
		require.Equal(t, []string{"a", "", "ccc"}, d.ReadSlice())
		require.Equal(t, uint64(1<<40), d.ReadUvarint())
		require.Equal(t, int64(-12345), d.ReadVarint())
		require.True(t, d.ReadBool())
		require.Equal(t, uint8(0xAB), d.ReadUint8())
		require.Equal(t, uint16(0xBEEF), d.ReadUint16())
		require.Equal(t, uint32(0xDEADBEEF), d.ReadUint32())
		require.Equal(t, uint64(math.MaxUint64-1), d.ReadUint64())
		require.Equal(t, float32(1.5), d.ReadFloat32())
		require.Equal(t, -2.25, d.ReadFloat64())
		require.Equal(t, []byte{1, 2, 3}, d.ReadBytes())
		require.NoError(t, d.Err())
		require.Equal(t, 0, d.Remaining())
	}
}

func TestVarStringDecoder_Truncated(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	t.Run("String longer than input", func(t *testing.T) {
		d := NewVarStringDecoder([]byte{10, 'a', 'b'}, engine)
		require.Equal(t, "", d.Read())
		require.ErrorIs(t, d.Err(), errs.ErrMalformedPayload)
	})

	t.Run("Error is sticky", func(t *testing.T) {
		d := NewVarStringDecoder([]byte{1}, engine)
		_ = d.ReadUint32()
		require.Error(t, d.Err())
		require.Equal(t, uint8(0), d.ReadUint8())
		require.ErrorIs(t, d.Err(), errs.ErrMalformedPayload)
	})

	t.Run("Empty uvarint", func(t *testing.T) {
		d := NewVarStringDecoder(nil, engine)
		_ = d.ReadUvarint()
		require.ErrorIs(t, d.Err(), errs.ErrMalformedPayload)
	})

	t.Run("Count exceeds input", func(t *testing.T) {
		d := NewVarStringDecoder([]byte{200, 1}, engine)
		require.Equal(t, 0, d.ReadCount())
		require.Error(t, d.Err())
	})
}
