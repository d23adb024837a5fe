package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	t.Run("Write and reset", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.MustWrite([]byte("ab"))
		_ = bb.WriteByte('c')
		_, _ = bb.WriteString("de")
		_, _ = bb.Write([]byte("f"))
		require.Equal(t, "abcdef", string(bb.Bytes()))
		require.Equal(t, 6, bb.Len())

		capBefore := bb.Cap()
		bb.Reset()
		require.Equal(t, 0, bb.Len())
		require.Equal(t, capBefore, bb.Cap())
	})

	t.Run("Grow keeps content", func(t *testing.T) {
		bb := NewByteBuffer(2)
		bb.MustWrite([]byte("xy"))
		bb.Grow(100)
		require.GreaterOrEqual(t, bb.Cap()-bb.Len(), 100)
		require.Equal(t, "xy", string(bb.Bytes()))
	})

	t.Run("Grow small buffer by step", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(1)
		require.Equal(t, GrowStep, bb.Cap())
	})

	t.Run("Grow large buffer by quarter", func(t *testing.T) {
		bb := NewByteBuffer(8 * GrowStep)
		bb.MustWrite(make([]byte, 8*GrowStep))
		bb.Grow(1)
		require.Equal(t, 10*GrowStep, bb.Cap())
		require.Equal(t, 8*GrowStep, bb.Len())
	})

	t.Run("WriteTo", func(t *testing.T) {
		bb := NewByteBuffer(4)
		bb.MustWrite([]byte("data"))
		var out bytes.Buffer
		n, err := bb.WriteTo(&out)
		require.NoError(t, err)
		require.Equal(t, int64(4), n)
		require.Equal(t, "data", out.String())
	})
}

func TestByteBufferPool(t *testing.T) {
	t.Run("Reused buffers are empty", func(t *testing.T) {
		bb := GetPayloadBuffer()
		bb.MustWrite([]byte("record"))
		PutPayloadBuffer(bb)

		again := GetPayloadBuffer()
		require.Equal(t, 0, again.Len())
		PutPayloadBuffer(again)
	})

	t.Run("Oversized buffers dropped", func(t *testing.T) {
		p := NewByteBufferPool(4, 16)
		bb := NewByteBuffer(64)
		p.Put(bb)
		got := p.Get()
		require.LessOrEqual(t, got.Cap(), 16)
	})

	t.Run("Nil put ignored", func(t *testing.T) {
		require.NotPanics(t, func() { PutPayloadBuffer(nil) })
		bb := GetPayloadBuffer()
		require.GreaterOrEqual(t, bb.Cap(), 0)
		PutPayloadBuffer(bb)
	})
}
