package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngines(t *testing.T) {
	t.Run("Little endian", func(t *testing.T) {
		engine := GetLittleEndianEngine()
		buf := engine.AppendUint32(nil, 0x01020304)
		require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
		require.Equal(t, uint32(0x01020304), engine.Uint32(buf))
		require.False(t, IsBigEndian(engine))
	})

	t.Run("Big endian", func(t *testing.T) {
		engine := GetBigEndianEngine()
		buf := engine.AppendUint16(nil, 0x0102)
		require.Equal(t, []byte{0x01, 0x02}, buf)
		require.True(t, IsBigEndian(engine))
	})

	t.Run("ForBigEndian", func(t *testing.T) {
		require.Equal(t, GetBigEndianEngine(), ForBigEndian(true))
		require.Equal(t, GetLittleEndianEngine(), ForBigEndian(false))
	})
}

func TestNativeEndian(t *testing.T) {
	native := CheckEndianness()
	require.True(t, native == binary.LittleEndian || native == binary.BigEndian)
	require.Equal(t, native == binary.LittleEndian, IsNativeLittleEndian())
	require.Equal(t, IsNativeLittleEndian(), CompareNativeEndian(GetLittleEndianEngine()))
}
