package section

import (
	"testing"

	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/stretchr/testify/require"
)

func TestNewFileHeader(t *testing.T) {
	header := NewFileHeader()

	require.NotNil(t, header)
	require.Equal(t, uint16(MagicMetadataV1), header.Flag.GetMagicNumber())
	require.Equal(t, uint8(CurrentVersion), header.Flag.Version)
	require.Equal(t, format.CompressionZstd, header.Flag.CompressionType())
	require.True(t, header.Flag.IsLittleEndian())
	require.NoError(t, header.Flag.Validate())
}

func TestFileHeader_Parse(t *testing.T) {
	t.Run("Round trip little endian", func(t *testing.T) {
		original := NewFileHeader()
		original.StructureCount = 3
		original.AssociationsCount = 2
		original.PayloadSize = 1 << 33
		original.Checksum = 0xDEADBEEFCAFEF00D

		parsed, err := ParseFileHeader(original.Bytes())
		require.NoError(t, err)
		require.Equal(t, *original, parsed)
	})

	t.Run("Round trip big endian", func(t *testing.T) {
		original := NewFileHeader()
		original.Flag.WithBigEndian()
		original.Flag.SetCompressionType(format.CompressionLZ4)
		original.StructureCount = 1
		original.PayloadSize = 77

		data := original.Bytes()
		require.Equal(t, []byte{0, 0, 0, 1}, data[4:8])

		parsed, err := ParseFileHeader(data)
		require.NoError(t, err)
		require.True(t, parsed.Flag.IsBigEndian())
		require.Equal(t, endian.GetBigEndianEngine(), parsed.Flag.GetEndianEngine())
		require.Equal(t, *original, parsed)
	})

	t.Run("Invalid size", func(t *testing.T) {
		header := &FileHeader{}
		require.ErrorIs(t, header.Parse([]byte{1, 2, 3}), errs.ErrInvalidHeaderSize)

		_, err := ParseFileHeader(make([]byte, 10))
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("Invalid magic number", func(t *testing.T) {
		data := make([]byte, HeaderSize)
		_, err := ParseFileHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("Unknown compression", func(t *testing.T) {
		h := NewFileHeader()
		h.Flag.Compression = 0x9
		_, err := ParseFileHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
	})

	t.Run("Future version", func(t *testing.T) {
		h := NewFileHeader()
		h.Flag.Version = CurrentVersion + 1
		_, err := ParseFileHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
	})

	t.Run("Reserved bits set", func(t *testing.T) {
		h := NewFileHeader()
		h.Flag.Options |= 0x0001
		_, err := ParseFileHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
	})
}
