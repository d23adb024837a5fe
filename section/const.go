package section

import "github.com/arloliu/mdata/format"

const (
	// Bit masks
	EndiannessMask   = 0x0002 // Mask for endianness bit (bit 1)
	ReservedBitsMask = 0x000D // Mask for reserved bits (bits 0, 2, 3)
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicMetadataV1 identifies a binary metadata file.
	MagicMetadataV1 = 0xED10

	// CurrentVersion is the payload layout version written by this package.
	CurrentVersion = 1

	CompressionNone = uint8(format.CompressionNone)
	CompressionZstd = uint8(format.CompressionZstd)
	CompressionS2   = uint8(format.CompressionS2)
	CompressionLZ4  = uint8(format.CompressionLZ4)
)

const (
	HeaderSize    = 32         // fixed header size in bytes
	PayloadOffset = HeaderSize // byte offset where the payload starts
)
