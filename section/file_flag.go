package section

import (
	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
)

// FileFlag is the packed first word of a binary metadata file header.
type FileFlag struct {
	// Options is a packed field.
	// Bit 1 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bits 0, 2 and 3 are reserved and must be 0.
	// Bits 4-15 hold the magic number 0xED10.
	Options uint16
	// Version is the payload layout version.
	Version uint8
	// Compression is the format.CompressionType used for the payload.
	Compression uint8
}

// NewFileFlag creates a little-endian, zstd-compressed flag for the current version.
func NewFileFlag() FileFlag {
	return FileFlag{
		Options:     MagicMetadataV1,
		Version:     CurrentVersion,
		Compression: CompressionZstd,
	}
}

// IsLittleEndian returns whether the header fields and payload are little-endian.
func (f FileFlag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// IsBigEndian returns whether the header fields and payload are big-endian.
func (f FileFlag) IsBigEndian() bool {
	return (f.Options & EndiannessMask) != 0
}

// WithLittleEndian sets little-endian byte order.
func (f *FileFlag) WithLittleEndian() {
	f.Options &^= uint16(EndiannessMask)
}

// WithBigEndian sets big-endian byte order.
func (f *FileFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number from the Options field.
func (f FileFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// CompressionType returns the payload compression.
func (f FileFlag) CompressionType() format.CompressionType {
	return format.CompressionType(f.Compression)
}

// SetCompressionType sets the payload compression.
func (f *FileFlag) SetCompressionType(c format.CompressionType) {
	f.Compression = uint8(c)
}

// Validate checks magic number, reserved bits, version and compression.
func (f FileFlag) Validate() error {
	if f.GetMagicNumber() != MagicMetadataV1 {
		return errs.ErrInvalidMagicNumber
	}

	if f.Options&ReservedBitsMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	if f.Version == 0 || f.Version > CurrentVersion {
		return errs.ErrInvalidHeaderFlags
	}

	if !f.CompressionType().IsValid() {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the endian engine matching the flag.
func (f FileFlag) GetEndianEngine() endian.EndianEngine {
	return endian.ForBigEndian(f.IsBigEndian())
}
