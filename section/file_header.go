package section

import (
	"github.com/arloliu/mdata/errs"
)

// FileHeader is the fixed-size header at the start of a binary metadata file.
type FileHeader struct {
	Flag FileFlag // byte offset 0-3
	// StructureCount is the number of structures stored in the payload.
	StructureCount uint32 // byte offset 4-7
	// AssociationsCount is the number of named associations stored in the payload.
	AssociationsCount uint32 // byte offset 8-11
	// PayloadSize is the size in bytes of the stored, possibly compressed, payload.
	PayloadSize uint64 // byte offset 16-23
	// Checksum is the xxHash64 of the stored payload.
	Checksum uint64 // byte offset 24-31
}

// NewFileHeader creates a header with a default flag. Counts, size and
// checksum are filled in by the writer once the payload is encoded.
func NewFileHeader() *FileHeader {
	return &FileHeader{Flag: NewFileFlag()}
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing header (must be exactly 32 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 32 bytes, or flag validation errors
func (h *FileHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag.Options = uint16(data[0]) | (uint16(data[1]) << 8)
	h.Flag.Version = data[2]
	h.Flag.Compression = data[3]

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.StructureCount = engine.Uint32(data[4:8])
	h.AssociationsCount = engine.Uint32(data[8:12])
	if engine.Uint32(data[12:16]) != 0 {
		return errs.ErrInvalidHeaderFlags
	}
	h.PayloadSize = engine.Uint64(data[16:24])
	h.Checksum = engine.Uint64(data[24:32])

	return nil
}

// Bytes serializes the FileHeader into a byte slice.
func (h *FileHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine := h.Flag.GetEndianEngine()

	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.Version
	b[3] = h.Flag.Compression
	engine.PutUint32(b[4:8], h.StructureCount)
	engine.PutUint32(b[8:12], h.AssociationsCount)
	engine.PutUint64(b[16:24], h.PayloadSize)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// ParseFileHeader parses a FileHeader from the start of data.
//
// Parameters:
//   - data: Byte slice containing header (must be at least 32 bytes)
//
// Returns:
//   - FileHeader: Parsed header struct
//   - error: ErrInvalidHeaderSize or flag validation errors
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < HeaderSize {
		return FileHeader{}, errs.ErrInvalidHeaderSize
	}

	h := FileHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return FileHeader{}, err
	}

	return h, nil
}
