// Package compress provides the payload codecs used by binary metadata files.
//
// A binary file stores its serialized structures and associations as one
// payload; the header records which Codec compressed it so any reader can
// pick the matching one with GetCodec.
package compress

import (
	"fmt"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
)

// Compressor compresses an encoded metadata payload.
type Compressor interface {
	// Compress compresses data and returns the result.
	//
	// The returned slice is owned by the caller and data is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// Implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses data and returns the original payload.
	//
	// Corrupted input or input produced by another algorithm yields an error.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
//
// Returns:
//   - Codec: shared codec instance, safe for concurrent use
//   - error: ErrInvalidHeaderFlags for an unknown compression type
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: unsupported compression type %s", errs.ErrInvalidHeaderFlags, compressionType)
}
