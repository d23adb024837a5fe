package compress

// ZstdCompressor provides Zstandard compression for metadata payloads.
//
// It gives the best ratio of the builtin codecs and is the default for
// binary files. The pure Go implementation is used unless the module is
// built with the gozstd tag and cgo enabled.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
