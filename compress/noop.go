package compress

// NoOpCompressor passes payloads through unchanged.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a compressor that returns its input as-is.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data without copying it.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data without copying it.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
