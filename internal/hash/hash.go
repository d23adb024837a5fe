// Package hash wraps xxHash64 for structure fingerprints and payload checksums.
package hash

import "github.com/cespare/xxhash/v2"

// Sum computes the xxHash64 of data.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest accumulates a fingerprint from a sequence of fields.
//
// Each field is followed by a zero separator so that ("ab", "c") and
// ("a", "bc") hash differently.
type Digest struct {
	d *xxhash.Digest
}

// NewDigest returns an empty Digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// String adds a string field.
func (d *Digest) String(s string) *Digest {
	_, _ = d.d.WriteString(s)
	_, _ = d.d.Write([]byte{0})

	return d
}

// Uint adds an unsigned integer field.
func (d *Digest) Uint(v uint64) *Digest {
	var b [9]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	_, _ = d.d.Write(b[:])

	return d
}

// Sum64 returns the fingerprint of every field added so far.
func (d *Digest) Sum64() uint64 {
	return d.d.Sum64()
}
