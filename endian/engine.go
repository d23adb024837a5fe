// Package endian provides byte order engines for the binary record codecs.
//
// An EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so the
// same value can both decode fixed slots in a packed record and append values
// to an output buffer.
//
// In-memory records always use the little-endian engine. Binary files record
// the engine they were written with, and readers pick the matching engine:
//
//	engine := endian.ForBigEndian(header.Flag.IsBigEndian())
//	v := engine.Uint32(buf)
//
// All functions in this package are safe for concurrent use. The returned
// engines are stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness reports the host byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ForBigEndian returns the big-endian engine when big is true and the
// little-endian engine otherwise.
func ForBigEndian(big bool) EndianEngine {
	if big {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}
