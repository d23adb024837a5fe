// Package section defines the fixed-size header of binary metadata files.
//
// A binary metadata file (.mdb) is laid out as:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (32 bytes, fixed)                                │
//	│  - Flag (4 bytes): magic, endianness, version, codec    │
//	│  - StructureCount (4 bytes)                             │
//	│  - AssociationsCount (4 bytes)                          │
//	│  - Reserved (4 bytes, zero)                             │
//	│  - PayloadSize (8 bytes)                                │
//	│  - Checksum (8 bytes): xxHash64 of the stored payload   │
//	├─────────────────────────────────────────────────────────┤
//	│ Payload (PayloadSize bytes)                             │
//	│  - Binary-format structures then named associations    │
//	│  - Compressed with the codec named in the flag          │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Format
//
//	Bytes  | Field             | Type   | Description
//	-------|-------------------|--------|----------------------------------------
//	0-1    | Flag.Options      | uint16 | magic (bits 4-15), big-endian (bit 1)
//	2      | Flag.Version      | uint8  | format version, currently 1
//	3      | Flag.Compression  | uint8  | format.CompressionType of the payload
//	4-7    | StructureCount    | uint32 | number of structures in the payload
//	8-11   | AssociationsCount | uint32 | number of named associations
//	12-15  | Reserved          | uint32 | zero
//	16-23  | PayloadSize       | uint64 | stored payload size in bytes
//	24-31  | Checksum          | uint64 | xxHash64 of the stored payload
//
// Flag.Options is always little-endian so a reader can discover the byte
// order of the remaining fields.
package section
