// Package schema describes typed record layouts and provides views onto records.
//
// A Structure is an ordered list of Members. Each Member has a DataType, a
// name and a length (element count, 3 for a vector of three floats). When a
// member joins a Structure it receives a fixed offset; later members never
// move it, so records written with an older, shorter Structure still line up
// with a newer one that only appended members.
//
// Records are stored in a Chunk. Numeric members are packed little-endian in
// the chunk's byte block at their aligned offsets. String members cannot live
// in raw bytes, so each string element owns one slot of the chunk's string
// table and the member's offset is its first slot index.
//
// A Handle is positioned at one member of a Structure and reads or writes
// that member of one record through typed accessors:
//
//	s := schema.NewStructure("Motion")
//	_ = s.AddMember(schema.Float, 3, "velocity")
//	_ = s.AddMember(schema.Float, 3, "acceleration")
//
//	h := schema.NewHandle(s)
//	_ = h.SetPositionByMemberName("velocity")
//	h.SetFloat(0, 1)
//	h.SetFloat(1, 2)
//	h.SetFloat(2, 3)
//
// Typed accessors do not check the member type; calling Float on an Int32
// member panics like an out-of-range slice index. Value and SetValue are the
// checked alternatives and return errs.ErrTypeMismatch instead.
//
// A Structure is safe for concurrent reads once all members are added.
// Registry operations are guarded and may run concurrently with lookups.
package schema
