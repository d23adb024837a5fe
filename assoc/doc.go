// Package assoc stores indexed records and groups them into named sets.
//
// A Stream holds records of one schema.Structure addressed by index.Index
// values of one index type. A Channel is a set of uniquely named Streams and
// Associations is a set of uniquely named Channels; Associations is the unit
// a host object owns and an accessor persists.
//
// # Storage
//
// A Stream stores its records either sparsely, in a sorted slice searched by
// binary search, or densely, in one packed arena covering the element range
// [first, last] plus a presence bitmap. Both modes report the same elements in
// the same index order; switching with UseDenseStorage never changes what a
// reader observes.
//
// # Sharing
//
// Streams, Channels and Associations are handles over a shared body. Share
// returns another handle over the same body and costs no copy. Every mutating
// method first detaches the handle onto a private deep copy when the body is
// shared, and MakeUnique does so explicitly. Structures stay shared by
// pointer.
//
// Read-only accessors (FindDataStream, FindChannel, Element, All) never copy.
// The handles and children they return must not be mutated; use the editing
// accessors (DataStream, Channel, EditElement) instead, which detach the
// parent first.
//
// Multiple goroutines may read one body concurrently. A handle must not be
// mutated while another goroutine reads through the same handle.
package assoc
