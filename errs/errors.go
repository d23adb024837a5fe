// Package errs defines the sentinel errors returned by mdata packages.
//
// Callers match them with errors.Is; packages wrap them with fmt.Errorf and
// the offending name or index so the message stays human readable.
package errs

import "errors"

// Schema and naming errors.
var (
	ErrInvalidName           = errors.New("invalid name")
	ErrInvalidLength         = errors.New("invalid member length")
	ErrInvalidDataType       = errors.New("invalid data type")
	ErrDuplicateMember       = errors.New("duplicate member name")
	ErrDuplicateStructure    = errors.New("duplicate structure name")
	ErrDuplicateStream       = errors.New("duplicate stream name")
	ErrDuplicateChannel      = errors.New("duplicate channel name")
	ErrDuplicateFormat       = errors.New("duplicate format name")
	ErrDuplicateIndexType    = errors.New("duplicate index type name")
	ErrDuplicateExtension    = errors.New("duplicate file extension")
	ErrStructureMismatch     = errors.New("structure mismatch")
	ErrTypeMismatch          = errors.New("data type mismatch")
	ErrIndexTypeMismatch     = errors.New("index type mismatch")
	ErrStreamNotEmpty        = errors.New("stream is not empty")
	ErrIncompatibleStructure = errors.New("incompatible structure")
	ErrElementExists         = errors.New("element already exists")
)

// Lookup errors.
var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrStructureNotFound = errors.New("structure not found")
	ErrElementNotFound   = errors.New("element not found")
	ErrStreamNotFound    = errors.New("stream not found")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrFormatNotFound    = errors.New("format not found")
	ErrOutOfRange        = errors.New("value out of range")
	ErrNoHandleData      = errors.New("handle has no data")
)

// Dense storage errors.
var (
	ErrDenseUnsupported   = errors.New("index type does not support dense storage")
	ErrNoElementRange     = errors.New("element range is not set")
	ErrDenseRangeTooLarge = errors.New("dense element range too large")
)

// Index creation errors.
var (
	ErrNoCreator  = errors.New("no creator registered for index type")
	ErrBadSyntax  = errors.New("bad syntax")
	ErrExcessData = errors.New("excess data after value")
)

// Binary layout and payload errors.
var (
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidHeaderFlags = errors.New("invalid header flags")
	ErrChecksumMismatch   = errors.New("payload checksum mismatch")
	ErrMalformedPayload   = errors.New("malformed payload")
)

// File access errors.
var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrNoFileName           = errors.New("no file name set")
)

// Host object errors.
var (
	ErrDuplicateNode = errors.New("duplicate node name")
	ErrNodeNotFound  = errors.New("node not found")
)
