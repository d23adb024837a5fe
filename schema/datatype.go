package schema

import (
	"fmt"

	"github.com/arloliu/mdata/errs"
)

// DataType identifies the element type of a Member.
type DataType uint8

const (
	Bool DataType = iota
	Double
	DoubleMatrix4x4
	Float
	FloatMatrix4x4
	Int8
	Int16
	Int32
	Int64
	String
	UInt8
	UInt16
	UInt32
	UInt64
	InvalidType
)

// MatrixElements is the number of scalars in one 4x4 matrix element.
const MatrixElements = 16

var dataTypeNames = [...]string{
	Bool:            "bool",
	Double:          "double",
	DoubleMatrix4x4: "doubleMatrix4x4",
	Float:           "float",
	FloatMatrix4x4:  "floatMatrix4x4",
	Int8:            "int8",
	Int16:           "int16",
	Int32:           "int32",
	Int64:           "int64",
	String:          "string",
	UInt8:           "uint8",
	UInt16:          "uint16",
	UInt32:          "uint32",
	UInt64:          "uint64",
}

var dataTypeSizes = [...]int{
	Bool:            1,
	Double:          8,
	DoubleMatrix4x4: 8 * MatrixElements,
	Float:           4,
	FloatMatrix4x4:  4 * MatrixElements,
	Int8:            1,
	Int16:           2,
	Int32:           4,
	Int64:           8,
	String:          0,
	UInt8:           1,
	UInt16:          2,
	UInt32:          4,
	UInt64:          8,
}

var dataTypeAlignments = [...]int{
	Bool:            1,
	Double:          8,
	DoubleMatrix4x4: 8,
	Float:           4,
	FloatMatrix4x4:  4,
	Int8:            1,
	Int16:           2,
	Int32:           4,
	Int64:           8,
	String:          1,
	UInt8:           1,
	UInt16:          2,
	UInt32:          4,
	UInt64:          8,
}

// IsValid reports whether t is a known data type.
func (t DataType) IsValid() bool {
	return t < InvalidType
}

// String returns the canonical type name, e.g. "float" or "doubleMatrix4x4".
func (t DataType) String() string {
	if !t.IsValid() {
		return "invalid"
	}

	return dataTypeNames[t]
}

// Size returns the bytes one element occupies in a chunk's packed block.
// String elements live in the string table and report 0.
func (t DataType) Size() int {
	if !t.IsValid() {
		return 0
	}

	return dataTypeSizes[t]
}

// Alignment returns the byte alignment of one element.
func (t DataType) Alignment() int {
	if !t.IsValid() {
		return 1
	}

	return dataTypeAlignments[t]
}

// IsMatrix reports whether t is one of the 4x4 matrix types.
func (t DataType) IsMatrix() bool {
	return t == FloatMatrix4x4 || t == DoubleMatrix4x4
}

// ParseDataType returns the DataType whose canonical name is name.
func ParseDataType(name string) (DataType, error) {
	for i, n := range dataTypeNames {
		if n == name {
			return DataType(i), nil //nolint:gosec
		}
	}

	return InvalidType, fmt.Errorf("%w: %q", errs.ErrInvalidDataType, name)
}

// DataTypes returns every valid data type in declaration order.
func DataTypes() []DataType {
	out := make([]DataType, 0, int(InvalidType))
	for t := Bool; t < InvalidType; t++ {
		out = append(out, t)
	}

	return out
}
