// Package sample builds fixed metadata fixtures used by serializer and
// accessor tests.
package sample

import (
	"fmt"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
)

// Set is a group of registered structures and associations that use them.
type Set struct {
	Structures   *schema.Registry
	Associations *assoc.Associations
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("sample: %v", err))
	}
}

// Motion returns {float[3] velocity, float[3] acceleration}.
func Motion() *schema.Structure {
	s := schema.NewStructure("Motion")
	must(s.AddMember(schema.Float, 3, "velocity"))
	must(s.AddMember(schema.Float, 3, "acceleration"))

	return s
}

// Label returns {string text, int32 weight}.
func Label() *schema.Structure {
	s := schema.NewStructure("Label")
	must(s.AddMember(schema.String, 1, "text"))
	must(s.AddMember(schema.Int32, 1, "weight"))

	return s
}

// AllTypes returns a structure with a two element member of every type,
// named after the type.
func AllTypes() *schema.Structure {
	s := schema.NewStructure("AllTypes")
	for _, dt := range schema.DataTypes() {
		must(s.AddMember(dt, 2, dt.String()))
	}

	return s
}

func fillAllTypes(h *schema.Handle, seed int) {
	for i, m := range h.Structure().Members() {
		must(h.SetPositionByMemberIndex(i))
		for dim := range m.Length() {
			v := seed*10 + dim + 1
			switch m.Type() {
			case schema.Bool:
				h.SetBool(dim, v%2 == 0)
			case schema.String:
				h.SetString(dim, fmt.Sprintf("s%d \"quoted\"\n", v))
			case schema.FloatMatrix4x4:
				var mat [schema.MatrixElements]float32
				for k := range mat {
					mat[k] = float32(v) + float32(k)/4
				}
				h.SetFloatMatrix(dim, mat)
			case schema.DoubleMatrix4x4:
				var mat [schema.MatrixElements]float64
				for k := range mat {
					mat[k] = float64(v) + float64(k)/3
				}
				h.SetDoubleMatrix(dim, mat)
			case schema.Float:
				h.SetFloat(dim, float32(v)/3)
			case schema.Double:
				h.SetDouble(dim, float64(v)/7)
			default:
				must(h.SetValue(dim, intValue(m.Type(), v)))
			}
		}
	}
}

func intValue(dt schema.DataType, v int) any {
	switch dt {
	case schema.Int8:
		return int8(-v)
	case schema.Int16:
		return int16(-v * 100)
	case schema.Int32:
		return int32(-v * 10000)
	case schema.Int64:
		return int64(-v) << 40
	case schema.UInt8:
		return uint8(v)
	case schema.UInt16:
		return uint16(v * 100)
	case schema.UInt32:
		return uint32(v * 100000)
	default:
		return uint64(v) << 50
	}
}

// New builds the fixture set:
//   - channel "vertex": dense "motion" stream of 4 elements plus sparse
//     "labels" stream
//   - channel "edge": "pairs" stream keyed by IndexPair and "named" stream
//     keyed by IndexString with default elision
//   - channel "all": "types" stream holding every data type
func New() *Set {
	motion, label, all := Motion(), Label(), AllTypes()
	reg := schema.NewRegistry()
	must(reg.Register(motion))
	must(reg.Register(label))
	must(reg.Register(all))

	a := assoc.NewAssociations()

	vertex := a.Channel("vertex")
	ms, err := assoc.NewDenseStream(motion, "motion", 4)
	must(err)
	for i := range uint32(4) {
		h, err := ms.EditElement(index.Simple(i))
		must(err)
		h.SetFloats(float32(i), float32(i)+0.5, -float32(i))
	}
	vertex.SetDataStream(ms)
	ms.Release()

	ls := assoc.NewStream(label, "labels")
	for _, i := range []uint32{1, 3} {
		h := schema.NewHandle(label)
		h.SetString(0, fmt.Sprintf("vertex %d", i))
		must(h.SetPositionByMemberName("weight"))
		h.SetInt32(0, int32(i)*7)
		must(ls.SetElement(index.Simple(i), h))
	}
	vertex.SetDataStream(ls)
	ls.Release()

	edge := a.Channel("edge")
	ps := assoc.NewStream(label, "pairs")
	must(ps.SetIndexType(index.PairTypeName))
	for _, pair := range [][2]uint32{{0, 1}, {1, 2}, {2, 0}} {
		h := schema.NewHandle(label)
		h.SetString(0, fmt.Sprintf("%d-%d", pair[0], pair[1]))
		must(ps.SetElement(index.Pair(pair[0], pair[1]), h))
	}
	edge.SetDataStream(ps)
	ps.Release()

	ns := assoc.NewStream(motion, "named")
	must(ns.SetIndexType(index.StringTypeName))
	ns.SetUseDefaults(true)
	for i, name := range []string{"front", "back side", "top"} {
		h := schema.NewHandle(motion)
		if i != 1 {
			h.SetFloats(1, float32(i), 2)
		}
		must(ns.SetElement(index.String(name), h))
	}
	edge.SetDataStream(ns)
	ns.Release()

	types := assoc.NewStream(all, "types")
	for i := range 3 {
		h := schema.NewHandle(all)
		fillAllTypes(h, i)
		must(types.SetElement(index.Simple(uint32(i)*5), h))
	}
	a.Channel("all").SetDataStream(types)
	types.Release()

	return &Set{Structures: reg, Associations: a}
}
