package index

import (
	"cmp"
	"strconv"
	"testing"

	"github.com/arloliu/mdata/errs"
	"github.com/stretchr/testify/require"
)

// frame is a custom dense index kind used by the tests.
type frame struct {
	n uint64
}

func (f frame) TypeName() string { return "Frame" }
func (f frame) AsString() string { return "f" + strconv.FormatUint(f.n, 10) }
func (f frame) Clone() Type      { return f }

func (f frame) Compare(other Type) int {
	return cmp.Compare(f.n, other.(frame).n)
}

func (f frame) DenseSpaceBetween(other Type) (uint64, error) {
	return other.(frame).n - f.n, nil
}

func (f frame) Advance(n uint64) (Type, error) {
	return frame{n: f.n + n}, nil
}

// tag is a custom kind without dense support.
type tag string

func (t tag) TypeName() string { return "Tag" }
func (t tag) AsString() string { return string(t) }
func (t tag) Clone() Type      { return t }

func (t tag) Compare(other Type) int {
	return cmp.Compare(string(t), string(other.(tag)))
}

func sampleIndices() []Index {
	return []Index{
		Simple(0), Simple(1), Simple(40000),
		Pair(0, 0), Pair(0, 9), Pair(1, 0), Pair(3, 4),
		String(""), String("a"), String("b"), String("foo"),
		FromType(frame{n: 2}), FromType(frame{n: 5}),
		FromType(tag("x")), FromType(tag("y")),
	}
}

func TestIndex_Accessors(t *testing.T) {
	require.Equal(t, Simple(0), Index{})
	require.Equal(t, Count(7), Simple(7).Count())
	require.False(t, Simple(7).IsComplex())

	a, b := Pair(3, 4).PairValues()
	require.Equal(t, uint32(3), a)
	require.Equal(t, uint32(4), b)
	require.Equal(t, "3,4", Pair(3, 4).AsString())
	require.Equal(t, PairTypeName, Pair(3, 4).TypeName())
	require.True(t, Pair(3, 4).IsComplex())

	require.Equal(t, "foo", String("foo").AsString())
	require.Equal(t, "foo", String("foo").StringValue())
	require.Equal(t, StringTypeName, String("foo").TypeName())
	require.Equal(t, "IndexString(foo)", String("foo").String())

	custom := FromType(frame{n: 3})
	require.Equal(t, "Frame", custom.TypeName())
	require.Equal(t, "f3", custom.AsString())
	require.Equal(t, KindCustom, custom.Kind())
	require.NotNil(t, custom.Complex())
	require.True(t, custom.Clone().Equal(custom))
}

func TestIndex_TotalOrder(t *testing.T) {
	idx := sampleIndices()

	for _, a := range idx {
		require.False(t, a.Less(a), "irreflexive: %s", a)
		require.True(t, a.Equal(a))

		for _, b := range idx {
			lt, eq, gt := a.Less(b), a.Equal(b), b.Less(a)
			n := 0
			for _, v := range []bool{lt, eq, gt} {
				if v {
					n++
				}
			}
			require.Equal(t, 1, n, "trichotomy: %s vs %s", a, b)
			require.Equal(t, -a.Compare(b), b.Compare(a))

			for _, c := range idx {
				if a.Less(b) && b.Less(c) {
					require.True(t, a.Less(c), "transitive: %s < %s < %s", a, b, c)
				}
			}
		}
	}
}

func TestIndex_KindOrdering(t *testing.T) {
	require.True(t, Simple(100).Less(Pair(0, 0)))
	require.True(t, Pair(9, 9).Less(String("")))
	require.True(t, String("zzz").Less(FromType(tag("a"))))
	require.True(t, FromType(frame{n: 100}).Less(FromType(tag("a"))))
	require.True(t, Pair(1, 0).Less(Pair(1, 1)))
	require.True(t, Pair(0, 99).Less(Pair(1, 0)))
}

func TestIndex_Dense(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		require.True(t, Simple(0).SupportsDenseMode())
		n, err := Simple(3).DenseSpaceBetween(Simple(10))
		require.NoError(t, err)
		require.Equal(t, uint64(7), n)

		next, err := Simple(3).Advance(7)
		require.NoError(t, err)
		require.Equal(t, Simple(10), next)

		_, err = Simple(10).DenseSpaceBetween(Simple(3))
		require.ErrorIs(t, err, errs.ErrOutOfRange)
		_, err = Simple(^uint32(0)).Advance(1)
		require.ErrorIs(t, err, errs.ErrOutOfRange)
	})

	t.Run("Pair", func(t *testing.T) {
		n, err := Pair(1, ^uint32(0)).DenseSpaceBetween(Pair(2, 1))
		require.NoError(t, err)
		require.Equal(t, uint64(2), n)

		next, err := Pair(1, ^uint32(0)).Advance(1)
		require.NoError(t, err)
		require.Equal(t, Pair(2, 0), next)
	})

	t.Run("String unsupported", func(t *testing.T) {
		require.False(t, String("a").SupportsDenseMode())
		_, err := String("a").DenseSpaceBetween(String("b"))
		require.ErrorIs(t, err, errs.ErrDenseUnsupported)
		_, err = String("a").Advance(1)
		require.ErrorIs(t, err, errs.ErrDenseUnsupported)
	})

	t.Run("Mixed kinds", func(t *testing.T) {
		_, err := Simple(1).DenseSpaceBetween(Pair(1, 1))
		require.ErrorIs(t, err, errs.ErrIndexTypeMismatch)
	})

	t.Run("Custom", func(t *testing.T) {
		a := FromType(frame{n: 2})
		require.True(t, a.SupportsDenseMode())
		require.False(t, FromType(tag("x")).SupportsDenseMode())

		n, err := a.DenseSpaceBetween(FromType(frame{n: 6}))
		require.NoError(t, err)
		require.Equal(t, uint64(4), n)

		next, err := a.Advance(4)
		require.NoError(t, err)
		require.True(t, next.Equal(FromType(frame{n: 6})))
	})
}
