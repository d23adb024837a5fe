package assoc

import (
	"testing"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
	"github.com/stretchr/testify/require"
)

func twoStreamChannel(t *testing.T) *Channel {
	t.Helper()

	motion := motionStructure(t)
	labels := labelStructure(t)

	c := NewChannel("vertex")
	ms := NewStream(motion, "motion")
	ls := NewStream(labels, "labels")
	for i := range uint32(4) {
		require.NoError(t, ms.SetElement(index.Simple(i), velocity(t, motion, float32(i), 0, 0)))
		h := schema.NewHandle(labels)
		h.SetString(0, string(rune('a'+i)))
		require.NoError(t, ls.SetElement(index.Simple(i), h))
	}
	c.SetDataStream(ms)
	c.SetDataStream(ls)

	return c
}

func TestChannel_Streams(t *testing.T) {
	c := twoStreamChannel(t)
	require.Equal(t, 2, c.DataStreamCount())

	var names []string
	for name := range c.All() {
		names = append(names, name)
	}
	require.Equal(t, []string{"labels", "motion"}, names)

	first, ok := c.DataStreamAt(0)
	require.True(t, ok)
	require.Equal(t, "labels", first.Name())
	_, ok = c.DataStreamAt(2)
	require.False(t, ok)

	require.Nil(t, c.FindDataStream("missing"))
	_, err := c.DataStream("missing")
	require.ErrorIs(t, err, errs.ErrStreamNotFound)

	t.Run("Replace by name", func(t *testing.T) {
		c.SetDataStream(NewStream(motionStructure(t), "motion"))
		require.Equal(t, 2, c.DataStreamCount())
		require.True(t, c.FindDataStream("motion").Empty())
	})

	t.Run("Rename", func(t *testing.T) {
		require.NoError(t, c.RenameDataStream("motion", "velocity"))
		require.NotNil(t, c.FindDataStream("velocity"))
		require.Nil(t, c.FindDataStream("motion"))
		require.Equal(t, "velocity", c.FindDataStream("velocity").Name())

		require.ErrorIs(t, c.RenameDataStream("velocity", "labels"), errs.ErrDuplicateStream)
		require.ErrorIs(t, c.RenameDataStream("nope", "x"), errs.ErrStreamNotFound)
		require.ErrorIs(t, c.RenameDataStream("labels", ""), errs.ErrInvalidName)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, c.RemoveDataStream("velocity"))
		require.ErrorIs(t, c.RemoveDataStream("velocity"), errs.ErrStreamNotFound)
		require.Equal(t, 1, c.DataStreamCount())
	})
}

func TestChannel_SetDataStreamShares(t *testing.T) {
	s := motionStructure(t)
	st := NewStream(s, "motion")
	c := NewChannel("vertex")

	stored := c.SetDataStream(st)
	require.True(t, st.IsShared())

	require.NoError(t, st.AddElement(index.Simple(0)))
	require.True(t, stored.Empty(), "caller edits detach from the stored stream")
}

func TestChannel_ElementFanOut(t *testing.T) {
	c := twoStreamChannel(t)

	require.True(t, c.RemoveElement(index.Simple(1)))
	require.False(t, c.RemoveElement(index.Simple(1)))

	want := []index.Index{index.Simple(0), index.Simple(2), index.Simple(3)}
	for _, st := range c.All() {
		require.Equal(t, want, st.Indices(), st.Name())
	}
	require.Equal(t, []float32{2, 0, 0}, readVelocity(t, c.FindDataStream("motion"), index.Simple(2)))
	label, err := c.FindDataStream("labels").Element(index.Simple(2))
	require.NoError(t, err)
	require.Equal(t, "c", label.String(0))

	t.Run("AddElement fills gaps", func(t *testing.T) {
		require.True(t, c.AddElement(index.Simple(1)))
		require.False(t, c.AddElement(index.Simple(1)))
		for _, st := range c.All() {
			require.Equal(t, 4, st.ElementCount())
		}
	})

	t.Run("Other index types are skipped", func(t *testing.T) {
		require.False(t, c.AddElement(index.String("x")))
	})
}

func TestChannel_CopyOnWrite(t *testing.T) {
	c := twoStreamChannel(t)
	shared := c.Share()
	require.True(t, shared.Equal(c))

	st, err := shared.DataStream("motion")
	require.NoError(t, err)
	require.NoError(t, st.RemoveElement(index.Simple(0)))

	require.False(t, c.IsShared())
	require.Equal(t, 4, c.FindDataStream("motion").ElementCount())
	require.Equal(t, 3, shared.FindDataStream("motion").ElementCount())
	require.False(t, shared.Equal(c))

	t.Run("MakeUnique", func(t *testing.T) {
		other := c.Share()
		require.True(t, other.MakeUnique())
		require.False(t, other.MakeUnique())
		require.True(t, other.Equal(c))
		require.NotSame(t, other.FindDataStream("motion"), c.FindDataStream("motion"))
	})
}
