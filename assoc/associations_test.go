package assoc

import (
	"testing"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/stretchr/testify/require"
)

func TestAssociations_Channels(t *testing.T) {
	a := NewAssociations()
	require.True(t, a.Empty())

	vertex := a.Channel("vertex")
	require.Same(t, vertex, a.Channel("vertex"))
	vertex.SetDataStream(NewStream(motionStructure(t), "motion"))
	a.SetChannel(twoStreamChannel(t))
	require.Equal(t, 1, a.ChannelCount())
	require.Equal(t, 2, a.FindChannel("vertex").DataStreamCount())

	a.Channel("edge")
	var names []string
	for name := range a.All() {
		names = append(names, name)
	}
	require.Equal(t, []string{"edge", "vertex"}, names)

	first, ok := a.ChannelAt(0)
	require.True(t, ok)
	require.Equal(t, "edge", first.Name())

	t.Run("Rename", func(t *testing.T) {
		require.NoError(t, a.RenameChannel("edge", "face"))
		require.Nil(t, a.FindChannel("edge"))
		require.Equal(t, "face", a.FindChannel("face").Name())
		require.ErrorIs(t, a.RenameChannel("face", "vertex"), errs.ErrDuplicateChannel)
		require.ErrorIs(t, a.RenameChannel("edge", "x"), errs.ErrChannelNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, a.RemoveChannel("face"))
		require.ErrorIs(t, a.RemoveChannel("face"), errs.ErrChannelNotFound)
		require.Equal(t, 1, a.ChannelCount())
	})

	t.Run("Structures", func(t *testing.T) {
		structs := a.Structures()
		require.Len(t, structs, 2)
		require.Equal(t, "Label", structs[0].Name())
		require.Equal(t, "Motion", structs[1].Name())
	})
}

func TestAssociations_CopyOnWrite(t *testing.T) {
	a := NewAssociations()
	a.SetChannel(twoStreamChannel(t))

	copyA := a.Share()
	require.True(t, copyA.Equal(a))

	st, err := copyA.Channel("vertex").DataStream("labels")
	require.NoError(t, err)
	require.NoError(t, st.RemoveElement(index.Simple(3)))

	require.Equal(t, 4, a.FindChannel("vertex").FindDataStream("labels").ElementCount())
	require.Equal(t, 3, copyA.FindChannel("vertex").FindDataStream("labels").ElementCount())
	require.False(t, copyA.Equal(a))

	t.Run("MakeUnique isolates every level", func(t *testing.T) {
		other := a.Share()
		require.True(t, a.IsShared())
		require.True(t, other.MakeUnique())
		require.False(t, other.MakeUnique())
		require.False(t, a.IsShared())
		require.True(t, other.Equal(a))

		require.True(t, other.Channel("vertex").RemoveElement(index.Simple(0)))
		require.Equal(t, 4, a.FindChannel("vertex").FindDataStream("motion").ElementCount())
	})
}
