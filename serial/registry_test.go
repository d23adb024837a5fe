package serial

import (
	"io"
	"testing"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
	"github.com/stretchr/testify/require"
)

type fakeStructureFormat struct{ name string }

func (f fakeStructureFormat) FormatType() string { return f.name }
func (f fakeStructureFormat) Description() string { return "fake " + f.name }

func (f fakeStructureFormat) Read(io.Reader, Env) (*schema.Structure, error) {
	return schema.NewStructure(f.name), nil
}

func (f fakeStructureFormat) Write(*schema.Structure, io.Writer) error { return nil }

func TestFormatSet(t *testing.T) {
	set := NewFormatSet[StructureSerializer]()
	_, ok := set.Default()
	require.False(t, ok)

	undoB, err := set.Register(fakeStructureFormat{"B"})
	require.NoError(t, err)
	_, err = set.Register(fakeStructureFormat{"C"})
	require.NoError(t, err)
	_, err = set.Register(fakeStructureFormat{"A"})
	require.NoError(t, err)

	t.Run("First registered is default", func(t *testing.T) {
		def, ok := set.Default()
		require.True(t, ok)
		require.Equal(t, "B", def.FormatType())
	})

	t.Run("Enumeration is ordered", func(t *testing.T) {
		require.Equal(t, []string{"A", "B", "C"}, set.Names())
		all := set.All()
		require.Len(t, all, 3)
		require.Equal(t, "A", all[0].FormatType())
		require.Equal(t, 3, set.Len())
	})

	t.Run("Duplicate and empty names", func(t *testing.T) {
		_, err := set.Register(fakeStructureFormat{"A"})
		require.ErrorIs(t, err, errs.ErrDuplicateFormat)
		_, err = set.Register(fakeStructureFormat{""})
		require.ErrorIs(t, err, errs.ErrInvalidName)
	})

	t.Run("Lookup", func(t *testing.T) {
		f, err := set.ByName("C")
		require.NoError(t, err)
		require.Equal(t, "fake C", f.Description())
		_, err = set.ByName("Z")
		require.ErrorIs(t, err, errs.ErrFormatNotFound)
	})

	t.Run("Removing the default promotes", func(t *testing.T) {
		undoB()
		undoB()
		def, ok := set.Default()
		require.True(t, ok)
		require.Equal(t, "A", def.FormatType())
		require.ErrorIs(t, set.Deregister("B"), errs.ErrFormatNotFound)
	})

	t.Run("SetDefault", func(t *testing.T) {
		require.NoError(t, set.SetDefault("C"))
		def, _ := set.Default()
		require.Equal(t, "C", def.FormatType())
		require.ErrorIs(t, set.SetDefault("B"), errs.ErrFormatNotFound)
	})

	t.Run("Stale undo keeps replacement", func(t *testing.T) {
		undoD, err := set.Register(fakeStructureFormat{"D"})
		require.NoError(t, err)
		require.NoError(t, set.Deregister("D"))
		_, err = set.Register(fakeStructureFormat{"D"})
		require.NoError(t, err)

		undoD()
		_, err = set.ByName("D")
		require.NoError(t, err)
	})
}

func TestRegistry_Install(t *testing.T) {
	reg := NewRegistry()
	undo, err := reg.Install(Serializers{Structure: fakeStructureFormat{"Fake"}})
	require.NoError(t, err)
	require.Equal(t, []string{"Fake"}, reg.Formats())
	require.Equal(t, "fake Fake", reg.Describe("Fake"))
	require.Empty(t, reg.Describe("Other"))

	_, err = reg.Install(Serializers{Structure: fakeStructureFormat{"Fake"}})
	require.ErrorIs(t, err, errs.ErrDuplicateFormat)

	undo()
	require.Empty(t, reg.Formats())
}

func TestEnv(t *testing.T) {
	var env Env
	_, err := env.Structure("Motion")
	require.ErrorIs(t, err, errs.ErrStructureNotFound)

	idx, err := env.Index(index.PairTypeName, "1,2")
	require.NoError(t, err)
	require.True(t, idx.Equal(index.Pair(1, 2)))
	require.True(t, env.IndexRegistry().Has(index.StringTypeName))

	reg := schema.NewRegistry()
	s := schema.NewStructure("Motion")
	require.NoError(t, reg.Register(s))
	env = Env{Structures: reg, Indexes: index.NewRegistry(index.WithoutBuiltins())}
	got, err := env.Structure("Motion")
	require.NoError(t, err)
	require.Same(t, s, got)

	_, err = env.Index(index.SimpleTypeName, "1")
	require.ErrorIs(t, err, errs.ErrNoCreator)
}
