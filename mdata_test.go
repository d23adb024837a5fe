package mdata

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mdata/accessor/binfile"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/sample"
	"github.com/arloliu/mdata/schema"
)

func newContext(t *testing.T, opts ...Option) *Context {
	t.Helper()

	c, err := NewContext(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	return c
}

func TestNewContext(t *testing.T) {
	c := newContext(t)

	require.Equal(t, []string{format.Binary, format.Debug, format.JSON, format.MessagePack, format.XML, format.YAML},
		c.Formats.Formats())
	require.Equal(t, []string{"bolt", "json", "mdb", "mpk", "msgpack", "xml", "yaml", "yml"},
		c.Accessors.SupportedExtensions())
	require.True(t, c.Indexes.Has(index.StringTypeName))

	def, ok := c.Formats.Associations.Default()
	require.True(t, ok)
	require.Equal(t, format.Debug, def.FormatType())
}

func TestContext_Close(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	require.Empty(t, c.Formats.Formats())
	require.Empty(t, c.Accessors.SupportedExtensions())

	_, err = c.ReadFile(context.Background(), "scene.mdb")
	require.ErrorIs(t, err, errs.ErrUnsupportedExtension)
}

// Scenario: a dense stream of eight elements where only element 3 is edited.
func TestScenario_DenseStream(t *testing.T) {
	motion := schema.NewStructure("Motion")
	require.NoError(t, motion.AddMember(schema.Float, 3, "velocity"))
	require.NoError(t, motion.AddMember(schema.Float, 3, "acceleration"))

	s, err := assoc.NewDenseStream(motion, "motion", 8)
	require.NoError(t, err)
	require.True(t, s.IsDense())

	h, err := s.EditElement(index.Simple(3))
	require.NoError(t, err)
	h.SetFloats(1, 2, 3)

	got, err := s.Element(index.Simple(3))
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, got.Floats())

	for i := range uint32(8) {
		if i == 3 {
			continue
		}
		e, err := s.Element(index.Simple(i))
		require.NoError(t, err)
		require.True(t, e.IsDefault(), "element %d", i)
	}
}

// Scenario: string indices survive the text round trip.
func TestScenario_StringIndex(t *testing.T) {
	c := newContext(t)

	idx := index.String("foo")
	require.Equal(t, "foo", idx.AsString())

	got, err := c.Indexes.Create(index.StringTypeName, idx.AsString())
	require.NoError(t, err)
	require.True(t, idx.Equal(got))
}

// Scenario: one channel with one stream survives every file type.
func TestScenario_FileRoundTrip(t *testing.T) {
	c := newContext(t, WithBinaryOptions(binfile.WithCompression(format.CompressionS2)))
	label := sample.Label()
	require.NoError(t, c.Structures.Register(label))

	s := assoc.NewStream(label, "labels")
	for i := range uint32(4) {
		h := schema.NewHandle(label)
		h.SetString(0, "v")
		require.NoError(t, s.SetElement(index.Simple(i*3), h))
	}
	a := assoc.NewAssociations()
	a.Channel("vertex").SetDataStream(s)

	ctx := context.Background()
	for _, ext := range c.Accessors.SupportedExtensions() {
		t.Run(ext, func(t *testing.T) {
			fileName := filepath.Join(t.TempDir(), "scene."+ext)
			require.NoError(t, c.WriteFile(ctx, fileName, nil, map[string]*assoc.Associations{"mesh": a}))

			acc, err := c.ReadFile(ctx, fileName)
			require.NoError(t, err)
			require.True(t, a.Equal(acc.Associations()["mesh"]))
			require.Len(t, acc.Structures(), 1)
		})
	}
}

// Scenario: removing an element through the channel keeps the streams aligned.
func TestScenario_ChannelRemoveElement(t *testing.T) {
	set := sample.New()
	vertex := set.Associations.Channel("vertex")

	require.True(t, vertex.RemoveElement(index.Simple(1)))

	motion := vertex.FindDataStream("motion")
	labels := vertex.FindDataStream("labels")
	require.False(t, motion.HasElement(index.Simple(1)))
	require.False(t, labels.HasElement(index.Simple(1)))
	require.True(t, labels.HasElement(index.Simple(3)))

	h, err := motion.Element(index.Simple(3))
	require.NoError(t, err)
	require.Equal(t, []float32{3, 3.5, -3}, h.Floats())
}

func TestContext_Serializers(t *testing.T) {
	c := newContext(t)
	set := sample.New()
	for _, s := range set.Structures.All() {
		require.NoError(t, c.Structures.Register(s))
	}

	for _, name := range c.Formats.Formats() {
		t.Run(name, func(t *testing.T) {
			f, err := c.Formats.Associations.ByName(name)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, f.Write(set.Associations, &buf))
			got, err := f.Read(&buf, c.Env())
			require.NoError(t, err)
			require.True(t, set.Associations.Equal(got))
		})
	}
}
