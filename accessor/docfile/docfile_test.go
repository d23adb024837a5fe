package docfile

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/sample"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
	"github.com/stretchr/testify/require"
)

func sampleContents() *accessor.Contents {
	set := sample.New()
	edges := assoc.NewAssociations()
	edges.SetChannel(set.Associations.FindChannel("edge"))

	return &accessor.Contents{
		Structures: set.Structures.All(),
		Associations: map[string]*assoc.Associations{
			"mesh":  set.Associations,
			"edges": edges,
		},
	}
}

func TestBackend_RoundTrip(t *testing.T) {
	want := sampleContents()

	for _, name := range []string{format.JSON, format.YAML, format.XML, format.MessagePack} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name)
			require.NoError(t, err)
			require.Equal(t, name, b.Name())
			require.NotEmpty(t, b.Extensions())

			var buf bytes.Buffer
			require.NoError(t, b.Encode(context.Background(), &buf, want))

			env := serial.Env{Structures: schema.NewRegistry()}
			got, err := b.Decode(context.Background(), &buf, accessor.Want{}, env)
			require.NoError(t, err)
			require.Len(t, got.Structures, len(want.Structures))
			for i, s := range want.Structures {
				require.True(t, s.Equal(got.Structures[i]))
			}
			require.Equal(t, len(want.Structures), env.Structures.Len())
			require.Equal(t, want.AssociationNames(), got.AssociationNames())
			for name, a := range want.Associations {
				require.True(t, a.Equal(got.Associations[name]), name)
			}
		})
	}
}

func unsafeTextContents(t *testing.T) *accessor.Contents {
	label := sample.Label()
	s := assoc.NewStream(label, "names")
	require.NoError(t, s.SetIndexType(index.StringTypeName))
	texts := []string{"plain", "\xff\xfe", "a\x01b", "x\x00y", "base64:aGk=", "tab\tline\n"}
	for _, text := range texts {
		h := schema.NewHandle(label)
		require.NoError(t, h.SetPositionByMemberName("text"))
		h.SetString(0, text)
		require.NoError(t, s.SetElement(index.String(text+"|key"), h))
		require.NoError(t, s.SetElement(index.String(text), h))
	}

	a := assoc.NewAssociations()
	a.Channel("labels").SetDataStream(s)

	return &accessor.Contents{
		Structures:   []*schema.Structure{label},
		Associations: map[string]*assoc.Associations{"tags": a},
	}
}

func TestBackend_UnsafeText(t *testing.T) {
	want := unsafeTextContents(t)

	for _, name := range []string{format.JSON, format.YAML, format.XML, format.MessagePack} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, b.Encode(context.Background(), &buf, want))

			env := serial.Env{Structures: schema.NewRegistry()}
			got, err := b.Decode(context.Background(), &buf, accessor.Want{}, env)
			require.NoError(t, err)
			require.True(t, want.Associations["tags"].Equal(got.Associations["tags"]))

			s := got.Associations["tags"].FindChannel("labels").FindDataStream("names")
			require.NotNil(t, s)
			h, err := s.Element(index.String("x\x00y"))
			require.NoError(t, err)
			require.NoError(t, h.SetPositionByMemberName("text"))
			require.Equal(t, "x\x00y", h.String(0))
		})
	}
}

func TestBackend_JSONLayout(t *testing.T) {
	b, err := New(format.JSON)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Encode(context.Background(), &buf, sampleContents()))
	text := buf.String()
	require.True(t, strings.HasPrefix(text, "{"))
	require.Contains(t, text, `"structures"`)
	require.Contains(t, text, `"name": "edges"`)
	require.Less(t, strings.Index(text, `"name": "edges"`), strings.Index(text, `"name": "mesh"`))
}

func TestBackend_FilteredRead(t *testing.T) {
	b, err := New(format.YAML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Encode(context.Background(), &buf, sampleContents()))

	got, err := b.Decode(context.Background(), &buf,
		accessor.Want{Associations: []string{"mesh"}}, serial.Env{Structures: schema.NewRegistry()})
	require.NoError(t, err)
	require.Equal(t, []string{"mesh"}, got.AssociationNames())
}

func TestBackend_Failures(t *testing.T) {
	b, err := New(format.JSON)
	require.NoError(t, err)
	env := func() serial.Env { return serial.Env{Structures: schema.NewRegistry()} }

	t.Run("UnknownCodec", func(t *testing.T) {
		_, err := New("TOML")
		require.ErrorIs(t, err, errs.ErrFormatNotFound)
	})

	t.Run("BadSyntax", func(t *testing.T) {
		_, err := b.Decode(context.Background(), strings.NewReader("{"), accessor.Want{}, env())
		require.ErrorIs(t, err, errs.ErrBadSyntax)
	})

	t.Run("UnknownStructure", func(t *testing.T) {
		doc := `{"associations": [{"name": "a", "channels": [{"name": "c", "streams": [` +
			`{"name": "s", "structure": "Missing", "indexType": "Index"}]}]}]}`
		_, err := b.Decode(context.Background(), strings.NewReader(doc), accessor.Want{}, env())
		require.ErrorIs(t, err, errs.ErrStructureNotFound)
	})

	t.Run("DuplicateAssociations", func(t *testing.T) {
		doc := `{"associations": [{"name": "a"}, {"name": "a"}]}`
		_, err := b.Decode(context.Background(), strings.NewReader(doc), accessor.Want{}, env())
		require.ErrorIs(t, err, errs.ErrInvalidName)
	})
}

func TestRegister(t *testing.T) {
	reg := accessor.NewRegistry()
	undo, err := Register(reg)
	require.NoError(t, err)
	require.Equal(t, []string{"json", "mpk", "msgpack", "xml", "yaml", "yml"}, reg.SupportedExtensions())

	a, err := reg.ByExtension(".YML")
	require.NoError(t, err)
	require.Equal(t, format.YAML, a.Backend().Name())

	_, err = Register(reg)
	require.ErrorIs(t, err, errs.ErrDuplicateExtension)
	require.Len(t, reg.SupportedExtensions(), 6)

	undo()
	require.Empty(t, reg.SupportedExtensions())
}
