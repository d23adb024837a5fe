package docfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/sample"
	"github.com/arloliu/mdata/serial"
	"github.com/stretchr/testify/require"
)

func TestDocFormats_RoundTrip(t *testing.T) {
	set := sample.New()
	env := serial.Env{Structures: set.Structures}

	for _, codec := range Codecs() {
		f := New(codec)
		t.Run(codec.Name(), func(t *testing.T) {
			for _, s := range set.Structures.All() {
				var buf bytes.Buffer
				require.NoError(t, StructureFormat{f}.Write(s, &buf))
				got, err := StructureFormat{f}.Read(&buf, env)
				require.NoError(t, err)
				require.True(t, s.Equal(got), s.Name())
			}

			for _, c := range set.Associations.All() {
				for _, s := range c.All() {
					var buf bytes.Buffer
					require.NoError(t, StreamFormat{f}.Write(s, &buf))
					got, err := StreamFormat{f}.Read(&buf, env)
					require.NoError(t, err, buf.String())
					require.True(t, s.Equal(got), s.Name())
					require.Equal(t, s.IsDense(), got.IsDense())
				}

				var buf bytes.Buffer
				require.NoError(t, ChannelFormat{f}.Write(c, &buf))
				got, err := ChannelFormat{f}.Read(&buf, env)
				require.NoError(t, err)
				require.True(t, c.Equal(got))
			}

			var buf bytes.Buffer
			require.NoError(t, AssociationsFormat{f}.Write(set.Associations, &buf))
			got, err := AssociationsFormat{f}.Read(&buf, env)
			require.NoError(t, err)
			require.True(t, set.Associations.Equal(got))
			for _, c := range got.All() {
				require.False(t, c.IsShared(), c.Name())
				for _, st := range c.All() {
					require.False(t, st.IsShared(), st.Name())
				}
			}
		})
	}
}

func TestDocFormats_Text(t *testing.T) {
	f := New(JSONCodec{})
	var buf bytes.Buffer
	require.NoError(t, StructureFormat{f}.Write(sample.Label(), &buf))
	require.JSONEq(t, `{
		"name": "Label",
		"members": [
			{"name": "text", "type": "string", "length": 1},
			{"name": "weight", "type": "int32", "length": 1}
		]
	}`, buf.String())

	x := New(XMLCodec{})
	buf.Reset()
	require.NoError(t, StructureFormat{x}.Write(sample.Label(), &buf))
	require.Contains(t, buf.String(), `<structure name="Label">`)
	require.Contains(t, buf.String(), `<member name="weight" type="int32" length="1"></member>`)
}

func TestDocFormats_PartialElements(t *testing.T) {
	set := sample.New()
	env := serial.Env{Structures: set.Structures}

	input := `
name: m
structure: Motion
indexType: IndexString
elements:
  - index: tip
    values:
      - member: acceleration
        items: ["0", "2.5"]
`
	s, err := StreamFormat{New(YAMLCodec{})}.Read(strings.NewReader(input), env)
	require.NoError(t, err)

	h, err := s.Element(index.String("tip"))
	require.NoError(t, err)
	require.NoError(t, h.SetPositionByMemberName("acceleration"))
	require.Equal(t, []float32{0, 2.5, 0}, h.Floats())
}

func TestDocFormats_ReadFailures(t *testing.T) {
	set := sample.New()
	env := serial.Env{Structures: set.Structures}
	f := New(JSONCodec{})

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"Malformed", `{"name": `, errs.ErrBadSyntax},
		{"Unknown field", `{"name": "m", "colour": "red"}`, errs.ErrBadSyntax},
		{"Unknown structure", `{"name": "m", "structure": "Nope"}`, errs.ErrStructureNotFound},
		{"Bad index", `{"name": "m", "structure": "Motion", "elements": [{"index": "-1"}]}`, errs.ErrBadSyntax},
		{"Unknown member", `{"name": "m", "structure": "Motion", "elements": [{"index": "1", "values": [{"member": "spin", "items": ["1"]}]}]}`, errs.ErrMemberNotFound},
		{"Too many values", `{"name": "m", "structure": "Motion", "elements": [{"index": "1", "values": [{"member": "velocity", "items": ["1","2","3","4"]}]}]}`, errs.ErrOutOfRange},
		{"Bad value", `{"name": "m", "structure": "Motion", "elements": [{"index": "1", "values": [{"member": "velocity", "items": ["x"]}]}]}`, errs.ErrBadSyntax},
		{"Dense without range", `{"name": "m", "structure": "Motion", "dense": true}`, errs.ErrNoElementRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StreamFormat{f}.Read(strings.NewReader(tt.input), env)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, s)
		})
	}

	t.Run("Bad member type", func(t *testing.T) {
		_, err := StructureFormat{f}.Read(strings.NewReader(`{"name": "S", "members": [{"name": "v", "type": "vec3", "length": 1}]}`), env)
		require.ErrorIs(t, err, errs.ErrInvalidDataType)
	})
}

func TestRegisterAll(t *testing.T) {
	reg := serial.NewRegistry()
	undo, err := RegisterAll(reg)
	require.NoError(t, err)
	require.Equal(t, []string{"JSON", "MessagePack", "XML", "YAML"}, reg.Formats())
	require.Equal(t, "YAML document", reg.Describe("YAML"))

	def, ok := reg.Streams.Default()
	require.True(t, ok)
	require.Equal(t, "JSON", def.FormatType())

	_, err = RegisterAll(reg)
	require.ErrorIs(t, err, errs.ErrDuplicateFormat)
	require.Len(t, reg.Formats(), 4)

	undo()
	require.Empty(t, reg.Formats())

	_, err = CodecByName("TOML")
	require.ErrorIs(t, err, errs.ErrFormatNotFound)
}
