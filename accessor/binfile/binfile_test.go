package binfile

import (
	"bytes"
	"context"
	"testing"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/internal/sample"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/section"
	"github.com/arloliu/mdata/serial"
	"github.com/stretchr/testify/require"
)

func sampleContents() *accessor.Contents {
	set := sample.New()
	extra := assoc.NewAssociations()
	extra.SetChannel(set.Associations.FindChannel("vertex"))

	return &accessor.Contents{
		Structures: set.Structures.All(),
		Associations: map[string]*assoc.Associations{
			"mesh":  set.Associations,
			"extra": extra,
		},
	}
}

func freshEnv() serial.Env {
	return serial.Env{Structures: schema.NewRegistry()}
}

func encode(t *testing.T, b *Backend, c *accessor.Contents) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, b.Encode(context.Background(), &buf, c))

	return buf.Bytes()
}

func TestBackend_RoundTrip(t *testing.T) {
	cases := map[string][]Option{
		"Default":   nil,
		"BigEndian": {WithBigEndian(true)},
		"None":      {WithCompression(format.CompressionNone)},
		"S2":        {WithCompression(format.CompressionS2)},
		"LZ4Big":    {WithCompression(format.CompressionLZ4), WithBigEndian(true)},
	}

	want := sampleContents()
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := New(opts...)
			require.NoError(t, err)
			data := encode(t, b, want)

			header, err := ReadHeader(data)
			require.NoError(t, err)
			require.Equal(t, b.Compression(), header.Flag.CompressionType())
			require.Equal(t, uint32(len(want.Structures)), header.StructureCount)
			require.Equal(t, uint32(2), header.AssociationsCount)

			got, err := b.Decode(context.Background(), bytes.NewReader(data), accessor.Want{}, freshEnv())
			require.NoError(t, err)
			require.Len(t, got.Structures, len(want.Structures))
			for i, s := range want.Structures {
				require.True(t, s.Equal(got.Structures[i]))
			}
			require.Equal(t, want.AssociationNames(), got.AssociationNames())
			for name, a := range want.Associations {
				require.True(t, a.Equal(got.Associations[name]), name)
			}
		})
	}
}

func TestBackend_ReadsForeignByteOrder(t *testing.T) {
	big, err := New(WithBigEndian(true))
	require.NoError(t, err)
	little, err := New()
	require.NoError(t, err)

	data := encode(t, big, sampleContents())
	got, err := little.Decode(context.Background(), bytes.NewReader(data), accessor.Want{}, freshEnv())
	require.NoError(t, err)
	require.Len(t, got.Associations, 2)
}

func TestBackend_FilteredRead(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	data := encode(t, b, sampleContents())

	got, err := b.Decode(context.Background(), bytes.NewReader(data),
		accessor.Want{Associations: []string{"extra"}}, freshEnv())
	require.NoError(t, err)
	require.Equal(t, []string{"extra"}, got.AssociationNames())
	require.Len(t, got.Structures, 3)
}

func TestBackend_EmptyContents(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	data := encode(t, b, &accessor.Contents{})
	require.Len(t, data, section.HeaderSize+int(mustHeader(t, data).PayloadSize))

	got, err := b.Decode(context.Background(), bytes.NewReader(data), accessor.Want{}, freshEnv())
	require.NoError(t, err)
	require.Empty(t, got.Structures)
	require.Empty(t, got.Associations)
}

func mustHeader(t *testing.T, data []byte) section.FileHeader {
	t.Helper()

	h, err := ReadHeader(data)
	require.NoError(t, err)

	return h
}

func TestBackend_Failures(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	data := encode(t, b, sampleContents())

	t.Run("ShortHeader", func(t *testing.T) {
		_, err := b.Decode(context.Background(), bytes.NewReader(data[:10]), accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("BadMagic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xff
		bad[1] ^= 0xff
		_, err := b.Decode(context.Background(), bytes.NewReader(bad), accessor.Want{}, freshEnv())
		require.Error(t, err)
	})

	t.Run("TruncatedPayload", func(t *testing.T) {
		_, err := b.Decode(context.Background(), bytes.NewReader(data[:len(data)-1]), accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})

	t.Run("TrailingBytes", func(t *testing.T) {
		bad := append(bytes.Clone(data), 0)
		_, err := b.Decode(context.Background(), bytes.NewReader(bad), accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, errs.ErrExcessData)
	})

	t.Run("CorruptPayload", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-1] ^= 0x5a
		_, err := b.Decode(context.Background(), bytes.NewReader(bad), accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("ConflictingStructure", func(t *testing.T) {
		env := freshEnv()
		other := schema.NewStructure("Motion")
		require.NoError(t, other.AddMember(schema.Int8, 1, "x"))
		require.NoError(t, env.Structures.Register(other))

		_, err := b.Decode(context.Background(), bytes.NewReader(data), accessor.Want{}, env)
		require.Error(t, err)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := b.Decode(ctx, bytes.NewReader(data), accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, context.Canceled)

		var buf bytes.Buffer
		require.ErrorIs(t, b.Encode(ctx, &buf, sampleContents()), context.Canceled)
	})
}

func TestOptions(t *testing.T) {
	_, err := New(WithCompression(format.CompressionType(0x7f)))
	require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)

	b, err := New()
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, b.Compression())
	require.Equal(t, format.Binary, b.Name())
	require.Equal(t, []string{Extension}, b.Extensions())
}

func TestRegister(t *testing.T) {
	reg := accessor.NewRegistry()
	undo, err := Register(reg)
	require.NoError(t, err)
	require.True(t, reg.IsFileSupported("scene.MDB"))

	a, err := reg.ForFile("scene.mdb")
	require.NoError(t, err)
	require.Equal(t, format.Binary, a.Backend().Name())

	undo()
	require.False(t, reg.IsFileSupported("scene.mdb"))
}
