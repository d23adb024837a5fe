package boltfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/internal/sample"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func sampleContents() *accessor.Contents {
	set := sample.New()
	types := assoc.NewAssociations()
	types.SetChannel(set.Associations.FindChannel("all"))

	return &accessor.Contents{
		Structures: set.Structures.All(),
		Associations: map[string]*assoc.Associations{
			"mesh":  set.Associations,
			"types": types,
		},
	}
}

func newBackend(t *testing.T) *Backend {
	t.Helper()

	b, err := New(WithNoSync(true), WithTimeout(time.Second))
	require.NoError(t, err)

	return b
}

func freshEnv() serial.Env {
	return serial.Env{Structures: schema.NewRegistry()}
}

func requireContents(t *testing.T, want, got *accessor.Contents) {
	t.Helper()

	require.Len(t, got.Structures, len(want.Structures))
	for i, s := range want.Structures {
		require.True(t, s.Equal(got.Structures[i]), s.Name())
	}
	require.Equal(t, want.AssociationNames(), got.AssociationNames())
	for name, a := range want.Associations {
		require.True(t, a.Equal(got.Associations[name]), name)
	}
}

func TestBackend_FileRoundTrip(t *testing.T) {
	b := newBackend(t)
	fileName := filepath.Join(t.TempDir(), "scene.bolt")
	want := sampleContents()

	require.NoError(t, b.EncodeFile(context.Background(), fileName, want))
	got, err := b.DecodeFile(context.Background(), fileName, accessor.Want{}, freshEnv())
	require.NoError(t, err)
	requireContents(t, want, got)

	t.Run("Rewrite", func(t *testing.T) {
		smaller := &accessor.Contents{
			Structures:   want.Structures[:1],
			Associations: map[string]*assoc.Associations{},
		}
		require.NoError(t, b.EncodeFile(context.Background(), fileName, smaller))

		got, err := b.DecodeFile(context.Background(), fileName, accessor.Want{}, freshEnv())
		require.NoError(t, err)
		require.Len(t, got.Structures, 1)
		require.Empty(t, got.Associations)
	})
}

func TestBackend_StreamRoundTrip(t *testing.T) {
	b := newBackend(t)
	want := sampleContents()

	var buf bytes.Buffer
	require.NoError(t, b.Encode(context.Background(), &buf, want))
	require.NotZero(t, buf.Len())

	got, err := b.Decode(context.Background(), &buf, accessor.Want{}, freshEnv())
	require.NoError(t, err)
	requireContents(t, want, got)
}

func TestBackend_FilteredRead(t *testing.T) {
	b := newBackend(t)
	fileName := filepath.Join(t.TempDir(), "scene.bolt")
	require.NoError(t, b.EncodeFile(context.Background(), fileName, sampleContents()))

	got, err := b.DecodeFile(context.Background(), fileName,
		accessor.Want{Associations: []string{"types", "missing"}}, freshEnv())
	require.NoError(t, err)
	require.Equal(t, []string{"types"}, got.AssociationNames())
	require.Len(t, got.Structures, 3)

	got, err = b.DecodeFile(context.Background(), fileName,
		accessor.Want{Associations: []string{}}, freshEnv())
	require.NoError(t, err)
	require.Empty(t, got.Associations)
}

func TestBackend_Failures(t *testing.T) {
	b := newBackend(t)
	dir := t.TempDir()

	t.Run("MissingFile", func(t *testing.T) {
		_, err := b.DecodeFile(context.Background(), filepath.Join(dir, "nope.bolt"), accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("NotBolt", func(t *testing.T) {
		fileName := filepath.Join(dir, "text.bolt")
		require.NoError(t, os.WriteFile(fileName, bytes.Repeat([]byte("not a database "), 512), 0o644))
		_, err := b.DecodeFile(context.Background(), fileName, accessor.Want{}, freshEnv())
		require.Error(t, err)
	})

	t.Run("MissingBuckets", func(t *testing.T) {
		fileName := filepath.Join(dir, "empty.bolt")
		db, err := bbolt.Open(fileName, 0o644, nil)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		_, err = b.DecodeFile(context.Background(), fileName, accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})

	t.Run("MismatchedKey", func(t *testing.T) {
		fileName := filepath.Join(dir, "renamed.bolt")
		require.NoError(t, b.EncodeFile(context.Background(), fileName, sampleContents()))

		db, err := bbolt.Open(fileName, 0o644, nil)
		require.NoError(t, err)
		require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(structuresBucket)
			v := bytes.Clone(bucket.Get([]byte("Label")))
			if err := bucket.Delete([]byte("Label")); err != nil {
				return err
			}

			return bucket.Put([]byte("Other"), v)
		}))
		require.NoError(t, db.Close())

		_, err = b.DecodeFile(context.Background(), fileName, accessor.Want{}, freshEnv())
		require.ErrorIs(t, err, errs.ErrMalformedPayload)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := b.EncodeFile(ctx, filepath.Join(dir, "cancelled.bolt"), sampleContents())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestOptions(t *testing.T) {
	_, err := New(WithTimeout(-time.Second))
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	b, err := New()
	require.NoError(t, err)
	require.Equal(t, Name, b.Name())
	require.Equal(t, []string{Extension}, b.Extensions())
}

func TestRegister(t *testing.T) {
	reg := accessor.NewRegistry()
	undo, err := Register(reg, WithNoSync(true))
	require.NoError(t, err)
	defer undo()

	fileName := filepath.Join(t.TempDir(), "scene.bolt")
	a, err := reg.ForFile(fileName)
	require.NoError(t, err)
	set := sample.New()
	a.SetAssociations("mesh", set.Associations)
	require.NoError(t, a.Write(context.Background()))

	got, err := reg.ReadFile(context.Background(), fileName)
	require.NoError(t, err)
	require.True(t, set.Associations.Equal(got.Associations()["mesh"]))
}
