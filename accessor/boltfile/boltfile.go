// Package boltfile implements the .bolt accessor backend.
//
// A .bolt file is a bbolt database with two buckets:
//
//	structures    structure name    -> binfmt structure blob
//	associations  associations name -> binfmt associations blob
//
// Association filters are applied as key lookups, so a filtered read only
// decodes the sets it asks for. Structures are always loaded because the
// associations refer to them by name.
package boltfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/internal/options"
	"github.com/arloliu/mdata/serial"
	"github.com/arloliu/mdata/serial/binfmt"
	"go.etcd.io/bbolt"
)

const (
	// Name is the backend name.
	Name = "Bolt"
	// Extension is the file extension handled by this backend.
	Extension = "bolt"
)

var (
	structuresBucket   = []byte("structures")
	associationsBucket = []byte("associations")
)

// Backend reads and writes .bolt files.
type Backend struct {
	timeout time.Duration
	noSync  bool
	format  *binfmt.Format
}

var _ accessor.FileBackend = (*Backend)(nil)

// Option configures the backend.
type Option = options.Option[*Backend]

// WithTimeout sets how long to wait for the file lock.
func WithTimeout(d time.Duration) Option {
	return options.New(func(b *Backend) error {
		if d < 0 {
			return fmt.Errorf("%w: negative timeout %s", errs.ErrOutOfRange, d)
		}
		b.timeout = d

		return nil
	})
}

// WithNoSync skips fsync on commit. Only use it for scratch files.
func WithNoSync(noSync bool) Option {
	return options.NoError(func(b *Backend) {
		b.noSync = noSync
	})
}

// New creates a backend with a ten second lock timeout.
func New(opts ...Option) (*Backend, error) {
	f, err := binfmt.New()
	if err != nil {
		return nil, err
	}
	b := &Backend{timeout: 10 * time.Second, format: f}
	if err := options.Apply(b, opts...); err != nil {
		return nil, err
	}

	return b, nil
}

// Register maps the .bolt extension in reg.
func Register(reg *accessor.Registry, opts ...Option) (func(), error) {
	return reg.RegisterBackend(func() (accessor.Backend, error) {
		return New(opts...)
	})
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Extensions() []string { return []string{Extension} }

func (b *Backend) open(fileName string, readOnly bool) (*bbolt.DB, error) {
	opt := *bbolt.DefaultOptions
	opt.Timeout = b.timeout
	opt.ReadOnly = readOnly
	opt.NoSync = b.noSync

	db, err := bbolt.Open(fileName, 0o644, &opt)
	if err != nil {
		return nil, fmt.Errorf("open bolt file: %w", err)
	}

	return db, nil
}

// EncodeFile replaces the buckets of fileName with c in one transaction.
func (b *Backend) EncodeFile(ctx context.Context, fileName string, c *accessor.Contents) error {
	db, err := b.open(fileName, false)
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		structures, err := recreateBucket(tx, structuresBucket)
		if err != nil {
			return err
		}
		for _, s := range c.Structures {
			var buf bytes.Buffer
			if err := (binfmt.StructureFormat{Format: b.format}).Write(s, &buf); err != nil {
				return err
			}
			if err := structures.Put([]byte(s.Name()), buf.Bytes()); err != nil {
				return err
			}
		}

		associations, err := recreateBucket(tx, associationsBucket)
		if err != nil {
			return err
		}
		for _, name := range c.AssociationNames() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("%w: empty associations name", errs.ErrInvalidName)
			}
			var buf bytes.Buffer
			if err := (binfmt.AssociationsFormat{Format: b.format}).Write(c.Associations[name], &buf); err != nil {
				return err
			}
			if err := associations.Put([]byte(name), buf.Bytes()); err != nil {
				return err
			}
		}

		return nil
	})

	return errors.Join(err, db.Close())
}

func recreateBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, err
	}

	return tx.CreateBucket(name)
}

// DecodeFile loads the structures and the wanted associations of fileName.
func (b *Backend) DecodeFile(ctx context.Context, fileName string, want accessor.Want, env serial.Env) (*accessor.Contents, error) {
	if _, err := os.Stat(fileName); err != nil {
		return nil, err
	}
	db, err := b.open(fileName, true)
	if err != nil {
		return nil, err
	}

	var c *accessor.Contents
	err = db.View(func(tx *bbolt.Tx) error {
		var err error
		c, err = b.decodeTx(ctx, tx, want, env)

		return err
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (b *Backend) decodeTx(ctx context.Context, tx *bbolt.Tx, want accessor.Want, env serial.Env) (*accessor.Contents, error) {
	structures := tx.Bucket(structuresBucket)
	associations := tx.Bucket(associationsBucket)
	if structures == nil || associations == nil {
		return nil, fmt.Errorf("%w: missing buckets", errs.ErrMalformedPayload)
	}

	c := &accessor.Contents{Associations: make(map[string]*assoc.Associations)}
	err := structures.ForEach(func(k, v []byte) error {
		s, err := (binfmt.StructureFormat{Format: b.format}).Read(bytes.NewReader(v), env)
		if err != nil {
			return fmt.Errorf("structure %q: %w", k, err)
		}
		if s.Name() != string(k) {
			return fmt.Errorf("%w: structure %q stored under %q", errs.ErrMalformedPayload, s.Name(), k)
		}
		c.Structures = append(c.Structures, s)

		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := accessor.RegisterStructures(env, c.Structures); err != nil {
		return nil, err
	}

	load := func(name string, v []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := (binfmt.AssociationsFormat{Format: b.format}).Read(bytes.NewReader(v), env)
		if err != nil {
			return fmt.Errorf("associations %q: %w", name, err)
		}
		c.Associations[name] = a

		return nil
	}

	if want.Associations == nil {
		err = associations.ForEach(func(k, v []byte) error {
			return load(string(k), v)
		})
	} else {
		for _, name := range want.Associations {
			v := associations.Get([]byte(name))
			if v == nil {
				continue
			}
			if err = load(name, v); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Decode spools r into a temporary file and reads it with DecodeFile.
func (b *Backend) Decode(ctx context.Context, r io.Reader, want accessor.Want, env serial.Env) (*accessor.Contents, error) {
	tmp, err := spool(r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	return b.DecodeFile(ctx, tmp, want, env)
}

// Encode writes c into a temporary file with EncodeFile and copies it to w.
func (b *Backend) Encode(ctx context.Context, w io.Writer, c *accessor.Contents) error {
	tmp, err := spool(bytes.NewReader(nil))
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := b.EncodeFile(ctx, tmp, c); err != nil {
		return err
	}
	f, err := os.Open(tmp)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)

	return err
}

func spool(r io.Reader) (string, error) {
	f, err := os.CreateTemp("", "mdata-*.bolt")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
