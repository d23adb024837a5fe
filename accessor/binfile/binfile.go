// Package binfile implements the .mdb accessor backend.
//
// File layout:
//
//	[0:32]   section.FileHeader (magic, version, byte order, compression,
//	         structure and associations counts, payload size, checksum)
//	[32:]    payload, compressed with the header's codec
//
// The uncompressed payload is binfmt encoded:
//
//	structure count, structure...
//	associations count, {name, length-prefixed associations body}...
//
// The checksum is the xxHash64 of the stored payload bytes, verified before
// decompression. Length-prefixed associations bodies let a filtered read skip
// the sets it does not want.
package binfile

import (
	"context"
	"fmt"
	"io"

	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/compress"
	"github.com/arloliu/mdata/encoding"
	"github.com/arloliu/mdata/endian"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/internal/hash"
	"github.com/arloliu/mdata/internal/options"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/section"
	"github.com/arloliu/mdata/serial"
	"github.com/arloliu/mdata/serial/binfmt"
)

// Extension is the file extension handled by this backend.
const Extension = "mdb"

// Backend reads and writes .mdb files.
type Backend struct {
	compression format.CompressionType
	engine      endian.EndianEngine
}

var _ accessor.Backend = (*Backend)(nil)

// Option configures the backend.
type Option = options.Option[*Backend]

// WithCompression selects the payload codec.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(b *Backend) error {
		if !c.IsValid() {
			return fmt.Errorf("%w: compression %s", errs.ErrInvalidHeaderFlags, c)
		}
		b.compression = c

		return nil
	})
}

// WithBigEndian writes big-endian files when big is true.
func WithBigEndian(big bool) Option {
	return options.NoError(func(b *Backend) {
		b.engine = endian.ForBigEndian(big)
	})
}

// New creates a backend writing little-endian, zstd compressed files.
func New(opts ...Option) (*Backend, error) {
	b := &Backend{
		compression: format.CompressionZstd,
		engine:      endian.GetLittleEndianEngine(),
	}
	if err := options.Apply(b, opts...); err != nil {
		return nil, err
	}

	return b, nil
}

// Register maps the .mdb extension in reg.
func Register(reg *accessor.Registry, opts ...Option) (func(), error) {
	return reg.RegisterBackend(func() (accessor.Backend, error) {
		return New(opts...)
	})
}

func (b *Backend) Name() string { return format.Binary }

func (b *Backend) Extensions() []string { return []string{Extension} }

// Compression returns the payload codec used for writing.
func (b *Backend) Compression() format.CompressionType {
	return b.compression
}

func (b *Backend) Encode(ctx context.Context, w io.Writer, c *accessor.Contents) error {
	enc := encoding.NewVarStringEncoder(b.engine)
	defer enc.Reset()

	enc.WriteUvarint(uint64(len(c.Structures)))
	for _, s := range c.Structures {
		if err := binfmt.EncodeStructure(enc, s); err != nil {
			return err
		}
	}

	names := c.AssociationNames()
	enc.WriteUvarint(uint64(len(names)))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Write(name); err != nil {
			return err
		}
		if err := writeAssociations(enc, c.Associations[name]); err != nil {
			return err
		}
	}

	codec, err := compress.GetCodec(b.compression)
	if err != nil {
		return err
	}
	payload, err := codec.Compress(enc.Bytes())
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}

	header := section.NewFileHeader()
	if endian.IsBigEndian(b.engine) {
		header.Flag.WithBigEndian()
	}
	header.Flag.SetCompressionType(b.compression)
	header.StructureCount = uint32(len(c.Structures)) //nolint:gosec
	header.AssociationsCount = uint32(len(names))     //nolint:gosec
	header.PayloadSize = uint64(len(payload))
	header.Checksum = hash.Sum(payload)

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(payload)

	return err
}

func writeAssociations(enc *encoding.VarStringEncoder, a *assoc.Associations) error {
	body := encoding.NewVarStringEncoder(enc.Engine())
	defer body.Reset()

	if err := binfmt.EncodeAssociations(body, a); err != nil {
		return err
	}
	enc.WriteBytes(body.Bytes())

	return nil
}

// ReadHeader reads and validates the header of an .mdb file.
func ReadHeader(data []byte) (section.FileHeader, error) {
	header, err := section.ParseFileHeader(data)
	if err != nil {
		return section.FileHeader{}, err
	}
	stored := uint64(len(data) - section.HeaderSize)
	switch {
	case stored < header.PayloadSize:
		return section.FileHeader{}, fmt.Errorf("%w: payload of %d bytes, header says %d",
			errs.ErrMalformedPayload, stored, header.PayloadSize)
	case stored > header.PayloadSize:
		return section.FileHeader{}, fmt.Errorf("%w: %d bytes after payload", errs.ErrExcessData, stored-header.PayloadSize)
	}

	return header, nil
}

func (b *Backend) Decode(ctx context.Context, r io.Reader, want accessor.Want, env serial.Env) (*accessor.Contents, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	header, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	stored := data[section.PayloadOffset:]
	if sum := hash.Sum(stored); sum != header.Checksum {
		return nil, fmt.Errorf("%w: %016x, header says %016x", errs.ErrChecksumMismatch, sum, header.Checksum)
	}
	codec, err := compress.GetCodec(header.Flag.CompressionType())
	if err != nil {
		return nil, err
	}
	payload, err := codec.Decompress(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedPayload, err)
	}

	engine := header.Flag.GetEndianEngine()
	dec := encoding.NewVarStringDecoder(payload, engine)

	n := dec.ReadCount()
	if dec.Err() == nil && n != int(header.StructureCount) {
		return nil, fmt.Errorf("%w: %d structures, header says %d", errs.ErrMalformedPayload, n, header.StructureCount)
	}
	structures := make([]*schema.Structure, 0, n)
	for range n {
		s, err := binfmt.DecodeStructure(dec)
		if err != nil {
			return nil, err
		}
		structures = append(structures, s)
	}
	if err := accessor.RegisterStructures(env, structures); err != nil {
		return nil, err
	}

	c := &accessor.Contents{Structures: structures, Associations: make(map[string]*assoc.Associations)}
	m := dec.ReadCount()
	if dec.Err() == nil && m != int(header.AssociationsCount) {
		return nil, fmt.Errorf("%w: %d associations, header says %d", errs.ErrMalformedPayload, m, header.AssociationsCount)
	}
	for range m {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := dec.Read()
		body := dec.ReadBytes()
		if err := dec.Err(); err != nil {
			return nil, err
		}
		if !want.WantsAssociations(name) {
			continue
		}
		a, err := readAssociations(body, engine, env)
		if err != nil {
			return nil, fmt.Errorf("associations %q: %w", name, err)
		}
		c.Associations[name] = a
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	if dec.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d trailing payload bytes", errs.ErrExcessData, dec.Remaining())
	}

	return c, nil
}

func readAssociations(body []byte, engine endian.EndianEngine, env serial.Env) (*assoc.Associations, error) {
	dec := encoding.NewVarStringDecoder(body, engine)
	a, err := binfmt.DecodeAssociations(dec, env)
	if err != nil {
		return nil, err
	}
	if dec.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrExcessData, dec.Remaining())
	}

	return a, nil
}
