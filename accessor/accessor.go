package accessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/internal/options"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
	"github.com/rs/zerolog"
)

// Accessor reads and writes one metadata file through a Backend.
//
// An Accessor is not safe for concurrent use.
type Accessor struct {
	backend      Backend
	fileName     string
	structures   []*schema.Structure
	associations map[string]*assoc.Associations
	registry     *schema.Registry
	indexes      *index.Registry
	logger       zerolog.Logger
}

// Option configures an Accessor.
type Option = options.Option[*Accessor]

// WithLogger sets the logger for read and write events.
func WithLogger(logger zerolog.Logger) Option {
	return options.NoError(func(a *Accessor) {
		a.logger = logger
	})
}

// WithStructureRegistry sets the registry used to resolve structures a file
// refers to but does not define.
func WithStructureRegistry(reg *schema.Registry) Option {
	return options.NoError(func(a *Accessor) {
		a.registry = reg
	})
}

// WithIndexRegistry sets the registry used to create indices while reading.
func WithIndexRegistry(reg *index.Registry) Option {
	return options.NoError(func(a *Accessor) {
		a.indexes = reg
	})
}

// New creates an Accessor over backend.
func New(backend Backend, opts ...Option) (*Accessor, error) {
	a := &Accessor{
		backend:      backend,
		associations: make(map[string]*assoc.Associations),
		logger:       zerolog.Nop(),
	}
	if err := options.Apply(a, opts...); err != nil {
		return nil, err
	}

	return a, nil
}

// ReadOption restricts what Read loads.
type ReadOption = options.Option[*Want]

// WithStructures loads only the named structures. Associations using a
// structure the file defines but the filter rejects are skipped.
func WithStructures(names ...string) ReadOption {
	return options.NoError(func(w *Want) {
		if w.Structures == nil {
			w.Structures = make([]string, 0, len(names))
		}
		w.Structures = append(w.Structures, names...)
	})
}

// WithAssociations loads only the named associations. Calling it without
// names loads none.
func WithAssociations(names ...string) ReadOption {
	return options.NoError(func(w *Want) {
		if w.Associations == nil {
			w.Associations = make([]string, 0, len(names))
		}
		w.Associations = append(w.Associations, names...)
	})
}

// Backend returns the format backend.
func (a *Accessor) Backend() Backend {
	return a.backend
}

// FileName returns the file used by Read and Write.
func (a *Accessor) FileName() string {
	return a.fileName
}

// SetFileName sets the file used by Write.
func (a *Accessor) SetFileName(fileName string) {
	a.fileName = fileName
}

// Structures returns the structures read or set for writing.
func (a *Accessor) Structures() []*schema.Structure {
	return a.structures
}

// SetStructures replaces the structures to write.
func (a *Accessor) SetStructures(structures []*schema.Structure) {
	a.structures = slices.Clone(structures)
}

// Associations returns the named associations read or set for writing.
// The map may be modified to change what Write stores.
func (a *Accessor) Associations() map[string]*assoc.Associations {
	return a.associations
}

// SetAssociations stores a share of assocs under name.
func (a *Accessor) SetAssociations(name string, assocs *assoc.Associations) {
	a.associations[name] = assocs.Share()
}

// Clear drops the structures and associations. The file name is kept.
func (a *Accessor) Clear() {
	a.structures = nil
	a.associations = make(map[string]*assoc.Associations)
}

// IsFileSupported reports whether the backend handles the file extension.
func (a *Accessor) IsFileSupported(fileName string) bool {
	ext := NormalizeExtension(filepath.Ext(fileName))
	return ext != "" && slices.Contains(a.backend.Extensions(), ext)
}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (a *Accessor) env() serial.Env {
	return serial.Env{Structures: schema.NewScopedRegistry(a.registry), Indexes: a.indexes}
}

func buildWant(opts []ReadOption) (Want, error) {
	var want Want
	if err := options.Apply(&want, opts...); err != nil {
		return Want{}, err
	}

	return want, nil
}

// Read clears the accessor and loads fileName.
//
// Parameters:
//   - ctx: cancels the read between decoding steps
//   - fileName: file to read; it becomes FileName
//   - opts: WithStructures and WithAssociations filters
//
// Returns:
//   - error: the backend failure wrapped with the file name; the accessor is
//     left empty on failure
func (a *Accessor) Read(ctx context.Context, fileName string, opts ...ReadOption) error {
	a.Clear()
	a.fileName = fileName

	want, err := buildWant(opts)
	if err != nil {
		return err
	}

	return a.read(ctx, fileName, want, func(env serial.Env) (*Contents, error) {
		if fb, ok := a.backend.(FileBackend); ok {
			return fb.DecodeFile(ctx, fileName, want, env)
		}
		f, err := os.Open(fileName)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return a.backend.Decode(ctx, f, want, env)
	})
}

// ReadFrom clears the accessor and loads the contents of r.
func (a *Accessor) ReadFrom(ctx context.Context, r io.Reader, opts ...ReadOption) error {
	a.Clear()

	want, err := buildWant(opts)
	if err != nil {
		return err
	}

	return a.read(ctx, a.fileName, want, func(env serial.Env) (*Contents, error) {
		return a.backend.Decode(ctx, r, want, env)
	})
}

func (a *Accessor) read(ctx context.Context, fileName string, want Want, decode func(serial.Env) (*Contents, error)) error {
	start := time.Now()
	log := a.logger.With().Str("file", fileName).Str("format", a.backend.Name()).Logger()
	log.Debug().Msg("reading metadata")

	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := decode(a.env())
	if err != nil {
		a.Clear()
		log.Warn().Err(err).Msg("failed to read metadata")

		return fmt.Errorf("read %s: %w", fileName, err)
	}
	a.accept(c, want, log)

	log.Info().
		Int("structures", len(a.structures)).
		Int("associations", len(a.associations)).
		Dur("duration", time.Since(start)).
		Msg("read metadata")

	return nil
}

// accept applies the filters to decoded contents.
func (a *Accessor) accept(c *Contents, want Want, log zerolog.Logger) {
	rejected := make(map[string]struct{})
	for _, s := range c.Structures {
		if want.WantsStructure(s.Name()) {
			a.structures = append(a.structures, s)
		} else {
			rejected[s.Name()] = struct{}{}
		}
	}

	for _, name := range c.AssociationNames() {
		as := c.Associations[name]
		if !want.WantsAssociations(name) {
			continue
		}
		if st := usesRejected(as, rejected); st != "" {
			log.Debug().Str("associations", name).Str("structure", st).Msg("skipping associations of filtered structure")
			continue
		}
		a.associations[name] = as
	}
}

func usesRejected(as *assoc.Associations, rejected map[string]struct{}) string {
	if len(rejected) == 0 {
		return ""
	}
	for _, s := range as.Structures() {
		if _, ok := rejected[s.Name()]; ok {
			return s.Name()
		}
	}

	return ""
}

// Contents returns what Write stores: the set structures plus every
// structure the associations use, ordered by name.
//
// Returns:
//   - error: ErrDuplicateStructure when two different structures share a name
func (a *Accessor) Contents() (*Contents, error) {
	byName := make(map[string]*schema.Structure)
	add := func(s *schema.Structure) error {
		if existing, ok := byName[s.Name()]; ok {
			if existing != s && !existing.Equal(s) {
				return fmt.Errorf("%w: %q", errs.ErrDuplicateStructure, s.Name())
			}

			return nil
		}
		byName[s.Name()] = s

		return nil
	}

	for _, s := range a.structures {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, as := range a.associations {
		for _, s := range as.Structures() {
			if err := add(s); err != nil {
				return nil, err
			}
		}
	}

	c := &Contents{Associations: make(map[string]*assoc.Associations, len(a.associations))}
	for _, s := range byName {
		c.Structures = append(c.Structures, s)
	}
	slices.SortFunc(c.Structures, func(x, y *schema.Structure) int {
		return strings.Compare(x.Name(), y.Name())
	})
	for name, as := range a.associations {
		c.Associations[name] = as
	}

	return c, nil
}

// Write stores the structures and associations into FileName.
//
// Returns:
//   - error: ErrNoFileName, ErrDuplicateStructure, or the backend failure
func (a *Accessor) Write(ctx context.Context) error {
	if a.fileName == "" {
		return errs.ErrNoFileName
	}

	return a.write(ctx, a.fileName, func(c *Contents) error {
		if fb, ok := a.backend.(FileBackend); ok {
			return fb.EncodeFile(ctx, a.fileName, c)
		}
		f, err := os.Create(a.fileName)
		if err != nil {
			return err
		}
		if err := a.backend.Encode(ctx, f, c); err != nil {
			_ = f.Close()
			return err
		}

		return f.Close()
	})
}

// WriteTo stores the structures and associations into w.
func (a *Accessor) WriteTo(ctx context.Context, w io.Writer) error {
	return a.write(ctx, a.fileName, func(c *Contents) error {
		return a.backend.Encode(ctx, w, c)
	})
}

func (a *Accessor) write(ctx context.Context, fileName string, encode func(*Contents) error) error {
	start := time.Now()
	log := a.logger.With().Str("file", fileName).Str("format", a.backend.Name()).Logger()
	log.Debug().Msg("writing metadata")

	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := a.Contents()
	if err == nil {
		err = encode(c)
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to write metadata")
		return fmt.Errorf("write %s: %w", fileName, err)
	}

	log.Info().
		Int("structures", len(c.Structures)).
		Int("associations", len(c.Associations)).
		Dur("duration", time.Since(start)).
		Msg("wrote metadata")

	return nil
}
