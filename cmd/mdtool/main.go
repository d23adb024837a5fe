// Command mdtool inspects and converts metadata files.
//
// Usage:
//
//	mdtool dump [--format Debug] FILE
//	mdtool convert IN OUT
//	mdtool batch --ext EXT [--out DIR] FILE...
//	mdtool formats
//
// Every subcommand accepts --config FILE; see internal/config for the keys.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/mdata"
	"github.com/arloliu/mdata/accessor"
	"github.com/arloliu/mdata/accessor/binfile"
	"github.com/arloliu/mdata/format"
	"github.com/arloliu/mdata/internal/config"
	"github.com/arloliu/mdata/internal/logger"
)

// Version is set at build time
var Version = "dev"

const usage = `usage: mdtool <command> [flags] [args]

commands:
  dump     print the structures and associations of a file
  convert  rewrite a file in the format of another extension
  batch    convert many files concurrently
  formats  list serializer formats and file extensions
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app is the state shared by the subcommands.
type app struct {
	cfg    *config.Config
	mctx   *mdata.Context
	log    zerolog.Logger
	flags  commandFlags
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	commands := map[string]func(*app, context.Context, []string) error{
		"dump":    (*app).dump,
		"convert": (*app).convert,
		"batch":   (*app).batch,
		"formats": (*app).formats,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "mdtool: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "configuration file")
	flags := subcommandFlags(args[0], fs)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "mdtool: %v\n", err)
		return 1
	}
	logger.SetupWriter(stderr, cfg.Log.Level, cfg.Log.Format)
	log := logger.Get("mdtool")

	mctx, err := mdata.NewContext(
		mdata.WithLogger(logger.Get("accessor")),
		mdata.WithBinaryOptions(
			binfile.WithCompression(cfg.Binary.Compression),
			binfile.WithBigEndian(cfg.Binary.BigEndian),
		),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to set up metadata context")
		return 1
	}
	defer mctx.Close()

	a := &app{cfg: cfg, mctx: mctx, log: log, flags: flags, stdout: stdout}

	log.Debug().Str("version", Version).Str("command", args[0]).Msg("starting")
	if err := cmd(a, ctx, fs.Args()); err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("command failed")
		return 1
	}

	return 0
}

// commandFlags holds the flags of every subcommand; only the ones the
// running subcommand defines are bound.
type commandFlags struct {
	format *string
	ext    *string
	outDir *string
}

func subcommandFlags(name string, fs *flag.FlagSet) commandFlags {
	var f commandFlags
	switch name {
	case "dump":
		f.format = fs.String("format", format.Debug, "serializer format used for printing")
	case "batch":
		f.ext = fs.String("ext", "", "extension of the converted files")
		f.outDir = fs.String("out", "", "output directory, defaults to the input directory")
	}

	return f
}

func (a *app) dump(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("dump: expected one file")
	}
	name := *a.flags.format

	structures, err := a.mctx.Formats.Structures.ByName(name)
	if err != nil {
		return err
	}
	associations, err := a.mctx.Formats.Associations.ByName(name)
	if err != nil {
		return err
	}

	acc, err := a.mctx.ReadFile(ctx, args[0])
	if err != nil {
		return err
	}
	contents, err := acc.Contents()
	if err != nil {
		return err
	}

	for _, s := range contents.Structures {
		fmt.Fprintf(a.stdout, "# structure %s\n", s.Name())
		if err := structures.Write(s, a.stdout); err != nil {
			return err
		}
	}
	for _, n := range contents.AssociationNames() {
		fmt.Fprintf(a.stdout, "# associations %s\n", n)
		if err := associations.Write(contents.Associations[n], a.stdout); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) convert(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("convert: expected input and output file")
	}

	return a.convertFile(ctx, args[0], args[1])
}

func (a *app) convertFile(ctx context.Context, in, out string) error {
	start := time.Now()
	if !a.mctx.Accessors.IsFileSupported(out) {
		return fmt.Errorf("%s: unsupported output extension", out)
	}
	if !a.cfg.Convert.Overwrite {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%s exists; set convert.overwrite to replace it", out)
		}
	}

	src, err := a.mctx.ReadFile(ctx, in)
	if err != nil {
		return err
	}
	dst, err := a.mctx.Accessors.ForFile(out)
	if err != nil {
		return err
	}
	dst.SetStructures(src.Structures())
	for name, as := range src.Associations() {
		dst.SetAssociations(name, as)
	}
	if err := dst.Write(ctx); err != nil {
		return err
	}

	a.log.Info().Str("in", in).Str("out", out).Dur("duration", time.Since(start)).Msg("converted")

	return nil
}

func (a *app) batch(ctx context.Context, args []string) error {
	ext := accessor.NormalizeExtension(*a.flags.ext)
	if ext == "" {
		return errors.New("batch: --ext is required")
	}
	if len(args) == 0 {
		return errors.New("batch: no input files")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Convert.Workers)
	for _, in := range args {
		dir := *a.flags.outDir
		if dir == "" {
			dir = filepath.Dir(in)
		}
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		out := filepath.Join(dir, base+"."+ext)

		g.Go(func() error {
			if err := a.convertFile(ctx, in, out); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info().Int("files", len(args)).Int("workers", a.cfg.Convert.Workers).Msg("batch done")

	return nil
}

func (a *app) formats(_ context.Context, _ []string) error {
	fmt.Fprintln(a.stdout, "serializer formats:")
	for _, name := range a.mctx.Formats.Formats() {
		fmt.Fprintf(a.stdout, "  %-12s %s\n", name, a.mctx.Formats.Describe(name))
	}

	fmt.Fprintln(a.stdout, "file extensions:")
	exts := a.mctx.Accessors.SupportedExtensions()
	byBackend := make(map[string][]string)
	for _, ext := range exts {
		acc, err := a.mctx.Accessors.ByExtension(ext)
		if err != nil {
			return err
		}
		name := acc.Backend().Name()
		byBackend[name] = append(byBackend[name], ext)
	}
	names := make([]string, 0, len(byBackend))
	for name := range byBackend {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  %-12s %s\n", name, strings.Join(byBackend[name], ", "))
	}

	return nil
}
