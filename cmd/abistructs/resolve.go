package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/cache"
	"github.com/jshufro/abistructs/internal/driver"
	"github.com/jshufro/abistructs/internal/emit"
)

// stdinName selects the YAML decoder for standard input, which also accepts
// JSON.
const stdinName = "stdin.yaml"

func (a *app) resolveCmd() *cobra.Command {
	var (
		format   string
		out      string
		jobs     int
		cacheDir string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [paths...]",
		Short: "Print the struct declarations of ABI files",
		Long: `Resolve the struct declarations of each ABI and print them in the configured
output format. Directories are searched recursively for *.json, *.abi, *.yaml
and *.yml files. With no paths, or "-", the ABI is read from standard input.

Accepted inputs are a bare ABI array or a build artifact with an "abi" field.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("format") {
				a.cfg.Output.Format = emit.Format(format)
			}
			if flags.Changed("jobs") {
				a.cfg.Resolve.Jobs = jobs
			}
			if flags.Changed("cache-dir") {
				a.cfg.Cache.Dir = cacheDir
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			opts := driver.Options{Jobs: a.cfg.Resolve.Jobs}
			if !noCache {
				c, err := cache.New(a.cfg.Cache.Dir, a.cfg.Cache.Size)
				if err != nil {
					return err
				}
				opts.Cache = c
			}

			results, err := resolveInputs(cmd.Context(), cmd.InOrStdin(), args, opts)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Warnings != nil {
					printWarning(cmd.ErrOrStderr(), r.Path, r.Warnings)
				}
			}
			return a.writeResults(cmd.Context(), cmd.OutOrStdout(), out, results)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", string(emit.FormatSolidity), "output format (sol|proto|go|json)")
	flags.StringVarP(&out, "out", "o", "", "write one file per input into this directory instead of stdout")
	flags.IntVarP(&jobs, "jobs", "j", 0, "parallel workers, 0 uses GOMAXPROCS")
	flags.StringVar(&cacheDir, "cache-dir", "", "directory for the on-disk catalogue cache")
	flags.BoolVar(&noCache, "no-cache", false, "disable the catalogue cache")
	return cmd
}

func readsStdin(args []string) bool {
	return len(args) == 0 || (len(args) == 1 && args[0] == "-")
}

func resolveInputs(ctx context.Context, stdin io.Reader, args []string, opts driver.Options) ([]driver.Result, error) {
	if !readsStdin(args) {
		return driver.ResolveFiles(ctx, args, opts)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, errors.Errorf("reading stdin: %w", err)
	}
	res, err := driver.Resolve(ctx, stdinName, data, opts)
	if err != nil {
		return nil, err
	}
	return []driver.Result{res}, nil
}

// outputName maps an input path to its file name in the output directory.
func outputName(path string, format emit.Format) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + format.Extension()
}

func (a *app) writeResults(ctx context.Context, stdout io.Writer, dir string, results []driver.Result) error {
	format := a.cfg.Output.Format
	opts := a.cfg.EmitOptions()

	if dir == "" {
		for _, r := range results {
			if err := emit.Write(stdout, r.Catalogue, format, opts); err != nil {
				return errors.Errorf("%s: %w", r.Path, err)
			}
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	written := make(map[string]string, len(results))
	for _, r := range results {
		name := outputName(r.Path, format)
		if prev, ok := written[name]; ok {
			return errors.Errorf("%s and %s would both be written to %s", prev, r.Path, name)
		}
		written[name] = r.Path

		target := filepath.Join(dir, name)
		if err := writeFile(target, func(w io.Writer) error {
			return emit.Write(w, r.Catalogue, format, opts)
		}); err != nil {
			return errors.Errorf("%s: %w", r.Path, err)
		}
		slogctx.Info(ctx, "wrote declarations", "file", r.Path, "out", target, "declarations", r.Catalogue.Len())
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.WithStack(cerr)
		}
	}()
	return write(f)
}
