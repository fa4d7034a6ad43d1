// Package driver runs the resolver over ABI files on disk, in parallel, with
// results cached by content.
package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jshufro/abistructs/internal/abi"
	"github.com/jshufro/abistructs/internal/cache"
	"github.com/jshufro/abistructs/internal/declarations"
)

var ErrNoInput = errors.Base("no abi files found")

// Extensions recognised when walking a directory.
var Extensions = []string{".json", ".abi", ".yaml", ".yml"}

type Options struct {
	Jobs  int          // 0 means GOMAXPROCS
	Cache *cache.Cache // nil disables caching
}

func (o Options) jobs() int {
	if o.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Jobs
}

// Result is the outcome for one input file.
type Result struct {
	Path      string
	Catalogue *declarations.Catalogue
	Cached    bool
	// Warnings holds non fatal validation problems, duplicate identifiers.
	Warnings error
}

// ListFiles expands paths into a sorted, deduplicated list of ABI files.
// Directories are walked recursively; files named explicitly are kept
// whatever their extension.
func ListFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(Extensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Errorf("walking %s: %w", p, err)
		}
	}

	// deterministic order
	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, errors.WithStack(ErrNoInput)
	}
	return files, nil
}

// ResolveFiles resolves every file under paths. Results are in ListFiles
// order. The first failing file cancels the rest.
func ResolveFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	files, err := ListFiles(paths)
	if err != nil {
		return nil, err
	}

	jobs := opts.jobs()
	// a lone file gets the parallelism for its entries instead
	entryJobs := 1
	if len(files) == 1 {
		entryJobs = jobs
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Errorf("reading %s: %w", path, err)
			}
			res, err := resolve(gctx, path, data, opts.Cache, entryJobs)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Resolve resolves a single ABI document. name selects the decoder, see
// abi.Load.
func Resolve(ctx context.Context, name string, data []byte, opts Options) (Result, error) {
	return resolve(ctx, name, data, opts.Cache, opts.jobs())
}

func resolve(ctx context.Context, name string, data []byte, c *cache.Cache, jobs int) (Result, error) {
	ctx = slogctx.Append(ctx, "file", name)
	key := cache.KeyOf(data)

	if cat, ok := c.Get(ctx, key); ok {
		slogctx.Debug(ctx, "catalogue cache hit", "declarations", cat.Len())
		return Result{Path: name, Catalogue: cat, Cached: true}, nil
	}

	entries, err := abi.Load(name, data)
	if err != nil {
		return Result{}, err
	}

	collection, err := declarations.CollectConcurrently(ctx, entries, jobs)
	if err != nil {
		return Result{}, errors.Errorf("collecting %s: %w", name, err)
	}
	cat, err := declarations.Resolve(collection)
	if err != nil {
		return Result{}, errors.Errorf("resolving %s: %w", name, err)
	}

	res := Result{Path: name, Catalogue: cat}
	if err := cat.Validate(); err != nil {
		if errors.Is(err, declarations.ErrDanglingReference) {
			return Result{}, errors.Errorf("validating %s: %w", name, err)
		}
		slogctx.Warn(ctx, "catalogue has duplicate identifiers", "error", err)
		res.Warnings = err
		// Restore refuses invalid snapshots, so there is nothing to cache
		return res, nil
	}

	if err := c.Put(ctx, key, cat); err != nil {
		slogctx.Warn(ctx, "caching catalogue", "error", err)
	}
	slogctx.Debug(ctx, "resolved catalogue", "entries", len(entries), "declarations", cat.Len(), "scopes", len(cat.ScopeNames()))
	return res, nil
}
