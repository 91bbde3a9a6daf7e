// Package corpus collects training documents from a directory tree.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tokenizer-hi/bpe/logutil"
)

var (
	ErrNotFound     = errors.New("corpus directory not found")
	ErrNotDirectory = errors.New("corpus path is not a directory")
)

type Options struct {
	// Limit caps the number of documents; zero or less reads them all.
	Limit int

	// Readers bounds the number of files read at once.
	Readers int

	// Extensions, when set, keeps only files with one of these
	// extensions, e.g. ".txt". The dot is optional.
	Extensions []string
}

func (o Options) keep(name string) bool {
	if len(o.Extensions) == 0 {
		return true
	}

	return slices.ContainsFunc(o.Extensions, func(ext string) bool {
		return strings.EqualFold(filepath.Ext(name), "."+strings.TrimPrefix(ext, "."))
	})
}

// Paths walks root in lexical order and returns the regular files that
// make up the corpus.
func Paths(root string, opts Options) ([]string, error) {
	fi, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	case err != nil:
		return nil, err
	case !fi.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if opts.Limit > 0 && len(paths) >= opts.Limit {
			return filepath.SkipAll
		}

		if !d.Type().IsRegular() || !opts.keep(d.Name()) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// Load reads every document of the corpus under root. Documents keep the
// walk order regardless of how many are read concurrently.
func Load(ctx context.Context, root string, opts Options) ([]string, error) {
	paths, err := Paths(root, opts)
	if err != nil {
		return nil, err
	}

	docs := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Readers, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			bts, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			logutil.TraceContext(ctx, "read document", "path", path, "bytes", len(bts))
			docs[i] = string(bts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("loaded corpus", "root", root, "documents", len(docs))
	return docs, nil
}
