package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/scanner"
)

// CollectStats reports where Collect's paths came from.
type CollectStats struct {
	Rescanned int // (root, extension) pairs walked on disk
	Cached    int // (root, extension) pairs served from the catalog
	Files     int
}

// Collect returns the files of every root and extension in opts. An
// extension is rescanned when update is true or when the catalog has
// never seen it for that root; otherwise its cached list is used.
// Fresh scans are written back to the catalog under the writer lock.
//
// Paths come out roots first, then extensions in opts order, matching
// scanner.Result.Paths.
func Collect(ctx context.Context, cat *Catalog, sc *scanner.Scanner, opts scanner.ScanOptions, update bool) ([]string, CollectStats, error) {
	if cat.lock != nil {
		if err := cat.lock.Lock(); err != nil {
			return nil, CollectStats{}, err
		}
		defer func() { _ = cat.lock.Unlock() }()
	}
	return collect(ctx, cat, sc, opts, update)
}

// TryCollect is Collect without waiting: when another process holds the
// writer lock it returns ErrCodeLockHeld immediately.
func TryCollect(ctx context.Context, cat *Catalog, sc *scanner.Scanner, opts scanner.ScanOptions, update bool) ([]string, CollectStats, error) {
	if cat.lock != nil {
		acquired, err := cat.lock.TryLock()
		if err != nil {
			return nil, CollectStats{}, err
		}
		if !acquired {
			return nil, CollectStats{}, trovoerrors.New(trovoerrors.ErrCodeLockHeld,
				"catalog is being updated by another trovo process", nil).
				WithDetail("lock", cat.lock.Path())
		}
		defer func() { _ = cat.lock.Unlock() }()
	}
	return collect(ctx, cat, sc, opts, update)
}

func collect(ctx context.Context, cat *Catalog, sc *scanner.Scanner, opts scanner.ScanOptions, update bool) ([]string, CollectStats, error) {
	var stats CollectStats
	exts := normalize(opts.Extensions)

	var out []string
	for _, root := range opts.Roots {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, stats, fmt.Errorf("resolve root %s: %w", root, err)
		}

		cached := make(map[string][]string, len(exts))
		var stale []string
		for _, ext := range exts {
			if update {
				stale = append(stale, ext)
				continue
			}
			paths, ok, err := cat.Get(ctx, abs, ext)
			if err != nil {
				return nil, stats, err
			}
			if !ok {
				stale = append(stale, ext)
				continue
			}
			cached[ext] = paths
			stats.Cached++
		}

		if len(stale) > 0 {
			rootOpts := opts
			rootOpts.Extensions = stale
			rr, err := sc.ScanRoot(ctx, abs, rootOpts)
			if err != nil {
				return nil, stats, err
			}
			for _, ext := range stale {
				paths := rr.ByExtension[ext]
				if err := cat.Put(ctx, abs, ext, paths); err != nil {
					return nil, stats, err
				}
				cached[ext] = paths
				stats.Rescanned++
			}
		}

		for _, ext := range exts {
			out = append(out, cached[ext]...)
		}
	}
	stats.Files = len(out)

	slog.Debug("catalog_collect",
		slog.Int("roots", len(opts.Roots)),
		slog.Int("rescanned", stats.Rescanned),
		slog.Int("cached", stats.Cached),
		slog.Int("files", stats.Files))
	return out, stats, nil
}

func normalize(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(e, "."))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
