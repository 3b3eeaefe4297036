package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/trovo/internal/catalog"
	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/metrics"
	"github.com/Aman-CERP/trovo/internal/scanner"
	"github.com/Aman-CERP/trovo/internal/ui"
)

// DefaultK is the shingle length used for builds that have no query to
// derive one from (`trovo index`, `trovo serve`).
const DefaultK = 3

// RunnerConfig configures a build.
type RunnerConfig struct {
	// Scan selects the roots and extensions to enumerate.
	Scan scanner.ScanOptions

	// Paths, when non-nil, is used as the corpus as-is and nothing is
	// scanned (paths read from stdin).
	Paths []string

	// FileType and Exclude are recorded in the snapshot fingerprint.
	FileType string
	Exclude  []string

	// K is the shingle length. Must be positive.
	K int

	// Update forces a rescan of every extension even when the catalog
	// already holds it.
	Update bool

	// NoWait fails with ErrCodeLockHeld instead of waiting when another
	// process holds the catalog lock.
	NoWait bool

	// SnapshotPath is where the built index is saved. Empty skips saving.
	SnapshotPath string
}

// RunnerResult contains the outcome of a build.
type RunnerResult struct {
	Index       *Index
	Fingerprint Fingerprint

	// Files is the number of documents indexed.
	Files int

	// Collect reports rescanned and cached (root, extension) pairs.
	Collect catalog.CollectStats

	// Duration is the total build time.
	Duration time.Duration

	// Warnings is the count of non-fatal warnings (unreadable entries).
	Warnings int
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Scanner walks the roots. Defaults to scanner.New().
	Scanner *scanner.Scanner

	// Catalog caches file lists between runs. Nil scans every time.
	Catalog *catalog.Catalog

	// Metrics records build counts and durations. Optional.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

// Runner executes builds with progress reporting.
type Runner struct {
	renderer ui.Renderer
	scanner  *scanner.Scanner
	catalog  *catalog.Catalog
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// ProgressFunc fires from concurrent walkers.
	mu sync.Mutex
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	sc := deps.Scanner
	if sc == nil {
		sc = scanner.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		renderer: deps.Renderer,
		scanner:  sc,
		catalog:  deps.Catalog,
		metrics:  deps.Metrics,
		logger:   logger,
	}, nil
}

// Run collects the corpus, builds the index and optionally saves it.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	start := time.Now()
	res, err := r.run(ctx, cfg)
	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		r.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
		r.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		r.renderer.AddError(ui.ErrorEvent{Err: err})
		return nil, err
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	if err := ValidateK(cfg.K); err != nil {
		return nil, err
	}
	startTime := time.Now()
	var timing ui.StageTimings
	result := &RunnerResult{}

	// Stage 1: collect paths
	scanStart := time.Now()
	paths, err := r.collect(ctx, cfg, result)
	if err != nil {
		return nil, err
	}
	timing.Scan = time.Since(scanStart)
	result.Files = len(paths)

	// Stage 2: build
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageIndexing,
		Current: 0,
		Total:   len(paths),
		Message: fmt.Sprintf("Indexing %d files (k=%d)", len(paths), cfg.K),
	})
	indexStart := time.Now()
	idx, err := Build(NewCorpus(paths), cfg.K)
	if err != nil {
		return nil, err
	}
	timing.Index = time.Since(indexStart)
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageIndexing,
		Current: len(paths),
		Total:   len(paths),
		Message: fmt.Sprintf("%d terms, %d shingles", idx.VocabularySize(), idx.ShingleCount()),
	})
	result.Index = idx
	result.Fingerprint = Fingerprint{
		Roots:    cfg.Scan.Roots,
		FileType: cfg.FileType,
		Exclude:  cfg.Exclude,
		K:        cfg.K,
	}

	// Stage 3: save
	if cfg.SnapshotPath != "" {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageSaving,
			CurrentFile: cfg.SnapshotPath,
			Message:     "Saving snapshot",
		})
		saveStart := time.Now()
		if err := Save(cfg.SnapshotPath, idx, result.Fingerprint); err != nil {
			return nil, trovoerrors.New(trovoerrors.ErrCodeIndexFailed, "failed to save index snapshot", err).
				WithDetail("path", cfg.SnapshotPath)
		}
		timing.Save = time.Since(saveStart)
	}

	result.Duration = time.Since(startTime)
	r.renderer.Complete(ui.CompletionStats{
		Files:    result.Files,
		Terms:    idx.VocabularySize(),
		Shingles: idx.ShingleCount(),
		K:        idx.K(),
		Cached:   result.Collect.Rescanned == 0 && result.Collect.Cached > 0,
		Duration: result.Duration,
		Warnings: result.Warnings,
		Stages:   timing,
	})

	r.logger.Info("index_built",
		slog.Int("documents", idx.Len()),
		slog.Int("terms", idx.VocabularySize()),
		slog.Int("k", idx.K()),
		slog.Int("rescanned", result.Collect.Rescanned),
		slog.Int("cached", result.Collect.Cached),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// collect returns the corpus paths from cfg.Paths, the catalog, or a
// fresh scan, in that order of preference.
func (r *Runner) collect(ctx context.Context, cfg RunnerConfig, result *RunnerResult) ([]string, error) {
	if cfg.Paths != nil {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageScanning,
			Current: len(cfg.Paths),
			Total:   len(cfg.Paths),
			Message: fmt.Sprintf("Read %d paths", len(cfg.Paths)),
		})
		return cfg.Paths, nil
	}

	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageScanning,
		Total:   len(cfg.Scan.Roots),
		Message: "Scanning files...",
	})

	if r.catalog != nil {
		collect := catalog.Collect
		if cfg.NoWait {
			collect = catalog.TryCollect
		}
		paths, stats, err := collect(ctx, r.catalog, r.scanner, cfg.Scan, cfg.Update)
		if err != nil {
			return nil, err
		}
		result.Collect = stats
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageScanning,
			Current: len(cfg.Scan.Roots),
			Total:   len(cfg.Scan.Roots),
			Message: fmt.Sprintf("Found %d files (%d scanned, %d cached)", len(paths), stats.Rescanned, stats.Cached),
		})
		return paths, nil
	}

	opts := cfg.Scan
	done := 0
	opts.ProgressFunc = func(root string, found int) {
		r.mu.Lock()
		defer r.mu.Unlock()
		done++
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageScanning,
			Current:     done,
			Total:       len(opts.Roots),
			CurrentFile: root,
			Message:     fmt.Sprintf("%d files", found),
		})
	}
	sr, err := r.scanner.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	for _, rr := range sr.Roots {
		if rr.Skipped > 0 {
			result.Warnings += rr.Skipped
			r.renderer.AddError(ui.ErrorEvent{
				File:   rr.Root,
				Err:    fmt.Errorf("%d unreadable entries skipped", rr.Skipped),
				IsWarn: true,
			})
		}
	}
	result.Collect = catalog.CollectStats{
		Rescanned: len(sr.Roots) * len(sr.Extensions),
		Files:     sr.Count(),
	}
	return sr.Paths(), nil
}
