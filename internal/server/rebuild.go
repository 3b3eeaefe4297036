package server

import (
	"context"
	"log/slog"
	"sync"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/search"
	"github.com/Aman-CERP/trovo/internal/watcher"
)

// Rebuilder rebuilds the index and publishes it to the engine. At most
// one rebuild runs at a time.
type Rebuilder struct {
	runner *index.Runner
	engine *search.Engine
	cfg    index.RunnerConfig
	logger *slog.Logger

	mu sync.Mutex
}

// NewRebuilder returns a Rebuilder running cfg. Rebuilds always rescan
// and never wait on another process's catalog lock.
func NewRebuilder(runner *index.Runner, engine *search.Engine, cfg index.RunnerConfig) *Rebuilder {
	cfg.Update = true
	cfg.NoWait = true
	return &Rebuilder{
		runner: runner,
		engine: engine,
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Rebuild builds a fresh index and swaps it in. It returns
// ErrCodeLockHeld when a rebuild is already in progress or another
// process holds the catalog.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	if !r.mu.TryLock() {
		return trovoerrors.New(trovoerrors.ErrCodeLockHeld, "a rebuild is already in progress", nil)
	}
	defer r.mu.Unlock()

	res, err := r.runner.Run(ctx, r.cfg)
	if err != nil {
		return err
	}
	r.engine.Swap(res.Index)
	return nil
}

// Watch rebuilds whenever a batch adds, removes or renames a file, until
// ctx is done or the channel closes.
func (r *Rebuilder) Watch(ctx context.Context, batches <-chan watcher.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			if !batch.NeedsRebuild() {
				continue
			}
			r.logger.Info("rebuild_triggered", slog.Int("events", len(batch.Events)))
			if err := r.Rebuild(ctx); err != nil {
				if trovoerrors.HasCode(err, trovoerrors.ErrCodeLockHeld) {
					r.logger.Warn("rebuild_skipped", slog.String("reason", err.Error()))
					continue
				}
				r.logger.Error("rebuild_failed", trovoerrors.LogAttrs(err)...)
			}
		}
	}
}
