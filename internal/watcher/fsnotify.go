package watcher

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
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("watcher already started")

// Watcher watches directory trees with fsnotify and emits debounced
// batches of relevant changes.
type Watcher struct {
	fs        *fsnotify.Watcher
	opts      Options
	debouncer *Debouncer
	events    chan Batch
	errors    chan error
	stopCh    chan struct{}
	roots     []string
	mu        sync.RWMutex
	started   bool
	stopped   bool

	droppedBatches atomic.Uint64
}

// New creates a watcher. Nothing is watched until Start.
func New(opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fs:        fsw,
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan Batch, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start registers every directory under roots and begins delivering
// batches. It returns once the trees are registered; the watcher runs
// until Stop or until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	if err := w.addRoots(roots); err != nil {
		_ = w.Stop()
		return err
	}

	go w.forward(ctx)
	go w.run(ctx)

	slog.Debug("watcher_started",
		slog.Int("roots", len(w.roots)),
		slog.Int("directories", len(w.fs.WatchList())))
	return nil
}

func (w *Watcher) addRoots(roots []string) error {
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve absolute path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("watch %s: %w", abs, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch %s: not a directory", abs)
		}
		if err := w.addRecursive(abs); err != nil {
			return fmt.Errorf("add directories to watcher: %w", err)
		}
		w.roots = append(w.roots, abs)
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

// handle converts and filters one fsnotify event.
func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if w.ignoredName(name) {
		return
	}

	isDir := false
	if info, err := os.Lstat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			if err := w.addRecursive(event.Name); err != nil {
				w.emitError(err)
			}
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	if !isDir && !w.wantFile(name, op) {
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      event.Name,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// wantFile applies the extension filter. A removed path cannot be
// stat'ed, so one without an extension is kept in case it was a directory.
func (w *Watcher) wantFile(name string, op Operation) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return op == OpDelete || op == OpRename
	}
	return slices.Contains(w.opts.Extensions, strings.ToLower(ext[1:]))
}

func (w *Watcher) ignoredName(name string) bool {
	if slices.Contains(noiseDirs, name) || slices.Contains(w.opts.ExcludeDirs, name) {
		return true
	}
	return !w.opts.IncludeHidden && len(name) > 1 && name[0] == '.'
}

// addRecursive registers dir and every directory below it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignoredName(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(batch.Events) > 0 {
				w.emit(batch)
			}
		}
	}
}

func (w *Watcher) emit(batch Batch) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch.Events)),
			slog.Uint64("total_dropped_batches", count))
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop releases the fsnotify handle and closes Events and Errors.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	err := w.fs.Close()

	close(w.events)
	close(w.errors)
	return err
}

// Events returns the channel of debounced batches. It is closed by Stop.
func (w *Watcher) Events() <-chan Batch {
	return w.events
}

// Errors returns non-fatal watcher errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Roots returns the absolute roots being watched.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// DroppedBatches returns the number of batches dropped on a full buffer.
func (w *Watcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}
