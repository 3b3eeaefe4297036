package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/catalog"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/metrics"
	"github.com/Aman-CERP/trovo/internal/scanner"
	"github.com/Aman-CERP/trovo/internal/search"
	"github.com/Aman-CERP/trovo/internal/server"
	"github.com/Aman-CERP/trovo/internal/watcher"
)

// serveOptions holds CLI flags for serve.
type serveOptions struct {
	searchOptions
	addr  string
	watch bool
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches over HTTP",
		Long: `Build the index once and answer searches over HTTP until interrupted.

Endpoints:
  GET  /search?q=<query>&limit=N   ranked paths as JSON
  GET  /healthz                    index size and k
  GET  /metrics                    Prometheus metrics
  POST /rebuild                    rescan and swap in a fresh index

With --watch, file creations, deletions and renames under the scan paths
trigger a rebuild; searches keep using the previous index until the new
one is ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "Listen address (default server.addr)")
	f.BoolVar(&opts.watch, "watch", false, "Rebuild when files change (default server.watch)")
	f.StringArrayVarP(&opts.paths, "path", "p", nil, "Directory to serve (repeatable)")
	f.StringVarP(&opts.filetype, "filetype", "t", "", "File type group")
	f.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "Extensions to leave out")
	f.BoolVar(&opts.update, "update", true, "Rescan at startup instead of using cached file lists")
	f.IntVarP(&opts.results, "results", "n", 0, "Default result count (default search.results)")
	f.IntVar(&opts.k, "k", 0, "Shingle length (default index.k, or 3 when that is 0)")
	opts.format = "text"

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, a *app, opts serveOptions) error {
	eff, err := opts.resolve(cmd, a.cfg)
	if err != nil {
		return err
	}
	k := eff.k
	if k == 0 {
		k = index.DefaultK
	}
	addr := a.cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = opts.addr
	}
	watch := a.cfg.Server.Watch || opts.watch

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	cat, err := catalog.Open(a.catalogPath())
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: a.searchRenderer(cmd),
		Catalog:  cat,
		Metrics:  m,
	})
	if err != nil {
		return err
	}
	rcfg := index.RunnerConfig{
		Scan: scanner.ScanOptions{
			Roots:          eff.roots,
			Extensions:     eff.extensions,
			FollowSymlinks: a.cfg.Scan.FollowSymlinks,
			IncludeHidden:  a.cfg.Scan.IncludeHidden,
		},
		FileType:     eff.filetype,
		Exclude:      eff.exclude,
		K:            k,
		Update:       eff.update,
		SnapshotPath: a.snapshotPath(),
	}
	res, err := runner.Run(ctx, rcfg)
	if err != nil {
		return err
	}

	engine, err := search.New(index.NewHandle(res.Index),
		search.WithCacheSize(a.cfg.Search.CacheSize),
		search.WithMetrics(m))
	if err != nil {
		return err
	}
	rebuilder := server.NewRebuilder(runner, engine, rcfg)

	if watch {
		w, err := watcher.New(watcher.Options{
			DebounceWindow: a.cfg.DebounceDuration(),
			Extensions:     eff.extensions,
			IncludeHidden:  a.cfg.Scan.IncludeHidden,
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx, eff.roots...); err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()

		go rebuilder.Watch(ctx, w.Events())
		go func() {
			for err := range w.Errors() {
				slog.Warn("watcher_error", slog.String("error", err.Error()))
			}
		}()
	}

	srv := server.New(engine, reg,
		server.WithMetrics(m),
		server.WithDefaultLimit(eff.results),
		server.WithRebuilder(rebuilder))

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving %d files (k=%d) on http://%s\n", res.Files, k, addr)
	return srv.ListenAndServe(ctx, addr)
}
