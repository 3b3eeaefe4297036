package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/catalog"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/scanner"
	"github.com/Aman-CERP/trovo/internal/ui"
)

func newIndexCmd(a *app) *cobra.Command {
	var (
		opts  searchOptions
		noTUI bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the search paths and save an index snapshot",
		Long: `Scan the search paths, build the n-gram index and save it to the data
directory. A later 'trovo --update=false' with the same paths, file type,
exclusions and k reuses the snapshot instead of rebuilding.

With k=0 in the config, the snapshot is built with k=3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, a, opts, noTUI)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.paths, "path", "p", nil, "Directory to index (repeatable)")
	f.StringVarP(&opts.filetype, "filetype", "t", "", "File type group")
	f.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "Extensions to leave out")
	f.BoolVar(&opts.update, "update", true, "Rescan instead of using cached file lists")
	f.IntVar(&opts.k, "k", 0, "Shingle length (default index.k, or 3 when that is 0)")
	f.BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	opts.format = "text"

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, a *app, opts searchOptions, noTUI bool) error {
	eff, err := opts.resolve(cmd, a.cfg)
	if err != nil {
		return err
	}
	k := eff.k
	if k == 0 {
		k = index.DefaultK
	}

	cat, err := catalog.Open(a.catalogPath())
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	uiCfg := ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(noTUI),
		ui.WithNoColor(a.cfg.Display.NoColor),
		ui.WithTitle(strings.Join(eff.roots, ", ")),
	)
	renderer := ui.NewRenderer(uiCfg)
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: renderer,
		Catalog:  cat,
	})
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, index.RunnerConfig{
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
	})
	return err
}

// commandContext returns cmd's context, or Background when run outside
// Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
