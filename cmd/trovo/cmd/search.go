package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/catalog"
	"github.com/Aman-CERP/trovo/internal/config"
	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/opener"
	"github.com/Aman-CERP/trovo/internal/scanner"
	"github.com/Aman-CERP/trovo/internal/search"
	"github.com/Aman-CERP/trovo/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	paths    []string
	filetype string
	exclude  []string
	update   bool
	results  int
	k        int
	stdin    bool
	prefix   string
	format   string // "text", "json"
	noOpen   bool
	plain    bool
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search file names and open the chosen result",
		Long: `Search file paths for the query and open the chosen result.

Paths are split into words on / . - : ; _ and spaces, and ranked by how
many character n-grams of length k they share with the query. With k=0
the length of the query's shortest word is used.

Examples:
  trovo search report
  trovo search -t images -x gif holiday
  trovo search --update=false invoice 2024
  locate -0 pdf | tr '\0' '\n' | trovo search --stdin --prefix /home report`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, a, args, opts)
		},
	}
	addSearchFlags(cmd, &opts)
	return cmd
}

func addSearchFlags(cmd *cobra.Command, opts *searchOptions) {
	f := cmd.Flags()
	f.StringArrayVarP(&opts.paths, "path", "p", nil, "Directory to search (repeatable, default scan.paths or the working directory)")
	f.StringVarP(&opts.filetype, "filetype", "t", "", "File type: "+strings.Join(config.FileTypeNames(), ", "))
	f.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "Extensions to leave out (repeatable)")
	f.BoolVar(&opts.update, "update", true, "Rescan instead of using cached file lists")
	f.IntVarP(&opts.results, "results", "n", 0, "Number of results (default search.results)")
	f.IntVar(&opts.k, "k", 0, "Shingle length, 0 for the shortest query word's length")
	f.BoolVar(&opts.stdin, "stdin", false, "Read candidate paths from stdin instead of scanning")
	f.StringVar(&opts.prefix, "prefix", "", "With --stdin, keep only paths under this prefix")
	f.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	f.BoolVar(&opts.noOpen, "no-open", false, "List results without prompting")
	f.BoolVar(&opts.plain, "plain", false, "Numbered prompt instead of the interactive picker")
}

// effectiveSearch is searchOptions merged over the loaded config.
type effectiveSearch struct {
	roots      []string
	filetype   string
	exclude    []string
	extensions []string
	update     bool
	results    int
	k          int
	plain      bool
}

// resolve applies flags the user set on top of cfg.
func (o searchOptions) resolve(cmd *cobra.Command, cfg *config.Config) (effectiveSearch, error) {
	eff := effectiveSearch{
		filetype: cfg.Scan.FileType,
		exclude:  cfg.Scan.Exclude,
		update:   !cfg.Scan.UseCache,
		results:  cfg.Search.Results,
		k:        cfg.Index.K,
		plain:    cfg.Display.Plain || o.plain,
	}
	flags := cmd.Flags()
	if flags.Changed("filetype") {
		eff.filetype = o.filetype
	}
	if flags.Changed("exclude") {
		eff.exclude = o.exclude
	}
	if flags.Changed("update") {
		eff.update = o.update
	}
	if flags.Changed("results") {
		eff.results = o.results
	}
	if flags.Changed("k") {
		eff.k = o.k
	}
	if o.format != "text" && o.format != "json" {
		return eff, trovoerrors.InvalidArgument(fmt.Sprintf("unknown format %q", o.format)).
			WithSuggestion("Use --format text or --format json")
	}
	if eff.results < 0 {
		return eff, trovoerrors.InvalidArgument(fmt.Sprintf("--results must be non-negative, got %d", eff.results))
	}

	exts, err := config.Extensions(eff.filetype, eff.exclude)
	if err != nil {
		return eff, err
	}
	eff.extensions = exts

	if len(o.paths) > 0 {
		scoped := *cfg
		scoped.Scan.Paths = o.paths
		cfg = &scoped
	}
	roots, err := cfg.Roots()
	if err != nil {
		return eff, err
	}
	eff.roots = roots
	return eff, nil
}

func runSearch(cmd *cobra.Command, a *app, args []string, opts searchOptions) error {
	ctx := commandContext(cmd)
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return trovoerrors.New(trovoerrors.ErrCodeQueryEmpty, "search query is empty", nil).
			WithSuggestion("Pass one or more words to search for")
	}

	eff, err := opts.resolve(cmd, a.cfg)
	if err != nil {
		return err
	}
	k := eff.k
	if k == 0 {
		k = index.AutoK(query)
	}
	if err := index.ValidateK(k); err != nil {
		return err
	}

	slog.Info("search_started",
		slog.String("query", query),
		slog.Int("k", k),
		slog.String("filetype", eff.filetype),
		slog.Bool("update", eff.update),
		slog.Bool("stdin", opts.stdin))

	idx, err := a.loadOrBuild(ctx, cmd, eff, opts, k)
	if err != nil {
		return err
	}

	engine, err := search.New(index.NewHandle(idx), search.WithCacheSize(0))
	if err != nil {
		return err
	}
	results, err := engine.Search(ctx, query, search.SearchOptions{Limit: eff.results, K: k})
	if err != nil {
		return err
	}
	items := toItems(results)

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		return ui.RenderResultsJSON(out, query, k, items)
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No results for %q\n", query)
		return nil
	}

	uiCfg := ui.NewConfig(out, ui.WithForcePlain(eff.plain), ui.WithNoColor(a.cfg.Display.NoColor))
	styles := uiCfg.Styles()
	if opts.noOpen || opts.stdin {
		return ui.RenderResults(out, items, 0, styles)
	}

	var choice int
	if uiCfg.Interactive() && readerIsTTY(cmd.InOrStdin()) {
		choice, err = ui.Pick(ctx, items, uiCfg)
		if err != nil {
			return err
		}
		if choice < 0 {
			return nil
		}
	} else {
		if err := ui.RenderResults(out, items, 0, styles); err != nil {
			return err
		}
		choice, err = ui.Prompt(cmd.InOrStdin(), out, len(items))
		if err != nil {
			return err
		}
	}

	return opener.New(a.cfg.Display.Opener).Open(ctx, items[choice].Path)
}

// loadOrBuild returns the saved snapshot when it was built for the same
// roots, file type, exclusions and k and no rescan was asked for;
// otherwise it builds a fresh index.
func (a *app) loadOrBuild(ctx context.Context, cmd *cobra.Command, eff effectiveSearch, opts searchOptions, k int) (*index.Index, error) {
	want := index.Fingerprint{Roots: eff.roots, FileType: eff.filetype, Exclude: eff.exclude, K: k}
	if !eff.update && !opts.stdin {
		if idx, fp, err := index.Load(a.snapshotPath()); err == nil && fp.Matches(want) {
			slog.Debug("snapshot_reused", slog.String("path", a.snapshotPath()))
			return idx, nil
		}
	}

	deps := index.RunnerDependencies{Renderer: a.searchRenderer(cmd)}
	rcfg := index.RunnerConfig{
		FileType: eff.filetype,
		Exclude:  eff.exclude,
		K:        k,
		Update:   eff.update,
	}

	if opts.stdin {
		paths, err := readPaths(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		rcfg.Paths = stdinCorpus(paths, opts.prefix, eff)
	} else {
		cat, err := catalog.Open(a.catalogPath())
		if err != nil {
			return nil, err
		}
		defer func() { _ = cat.Close() }()

		deps.Catalog = cat
		rcfg.Scan = scanner.ScanOptions{
			Roots:          eff.roots,
			Extensions:     eff.extensions,
			FollowSymlinks: a.cfg.Scan.FollowSymlinks,
			IncludeHidden:  a.cfg.Scan.IncludeHidden,
		}
	}

	runner, err := index.NewRunner(deps)
	if err != nil {
		return nil, err
	}
	res, err := runner.Run(ctx, rcfg)
	if err != nil {
		return nil, err
	}
	return res.Index, nil
}

// stdinCorpus narrows piped paths to prefix and the file type. "any"
// keeps every path, extensionless ones included, minus the exclusions.
func stdinCorpus(paths []string, prefix string, eff effectiveSearch) []string {
	var kept []string
	if config.IsAnyFileType(eff.filetype) {
		kept = scanner.ExcludeExtensions(scanner.MatchExtensions(paths, prefix, nil), eff.exclude)
	} else {
		kept = scanner.MatchExtensions(paths, prefix, eff.extensions)
	}
	if kept == nil {
		return []string{}
	}
	return kept
}

// searchRenderer reports build progress on stderr with --verbose and
// stays silent otherwise, so the result list is the only output.
func (a *app) searchRenderer(cmd *cobra.Command) ui.Renderer {
	if a.verbose {
		return ui.NewPlainRenderer(ui.NewConfig(cmd.ErrOrStderr()))
	}
	return ui.NewPlainRenderer(ui.NewConfig(io.Discard))
}

// readPaths reads newline-separated paths, skipping blank lines.
func readPaths(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, trovoerrors.IOError("failed to read paths from stdin", err)
	}
	return paths, nil
}

func toItems(results []index.Result) []ui.Item {
	items := make([]ui.Item, len(results))
	for i, r := range results {
		items[i] = ui.Item{Path: r.ID, Score: r.Score}
	}
	return items
}

func readerIsTTY(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && ui.IsTTY(f)
}
