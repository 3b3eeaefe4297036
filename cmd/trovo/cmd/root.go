// Package cmd provides the CLI commands for trovo.
package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/catalog"
	"github.com/Aman-CERP/trovo/internal/config"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/logging"
	"github.com/Aman-CERP/trovo/pkg/version"
)

// app carries state shared by every command of one invocation.
type app struct {
	verbose    bool
	configPath string

	cfg            *config.Config
	loggingCleanup func()
}

// NewRootCmd creates the root command for the trovo CLI. Running it with
// words searches for them.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "trovo [query...]",
		Short: "Find files by approximate name",
		Long: `trovo finds files whose paths share character n-grams with a query.

The files under the scan paths are indexed by their path words, ranked
against the query, and the chosen result is opened with the system opener.

Examples:
  trovo report
  trovo -t documents -p ~/Documents quarterly report
  trovo -n 5 --no-open invoice

A query that starts with a command name needs the explicit form:
  trovo search index cards`,
		Args:          cobra.ArbitraryArgs,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runSearch(cmd, a, args, opts)
		},
	}

	cmd.SetVersionTemplate("trovo version {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging to stderr")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/trovo/config.yaml)")
	addSearchFlags(cmd, &opts)

	cmd.PersistentPreRunE = a.setup
	cmd.PersistentPostRunE = a.teardown

	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newCacheCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// skipConfigCheck marks commands that must run even when the config is
// broken (to show the version, or to write a fresh config).
const skipConfigCheck = "skip-config-check"

// setup loads configuration and starts logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		if cmd.Annotations[skipConfigCheck] == "" {
			return err
		}
		cfg = config.NewConfig()
	}
	a.cfg = cfg

	logger, cleanup, err := logging.Setup(cfg.LoggingConfig(a.verbose))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("config_loaded",
		slog.String("data_dir", cfg.Index.DataDir),
		slog.String("filetype", cfg.Scan.FileType),
		slog.String("version", version.Version))
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.loggingCleanup != nil {
		a.loggingCleanup()
		a.loggingCleanup = nil
	}
	return nil
}

// catalogPath returns <data_dir>/catalog.db.
func (a *app) catalogPath() string {
	return filepath.Join(a.cfg.Index.DataDir, catalog.DatabaseFile)
}

// snapshotPath returns <data_dir>/index.gob.
func (a *app) snapshotPath() string {
	return filepath.Join(a.cfg.Index.DataDir, index.SnapshotFile)
}
