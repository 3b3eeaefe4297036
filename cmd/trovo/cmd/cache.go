package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/catalog"
	"github.com/Aman-CERP/trovo/internal/ui"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached file lists",
		Long: `The catalog caches each directory's files per extension, so searches
with --update=false skip rescanning.`,
	}

	cmd.AddCommand(newCacheListCmd(a))
	cmd.AddCommand(newCacheClearCmd(a))
	return cmd
}

func newCacheListCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached file lists by directory and extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.collectStatus(commandContext(cmd), false)
			if err != nil {
				return err
			}
			r := ui.NewStatusRenderer(cmd.OutOrStdout(), a.cfg.Display.NoColor || ui.DetectNoColor())
			if jsonOutput {
				return r.RenderJSON(info)
			}
			return r.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [directory]",
		Short: "Forget cached file lists (all, or one directory's)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolve %s: %w", args[0], err)
				}
				root = abs
			}

			if _, err := os.Stat(a.catalogPath()); os.IsNotExist(err) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache is already empty")
				return nil
			}
			cat, err := catalog.Open(a.catalogPath())
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			n, err := cat.Clear(commandContext(cmd), root)
			if err != nil {
				return err
			}
			scope := "all directories"
			if root != "" {
				scope = root
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached file lists (%s)\n", n, scope)
			return nil
		},
	}
	return cmd
}
