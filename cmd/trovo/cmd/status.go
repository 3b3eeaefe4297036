package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/catalog"
	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/ui"
)

func newStatusCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved index and cached file lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.collectStatus(commandContext(cmd), true)
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

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

// collectStatus gathers the snapshot header and catalog stats. A missing
// snapshot or catalog is reported as empty, not as an error.
func (a *app) collectStatus(ctx context.Context, withSnapshot bool) (ui.StatusInfo, error) {
	info := ui.StatusInfo{DataDir: a.cfg.Index.DataDir}

	if withSnapshot {
		snap := &ui.SnapshotInfo{Path: a.snapshotPath()}
		header, err := index.ReadHeader(snap.Path)
		switch {
		case err == nil:
			snap.Exists = true
			snap.Documents = header.Documents
			snap.Terms = header.Terms
			snap.K = header.Fingerprint.K
			snap.FileType = header.Fingerprint.FileType
			snap.Roots = header.Fingerprint.Roots
			snap.SavedAt = header.CreatedAt
			if st, statErr := os.Stat(snap.Path); statErr == nil {
				snap.Size = st.Size()
			}
		case trovoerrors.HasCode(err, trovoerrors.ErrCodeFileNotFound):
		default:
			return info, err
		}
		info.Snapshot = snap
	}

	if _, err := os.Stat(a.catalogPath()); os.IsNotExist(err) {
		return info, nil
	}
	cat, err := catalog.Open(a.catalogPath())
	if err != nil {
		return info, err
	}
	defer func() { _ = cat.Close() }()

	stats, err := cat.Stats(ctx)
	if err != nil {
		return info, err
	}
	for _, s := range stats {
		info.Catalog = append(info.Catalog, ui.CatalogEntry{
			Root:      s.Root,
			Extension: s.Extension,
			Files:     s.Files,
			ScannedAt: s.ScannedAt,
		})
	}
	return info, nil
}
