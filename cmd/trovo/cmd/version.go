package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/pkg/version"
)

// versionJSON is version.BuildInfo plus the snapshot format this binary
// reads and writes.
type versionJSON struct {
	version.BuildInfo
	SnapshotVersion int `json:"snapshot_version"`
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool
	var shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: fmt.Sprintf(`Print the trovo version, git commit, build date and Go version, and the
index snapshot format (currently v%d). Snapshots written with another
format are rejected as corrupt; run 'trovo index' after upgrading.`, index.SnapshotVersion),
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigCheck: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch {
			case shortOutput:
				_, err := fmt.Fprintln(out, version.Short())
				return err
			case jsonOutput:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(versionJSON{BuildInfo: version.GetInfo(), SnapshotVersion: index.SnapshotVersion})
			}
			_, err := fmt.Fprintf(out, "%s\nsnapshot format: v%d\n", version.String(), index.SnapshotVersion)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
