package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// SnapshotInfo describes the saved index.
type SnapshotInfo struct {
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	K         int       `json:"k"`
	FileType  string    `json:"filetype,omitempty"`
	Roots     []string  `json:"roots,omitempty"`
	Size      int64     `json:"size"`
	SavedAt   time.Time `json:"saved_at"`
}

// CatalogEntry is one cached (root, extension) file list.
type CatalogEntry struct {
	Root      string    `json:"root"`
	Extension string    `json:"extension"`
	Files     int       `json:"files"`
	ScannedAt time.Time `json:"scanned_at"`
}

// StatusInfo contains what `trovo status` and `trovo cache list` report.
type StatusInfo struct {
	DataDir  string         `json:"data_dir"`
	Snapshot *SnapshotInfo  `json:"snapshot,omitempty"`
	Catalog  []CatalogEntry `json:"catalog"`
}

// StatusRenderer displays index and catalog status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n", r.styles.Header.Render("Data: "+info.DataDir))

	if s := info.Snapshot; s != nil {
		_, _ = fmt.Fprintln(r.out)
		if !s.Exists {
			_, _ = fmt.Fprintf(r.out, "  Index: %s\n", r.styles.Warning.Render("not built"))
		} else {
			_, _ = fmt.Fprintf(r.out, "  Index:     %s\n", r.styles.Success.Render(s.Path))
			_, _ = fmt.Fprintf(r.out, "  Documents: %d\n", s.Documents)
			_, _ = fmt.Fprintf(r.out, "  Terms:     %d\n", s.Terms)
			_, _ = fmt.Fprintf(r.out, "  k:         %d\n", s.K)
			if s.FileType != "" {
				_, _ = fmt.Fprintf(r.out, "  File type: %s\n", s.FileType)
			}
			for _, root := range s.Roots {
				_, _ = fmt.Fprintf(r.out, "  Root:      %s\n", root)
			}
			_, _ = fmt.Fprintf(r.out, "  Size:      %s\n", FormatBytes(s.Size))
			if !s.SavedAt.IsZero() {
				_, _ = fmt.Fprintf(r.out, "  Saved:     %s\n", formatTime(s.SavedAt))
			}
		}
	}

	_, _ = fmt.Fprintln(r.out)
	if len(info.Catalog) == 0 {
		_, _ = fmt.Fprintf(r.out, "  Catalog: %s\n", r.styles.Dim.Render("empty"))
		return nil
	}

	_, _ = fmt.Fprintln(r.out, "  Catalog:")
	root := ""
	for _, e := range info.Catalog {
		if e.Root != root {
			root = e.Root
			_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Label.Render(root))
		}
		_, _ = fmt.Fprintf(r.out, "      %-6s %6d files  %s\n",
			e.Extension, e.Files, r.styles.Dim.Render(formatTime(e.ScannedAt)))
	}
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	if info.Catalog == nil {
		info.Catalog = []CatalogEntry{}
	}
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
