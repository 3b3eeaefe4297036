package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

// Item is one ranked result as the UI sees it.
type Item struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

// Name returns the item's base name.
func (it Item) Name() string {
	return filepath.Base(it.Path)
}

// RenderResults writes up to limit items (0 = all), each as a numbered
// base name followed by its full path and a blank line. Numbers start at
// 0 and are what Prompt accepts.
func RenderResults(w io.Writer, items []Item, limit int, styles Styles) error {
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	for i, it := range items {
		rank := styles.Rank.Render(fmt.Sprintf("%d.", i))
		if _, err := fmt.Fprintf(w, "%s %s\n", rank, styles.Header.Render(it.Name())); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", styles.Dim.Render(it.Path)); err != nil {
			return err
		}
	}
	return nil
}

// ResultsJSON is the machine-readable search output.
type ResultsJSON struct {
	Query   string `json:"query"`
	K       int    `json:"k"`
	Results []Item `json:"results"`
}

// RenderResultsJSON writes items as indented JSON.
func RenderResultsJSON(w io.Writer, query string, k int, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ResultsJSON{Query: query, K: k, Results: items})
}
