// Package scanner walks directory trees and collects files whose
// extension belongs to a selected set, grouped by extension.
package scanner

// ScanOptions configures a scan.
type ScanOptions struct {
	// Roots are the directories to walk. Each must exist.
	Roots []string

	// Extensions selects files by lowercase extension without the dot.
	// Empty selects nothing.
	Extensions []string

	// ExcludePatterns adds directory patterns to the defaults, in the
	// forms "**/name/**", "prefix/**" or an exact relative path.
	ExcludePatterns []string

	// FollowSymlinks includes symlinked files (default: false).
	FollowSymlinks bool

	// IncludeHidden descends into dot-directories and keeps dot-files.
	IncludeHidden bool

	// Workers bounds how many roots are walked at once (0 = NumCPU).
	Workers int

	// ProgressFunc is called after each root finishes.
	ProgressFunc func(root string, found int)
}

// RootResult is what one root produced.
type RootResult struct {
	Root string
	// ByExtension holds sorted absolute paths per extension. Every
	// requested extension has an entry, possibly empty.
	ByExtension map[string][]string
	// Skipped counts entries that could not be read.
	Skipped int
}

// Result is the outcome of a scan, in the order roots were given.
type Result struct {
	Roots      []RootResult
	Extensions []string
}

// Paths flattens the result: roots in order, then extensions in the
// requested order, then paths sorted.
func (r *Result) Paths() []string {
	var out []string
	for _, rr := range r.Roots {
		for _, ext := range r.Extensions {
			out = append(out, rr.ByExtension[ext]...)
		}
	}
	return out
}

// Count returns the number of files found.
func (r *Result) Count() int {
	n := 0
	for _, rr := range r.Roots {
		for _, paths := range rr.ByExtension {
			n += len(paths)
		}
	}
	return n
}

// defaultExcludeDirs are never descended into.
var defaultExcludeDirs = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/__pycache__/**",
}
