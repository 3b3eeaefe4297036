package watcher

import (
	"slices"
	"strings"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// ChangesMembership reports whether op can add or remove a file from the
// corpus. A modify leaves a path's name, and so its index entry, intact.
func (op Operation) ChangesMembership() bool {
	return op != OpModify
}

// FileEvent is one change to one absolute path.
type FileEvent struct {
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Batch is a debounced set of events, at most one per path, sorted by path.
type Batch struct {
	Events []FileEvent
}

// Paths returns the batch's paths in order.
func (b Batch) Paths() []string {
	out := make([]string, len(b.Events))
	for i, e := range b.Events {
		out[i] = e.Path
	}
	return out
}

// NeedsRebuild reports whether any event can change the set of indexed
// paths. Contents are never indexed, so modifications alone do not count.
func (b Batch) NeedsRebuild() bool {
	return slices.ContainsFunc(b.Events, func(e FileEvent) bool {
		return e.Operation.ChangesMembership()
	})
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is how long a path must stay quiet before its event
	// is emitted. Default: 500ms
	DebounceWindow time.Duration

	// EventBufferSize is the capacity of the Events channel.
	// Default: 16
	EventBufferSize int

	// Extensions limits file events to these lowercase extensions. Empty
	// passes every file.
	Extensions []string

	// IncludeHidden watches dot-directories and reports dot-files.
	IncludeHidden bool

	// ExcludeDirs are directory names never watched, in addition to
	// .git, node_modules and __pycache__.
	ExcludeDirs []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		EventBufferSize: 16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	exts := make([]string, 0, len(o.Extensions))
	for _, e := range o.Extensions {
		e = strings.ToLower(strings.TrimPrefix(e, "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	o.Extensions = exts
	return o
}

var noiseDirs = []string{".git", "node_modules", "__pycache__"}
