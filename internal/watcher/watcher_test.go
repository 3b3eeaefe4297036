package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"create", OpCreate, "CREATE"},
		{"modify", OpModify, "MODIFY"},
		{"delete", OpDelete, "DELETE"},
		{"rename", OpRename, "RENAME"},
		{"unknown", Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestBatch_NeedsRebuild(t *testing.T) {
	modifyOnly := Batch{Events: []FileEvent{{Path: "/a", Operation: OpModify}}}
	withCreate := Batch{Events: []FileEvent{
		{Path: "/a", Operation: OpModify},
		{Path: "/b", Operation: OpCreate},
	}}

	assert.False(t, modifyOnly.NeedsRebuild())
	assert.True(t, withCreate.NeedsRebuild())
	assert.False(t, Batch{}.NeedsRebuild())
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{Extensions: []string{".PDF", "", "txt"}}.WithDefaults()

	assert.Equal(t, 500*time.Millisecond, got.DebounceWindow)
	assert.Equal(t, 16, got.EventBufferSize)
	assert.Equal(t, []string{"pdf", "txt"}, got.Extensions)

	custom := Options{DebounceWindow: time.Second, EventBufferSize: 3}.WithDefaults()
	assert.Equal(t, time.Second, custom.DebounceWindow)
	assert.Equal(t, 3, custom.EventBufferSize)
}

func TestWatcher_WantFile(t *testing.T) {
	w := &Watcher{opts: Options{Extensions: []string{"pdf"}}.WithDefaults()}

	assert.True(t, w.wantFile("report.PDF", OpCreate))
	assert.False(t, w.wantFile("notes.txt", OpCreate))
	assert.False(t, w.wantFile("Makefile", OpCreate))
	assert.True(t, w.wantFile("photos", OpDelete), "extensionless removals may be directories")

	all := &Watcher{opts: Options{}.WithDefaults()}
	assert.True(t, all.wantFile("anything.xyz", OpModify))
}

func TestWatcher_IgnoredName(t *testing.T) {
	w := &Watcher{opts: Options{ExcludeDirs: []string{"build"}}.WithDefaults()}

	assert.True(t, w.ignoredName(".git"))
	assert.True(t, w.ignoredName("node_modules"))
	assert.True(t, w.ignoredName("build"))
	assert.True(t, w.ignoredName(".cache"))
	assert.False(t, w.ignoredName("docs"))

	hidden := &Watcher{opts: Options{IncludeHidden: true}.WithDefaults()}
	assert.False(t, hidden.ignoredName(".cache"))
}

func startWatcher(t *testing.T, opts Options, roots ...string) *Watcher {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx, roots...))
	return w
}

func waitBatch(t *testing.T, w *Watcher, want string) Batch {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case b, ok := <-w.Events():
			require.True(t, ok, "events closed")
			for _, p := range b.Paths() {
				if p == want {
					return b
				}
			}
		case <-deadline:
			t.Fatalf("no batch containing %s", want)
			return Batch{}
		}
	}
}

func TestWatcher_ReportsMatchingFiles(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, Options{DebounceWindow: 50 * time.Millisecond, Extensions: []string{"pdf"}}, root)

	// When: a matching and a non-matching file are created
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	target := filepath.Join(root, "report.pdf")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	// Then: only the pdf is reported
	b := waitBatch(t, w, target)
	assert.NotContains(t, b.Paths(), filepath.Join(root, "notes.txt"))
	assert.True(t, b.NeedsRebuild())
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, Options{DebounceWindow: 50 * time.Millisecond}, root)

	// Given: a directory created after Start
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitBatch(t, w, sub)

	// When: a file appears inside it
	target := filepath.Join(sub, "late.pdf")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	// Then: it is reported
	waitBatch(t, w, target)
}

func TestWatcher_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".hidden"), 0o755))
	w := startWatcher(t, Options{}, root)

	assert.Equal(t, []string{root}, w.Roots())
	assert.NotContains(t, w.fs.WatchList(), filepath.Join(root, ".hidden"))
}

func TestWatcher_StartErrors(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)
	defer w.Stop()

	// Given: one valid root followed by a missing one
	good := t.TempDir()
	err = w.Start(context.Background(), good, filepath.Join(t.TempDir(), "missing"))

	// Then: Start fails and releases the fsnotify watcher it opened
	require.Error(t, err)
	assert.Empty(t, w.fs.WatchList())
	_, ok := <-w.Events()
	assert.False(t, ok)

	err = w.Start(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestWatcher_StopClosesChannels(t *testing.T) {
	w := startWatcher(t, Options{}, t.TempDir())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, t.TempDir()))
	cancel()

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
