package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/trovo/internal/catalog"
	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/metrics"
	"github.com/Aman-CERP/trovo/internal/scanner"
	"github.com/Aman-CERP/trovo/internal/ui"
)

// MockRenderer implements ui.Renderer for testing.
type MockRenderer struct {
	StartCalled     bool
	StopCalled      bool
	CompleteCalled  bool
	ProgressEvents  []ui.ProgressEvent
	ErrorEvents     []ui.ErrorEvent
	CompletionStats ui.CompletionStats
}

func (m *MockRenderer) Start(ctx context.Context) error {
	m.StartCalled = true
	return nil
}

func (m *MockRenderer) UpdateProgress(event ui.ProgressEvent) {
	m.ProgressEvents = append(m.ProgressEvents, event)
}

func (m *MockRenderer) AddError(event ui.ErrorEvent) {
	m.ErrorEvents = append(m.ErrorEvents, event)
}

func (m *MockRenderer) Complete(stats ui.CompletionStats) {
	m.CompleteCalled = true
	m.CompletionStats = stats
}

func (m *MockRenderer) Stop() error {
	m.StopCalled = true
	return nil
}

func (m *MockRenderer) stages() []ui.Stage {
	var out []ui.Stage
	for _, e := range m.ProgressEvents {
		if len(out) == 0 || out[len(out)-1] != e.Stage {
			out = append(out, e.Stage)
		}
	}
	return out
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func TestNewRunner_RequiresRenderer(t *testing.T) {
	_, err := NewRunner(RunnerDependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer is required")
}

func TestRunner_ScanBuildSave(t *testing.T) {
	// Given a tree with two pdfs and a txt
	root := t.TempDir()
	writeTree(t, root, "docs/report.pdf", "docs/invoice.pdf", "notes.txt")
	snap := filepath.Join(t.TempDir(), SnapshotFile)

	renderer := &MockRenderer{}
	runner, err := NewRunner(RunnerDependencies{Renderer: renderer})
	require.NoError(t, err)

	// When building with k=3 for pdf files
	res, err := runner.Run(context.Background(), RunnerConfig{
		Scan:         scanner.ScanOptions{Roots: []string{root}, Extensions: []string{"pdf"}},
		FileType:     "documents",
		K:            3,
		SnapshotPath: snap,
	})

	// Then only the pdfs are indexed and the snapshot round-trips
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.Index.Len())
	assert.Equal(t, 1, res.Collect.Rescanned)
	assert.Equal(t, []ui.Stage{ui.StageScanning, ui.StageIndexing, ui.StageSaving}, renderer.stages())
	assert.True(t, renderer.CompleteCalled)
	assert.Equal(t, 2, renderer.CompletionStats.Files)
	assert.Equal(t, 3, renderer.CompletionStats.K)
	assert.False(t, renderer.CompletionStats.Cached)

	loaded, fp, err := Load(snap)
	require.NoError(t, err)
	assert.True(t, fp.Matches(res.Fingerprint))
	assert.Equal(t, Paths(res.Index.Search("report")), Paths(loaded.Search("report")))
	assert.Equal(t, filepath.Join(root, "docs", "report.pdf"), Paths(loaded.Search("report"))[0])
}

func TestRunner_PathsSkipScanning(t *testing.T) {
	renderer := &MockRenderer{}
	runner, err := NewRunner(RunnerDependencies{Renderer: renderer})
	require.NoError(t, err)

	res, err := runner.Run(context.Background(), RunnerConfig{
		Paths: []string{"/a/report.pdf", "/b/notes.txt"},
		K:     2,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, "/a/report.pdf", res.Index.DocumentID(0))
	assert.Zero(t, res.Collect.Rescanned)
	assert.Equal(t, []ui.Stage{ui.StageScanning, ui.StageIndexing}, renderer.stages())
}

func TestRunner_UsesCatalog(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTree(t, root, "report.pdf")
	cat, err := catalog.Open(filepath.Join(t.TempDir(), catalog.DatabaseFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	runner, err := NewRunner(RunnerDependencies{Renderer: &MockRenderer{}, Catalog: cat})
	require.NoError(t, err)
	cfg := RunnerConfig{
		Scan: scanner.ScanOptions{Roots: []string{root}, Extensions: []string{"pdf"}},
		K:    3,
	}

	// Given a first run that scans and caches
	first, err := runner.Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Collect.Rescanned)

	// When a file appears and the next run does not ask for an update
	writeTree(t, root, "second.pdf")
	renderer := &MockRenderer{}
	runner.renderer = renderer
	second, err := runner.Run(ctx, cfg)

	// Then the cached list is served and the new file is not seen
	require.NoError(t, err)
	assert.Equal(t, 1, second.Collect.Cached)
	assert.Equal(t, 1, second.Files)
	assert.True(t, renderer.CompletionStats.Cached)

	// When update is requested the new file shows up
	cfg.Update = true
	third, err := runner.Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Files)
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  RunnerConfig
		code string
	}{
		{
			name: "zero k",
			cfg:  RunnerConfig{Paths: []string{"/a"}, K: 0},
			code: trovoerrors.ErrCodeInvalidInput,
		},
		{
			name: "missing root",
			cfg: RunnerConfig{
				Scan: scanner.ScanOptions{Roots: []string{"/does/not/exist"}, Extensions: []string{"pdf"}},
				K:    3,
			},
			code: trovoerrors.ErrCodeFileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &MockRenderer{}
			runner, err := NewRunner(RunnerDependencies{Renderer: renderer})
			require.NoError(t, err)

			_, err = runner.Run(context.Background(), tt.cfg)

			require.Error(t, err)
			assert.True(t, trovoerrors.HasCode(err, tt.code), "got %v", err)
			assert.False(t, renderer.CompleteCalled)
			assert.Len(t, renderer.ErrorEvents, 1)
		})
	}
}

func TestRunner_RecordsMetrics(t *testing.T) {
	m := metrics.New(nil)
	runner, err := NewRunner(RunnerDependencies{Renderer: &MockRenderer{}, Metrics: m})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), RunnerConfig{Paths: []string{"/a/b.txt"}, K: 1})
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), RunnerConfig{Paths: []string{"/a/b.txt"}, K: -1})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("failure")))
}

func TestRunner_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, err := NewRunner(RunnerDependencies{Renderer: &MockRenderer{}})
	require.NoError(t, err)
	_, err = runner.Run(ctx, RunnerConfig{
		Scan: scanner.ScanOptions{Roots: []string{root}, Extensions: []string{"pdf"}},
		K:    3,
	})
	require.Error(t, err)
}
