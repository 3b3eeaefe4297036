package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/scanner"
	"github.com/Aman-CERP/trovo/internal/search"
	"github.com/Aman-CERP/trovo/internal/ui"
	"github.com/Aman-CERP/trovo/internal/watcher"
)

func newRebuilder(t *testing.T, root string) (*Rebuilder, *index.Handle) {
	t.Helper()
	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: ui.NewPlainRenderer(ui.NewConfig(io.Discard)),
	})
	require.NoError(t, err)
	h := index.NewHandle(nil)
	engine, err := search.New(h)
	require.NoError(t, err)
	rb := NewRebuilder(runner, engine, index.RunnerConfig{
		Scan: scanner.ScanOptions{Roots: []string{root}, Extensions: []string{"pdf"}},
		K:    3,
	})
	return rb, h
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestRebuild_SwapsIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.pdf"))
	rb, h := newRebuilder(t, root)

	require.NoError(t, rb.Rebuild(context.Background()))
	require.NotNil(t, h.Load())
	assert.Equal(t, 1, h.Load().Len())

	writeFile(t, filepath.Join(root, "invoice.pdf"))
	require.NoError(t, rb.Rebuild(context.Background()))
	assert.Equal(t, 2, h.Load().Len())
	assert.Equal(t, uint64(2), h.Generation())
}

func TestRebuild_OneAtATime(t *testing.T) {
	rb, _ := newRebuilder(t, t.TempDir())

	// Given a rebuild in progress
	rb.mu.Lock()
	defer rb.mu.Unlock()

	// When another is requested
	err := rb.Rebuild(context.Background())

	// Then it is refused
	require.Error(t, err)
	assert.True(t, trovoerrors.HasCode(err, trovoerrors.ErrCodeLockHeld))
	assert.Equal(t, http.StatusConflict, statusFor(err))
}

func TestWatch_RebuildsOnMembershipChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.pdf"))
	rb, h := newRebuilder(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan watcher.Batch)
	done := make(chan struct{})
	go func() {
		rb.Watch(ctx, batches)
		close(done)
	}()

	// A modify-only batch does not rebuild
	batches <- watcher.Batch{Events: []watcher.FileEvent{{Path: filepath.Join(root, "report.pdf"), Operation: watcher.OpModify}}}
	// A create does
	batches <- watcher.Batch{Events: []watcher.FileEvent{{Path: filepath.Join(root, "report.pdf"), Operation: watcher.OpCreate}}}

	require.Eventually(t, func() bool { return h.Generation() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.Load().Len())

	close(batches)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after the channel closed")
	}
}

func TestRebuildEndpoint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.pdf"))
	rb, _ := newRebuilder(t, root)
	srv := New(rb.engine, nil, WithRebuilder(rb))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rebuild", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents":1`)
}
