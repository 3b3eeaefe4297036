package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points HOME, XDG dirs and TROVO_* at a fresh temp tree.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("NO_COLOR", "1")
	for _, v := range []string{
		"TROVO_PATHS", "TROVO_FILETYPE", "TROVO_EXCLUDE", "TROVO_USE_CACHE", "TROVO_K",
		"TROVO_DATA_DIR", "TROVO_RESULTS", "TROVO_OPENER", "TROVO_SERVER_ADDR", "TROVO_LOG_LEVEL",
	} {
		t.Setenv(v, "")
	}
	return home
}

// execute runs the root command with args and stdin.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// tree creates empty files under a new temp root.
func tree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	return root
}
