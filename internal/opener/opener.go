// Package opener hands a file to the desktop's default application.
package opener

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

// Opener runs an external command with the path as its last argument.
type Opener struct {
	// Command is the program and leading arguments, e.g. ["xdg-open"].
	Command []string
}

// New returns an opener for command, a space-separated program line.
// An empty command selects the platform default.
func New(command string) *Opener {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = DefaultCommand(runtime.GOOS)
	}
	return &Opener{Command: fields}
}

// DefaultCommand returns the platform opener for goos.
func DefaultCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Open launches the opener on path and waits for it to exit. Desktop
// openers return as soon as the application is started.
func (o *Opener) Open(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeFileNotFound,
			fmt.Sprintf("cannot open %s", path), err).
			WithSuggestion("The file may have moved since it was indexed; rerun with --update")
	}

	args := append(append([]string{}, o.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, o.Command[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		te := trovoerrors.New(trovoerrors.ErrCodeOpenFailed,
			fmt.Sprintf("%s failed to open %s", o.Command[0], path), err).
			WithSuggestion("Set display.opener in your config to a working command")
		if msg := strings.TrimSpace(string(out)); msg != "" {
			te = te.WithDetail("output", msg)
		}
		return te
	}

	slog.Debug("file_opened", slog.String("path", path), slog.String("opener", o.Command[0]))
	return nil
}
