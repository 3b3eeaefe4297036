package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/trovo/internal/ui"
)

func TestWriter_Messages(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status with label", func(w *Writer) { w.Status("Location:", "/tmp/x") }, "Location: /tmp/x\n"},
		{"status without label", func(w *Writer) { w.Status("", "indented") }, "   indented\n"},
		{"statusf", func(w *Writer) { w.Statusf("Backup:", "%s.%d", "cfg", 2) }, "Backup: cfg.2\n"},
		{"success", func(w *Writer) { w.Successf("Cleared %d lists", 3) }, "✓ Cleared 3 lists\n"},
		{"warning", func(w *Writer) { w.Warningf("%s exists", "config") }, "! config exists\n"},
		{"hint", func(w *Writer) { w.Hint("Use --force") }, "  Use --force\n"},
		{"newline", func(w *Writer) { w.Newline() }, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a writer on a buffer with plain styles
			buf := &bytes.Buffer{}
			w := NewWithStyles(buf, ui.NoColorStyles())

			// When: writing the message
			tt.write(w)

			// Then: the output is exact
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Code_IndentsEveryLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithStyles(buf, ui.NoColorStyles())

	w.Code("scan:\n  filetype: any\n")

	assert.Equal(t, "\n  scan:\n    filetype: any\n\n", buf.String())
}

func TestNew_NoColorForBuffers(t *testing.T) {
	// Given: a non-terminal writer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a success message
	w.Success("done")

	// Then: no ANSI escapes are emitted
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, "✓ done\n", buf.String())
}
