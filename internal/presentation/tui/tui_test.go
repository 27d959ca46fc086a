package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.NotContains(t, out, "\x1b[", "a buffer is not a colour terminal")
}

func TestNewPrinter(t *testing.T) {
	t.Run("Ascii", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(termenv.Ascii)
		p(&buf, domain.Info("tgl_1"))
		p(&buf, domain.Error("No canvas open"))
		assert.Equal(t, "tgl_1\nNo canvas open\n", buf.String())
	})

	t.Run("ANSI", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(termenv.ANSI)(&buf, domain.Error("bad"))
		assert.Contains(t, buf.String(), "\x1b[")
		assert.Contains(t, buf.String(), "bad")
	})
}

func TestHelpHandler(t *testing.T) {
	lines := HelpHandler(NewRenderer("notty"))(context.Background())
	require.NotEmpty(t, lines)

	var text strings.Builder
	for _, l := range lines {
		assert.Equal(t, domain.SeverityInfo, l.Severity)
		text.WriteString(l.Text)
	}
	assert.Contains(t, text.String(), "Command input")
}

func TestHelpHandler_RenderFailureFallsBack(t *testing.T) {
	failing := func(string) (string, error) { return "", assert.AnError }
	lines := HelpHandler(failing)(context.Background())
	require.NotEmpty(t, lines)
	assert.Equal(t, "Command input lets you send commands to objects, to pd or to the canvas.", lines[0].Text)
}
