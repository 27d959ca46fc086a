package tui

import (
	"context"
	"strings"

	"github.com/aretw0/pdshell/pkg/dispatch"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// An empty style detects a light or dark background.
func NewRenderer(style string) func(string) (string, error) {
	opt := glamour.WithAutoStyle()
	if style != "" {
		opt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(80))
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// HelpHandler renders the manual shown by "?" and "help". On a render failure
// it falls back to the raw markdown.
func HelpHandler(render func(string) (string, error)) dispatch.HelpHandler {
	return func(context.Context) []domain.Line {
		text, err := render(dispatch.Documentation)
		if err != nil {
			text = dispatch.Documentation
		}

		text = strings.Trim(text, "\n")
		var lines []domain.Line
		for _, l := range strings.Split(text, "\n") {
			lines = append(lines, domain.Info(l))
		}
		return lines
	}
}
