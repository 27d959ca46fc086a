package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/runner"
	"github.com/muesli/termenv"
)

// NewPrinter returns a runner.Printer that paints error lines red under profile.
func NewPrinter(profile termenv.Profile) runner.Printer {
	red := profile.Color("#f87171")
	return func(w io.Writer, line domain.Line) {
		if line.Severity == domain.SeverityError {
			fmt.Fprintln(w, profile.String(line.Text).Foreground(red))
			return
		}
		fmt.Fprintln(w, line.Text)
	}
}
