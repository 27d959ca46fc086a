package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/pdshell/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
type IOHandler interface {
	// Input shows prompt and reads one line. io.EOF ends the session.
	Input(ctx context.Context, prompt string) (string, error)

	// Output presents the lines produced by one command.
	Output(ctx context.Context, lines []domain.Line) error
}

// Printer writes one console line.
type Printer func(w io.Writer, line domain.Line)

// PlainPrinter writes the text of a line, prefixing errors.
func PlainPrinter(w io.Writer, line domain.Line) {
	if line.Severity == domain.SeverityError {
		fmt.Fprintf(w, "error: %s\n", line.Text)
		return
	}
	fmt.Fprintln(w, line.Text)
}
