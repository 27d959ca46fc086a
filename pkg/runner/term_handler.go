package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a TermHandler is requested for a non-terminal input.
var ErrNotTerminal = errors.New("input is not a terminal")

// History is the recall source of the line editor.
// Index 0 is the most recent entry.
type History interface {
	Len() int
	At(index int) string
}

// TermHandler is an interactive line editor running the terminal in raw mode.
// Up and down recall entries from the shell history.
type TermHandler struct {
	in      *os.File
	state   *term.State
	term    *term.Terminal
	Printer Printer
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewTermHandler switches in to raw mode. Close restores it.
func NewTermHandler(in *os.File, out io.Writer, hist History) (*TermHandler, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, "> ")
	if w, h, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(w, h)
	}
	if hist != nil {
		t.History = recallHistory{hist}
	}

	return &TermHandler{
		in:      in,
		state:   state,
		term:    t,
		Printer: PlainPrinter,
	}, nil
}

// Input reads one edited line. Ctrl+C and Ctrl+D on an empty line yield io.EOF.
func (h *TermHandler) Input(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.term.SetPrompt(prompt)
	line, err := h.term.ReadLine()
	if errors.Is(err, term.ErrPasteIndicator) {
		err = nil
	}
	return line, err
}

// Output prints the lines; the terminal translates newlines for raw mode.
func (h *TermHandler) Output(ctx context.Context, lines []domain.Line) error {
	for _, l := range lines {
		var b strings.Builder
		h.Printer(&b, l)
		if _, err := h.term.Write([]byte(b.String())); err != nil {
			return err
		}
	}
	return nil
}

// Close restores the terminal state.
func (h *TermHandler) Close() error {
	return term.Restore(int(h.in.Fd()), h.state)
}

// recallHistory exposes the shell history to the line editor. The shell records
// commands itself, so lines read by the editor are not added.
type recallHistory struct {
	h History
}

func (r recallHistory) Add(string) {}

func (r recallHistory) Len() int {
	return r.h.Len()
}

func (r recallHistory) At(idx int) string {
	return r.h.At(idx)
}
