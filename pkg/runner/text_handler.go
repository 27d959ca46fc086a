package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/pdshell/pkg/domain"
)

// TextHandler implements line-based IO over any reader. Reads happen on a background
// pump so Input can honour context cancellation.
type TextHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Printer Printer

	// Quiet suppresses the prompt, e.g. when reading a script from a pipe.
	Quiet bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithPrinter configures how lines are written.
func WithPrinter(p Printer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Printer = p
	}
}

// WithQuiet disables the prompt.
func WithQuiet(quiet bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Quiet = quiet
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Printer: PlainPrinter,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Input reads one line, without its line terminator.
func (h *TextHandler) Input(ctx context.Context, prompt string) (string, error) {
	h.initPump()

	if !h.Quiet {
		fmt.Fprint(h.Writer, prompt)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

// Output prints every line through the Printer.
func (h *TextHandler) Output(ctx context.Context, lines []domain.Line) error {
	for _, l := range lines {
		h.Printer(h.Writer, l)
	}
	return nil
}
