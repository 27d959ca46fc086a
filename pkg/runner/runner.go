package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/domain"
)

// ContinuationPrompt is shown while a multi-line block is being entered.
const ContinuationPrompt = "lua > "

// Shell is what the runner drives.
type Shell interface {
	// Submit runs text, or reports complete=false while a '{' is still open.
	Submit(ctx context.Context, text string) (lines []domain.Line, complete bool)

	// Target returns the current prompt label.
	Target() string
}

// Runner reads commands from its IOHandler and submits them to a Shell.
type Runner struct {
	Handler IOHandler
	Logger  *slog.Logger
	Signals bool
	Banner  string
}

// NewRunner creates a runner. Without an IOHandler it uses Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// IsExit reports whether text ends the session.
func IsExit(text string) bool {
	switch strings.TrimSpace(text) {
	case "exit", "quit":
		return true
	}
	return false
}

// Run loops until EOF, "exit"/"quit" or cancellation of ctx.
//
// Lines are accumulated while the text has an unmatched '{'. An interrupt or EOF
// during such a block discards it; a second one ends the session.
func (r *Runner) Run(ctx context.Context, sh Shell) error {
	var signals *SignalManager
	if r.Signals {
		signals = NewSignalManager(ctx)
		defer signals.Stop()
	}

	if r.Banner != "" {
		if err := r.Handler.Output(ctx, []domain.Line{domain.Info(r.Banner)}); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	var pending []string
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		inputCtx := ctx
		if signals != nil {
			inputCtx = signals.Context()
		}

		prompt := sh.Target() + " "
		if len(pending) > 0 {
			prompt = ContinuationPrompt
		}

		text, err := r.Handler.Input(inputCtx, prompt)
		if err != nil {
			interrupted := signals != nil && signals.Interrupted()
			if !interrupted && !errors.Is(err, io.EOF) {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("input error: %w", err)
			}
			if interrupted {
				signals.Reset()
			}
			if len(pending) == 0 {
				return nil
			}

			r.Logger.Debug("Pending block discarded", "lines", len(pending))
			pending = nil
			if err := r.Handler.Output(ctx, []domain.Line{domain.Error("Incomplete input discarded")}); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			if !interrupted {
				// EOF on a non-interactive stream is final
				return nil
			}
			continue
		}

		if len(pending) == 0 {
			if strings.TrimSpace(text) == "" {
				continue
			}
			if IsExit(text) {
				return nil
			}
		}

		// The size limit applies to the block as a whole; a rejected line drops the block.
		clean, err := SanitizeInput(text)
		if err == nil {
			pending = append(pending, clean)
			err = CheckSize(strings.Join(pending, "\n"))
		}
		if err != nil {
			r.Logger.Warn("Input rejected", "err", err, "size", len(text), "lines", len(pending))
			pending = nil
			if err := r.Handler.Output(ctx, []domain.Line{domain.Error(err.Error())}); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}

		lines, complete := sh.Submit(ctx, strings.Join(pending, "\n"))
		if !complete {
			continue
		}
		pending = nil

		if err := r.Handler.Output(ctx, lines); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}
