package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/internal/presentation/tui"
	"github.com/aretw0/pdshell/pkg/runner"
	"github.com/muesli/termenv"
)

// DefaultSessionID names the session of the interactive REPL.
const DefaultSessionID = "default"

// Run handles the 'run' command: an interactive console on Stdin/Stdout.
func Run(opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	env, err := NewEnvironment(cfg, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	// The runner owns SIGINT here: it discards a pending block instead of exiting.
	ctx := context.Background()

	interactive := !opts.JSON && runner.IsTerminal(os.Stdin)
	if !interactive {
		env.HelpStyle = "notty"
	}

	sh, err := env.NewShell(DefaultSessionID)
	if err != nil {
		return err
	}
	defer sh.Close()

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
	case interactive:
		tui.PrintBanner(os.Stdout, pdshell.Version)
		th, err := runner.NewTermHandler(os.Stdin, os.Stdout, sh.History())
		if err != nil {
			return err
		}
		defer th.Close()
		th.Printer = tui.NewPrinter(termenv.NewOutput(os.Stdout).Profile)
		handler = th
	default:
		// Piped input: a script, no prompts
		handler = runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithQuiet(true))
	}

	return RunSession(ctx, env, sh, handler)
}

// RunSession drives sh from handler, loading the persisted history first and
// saving it on the way out.
func RunSession(ctx context.Context, env *Environment, sh *pdshell.Shell, handler runner.IOHandler) error {
	if err := sh.LoadHistory(ctx); err != nil {
		env.Logger.Warn("History not loaded", "err", err)
	}

	r := runner.NewRunner(
		runner.WithLogger(env.Logger),
		runner.WithInputHandler(handler),
		runner.WithSignals(true),
	)
	runErr := handleExecutionError(r.Run(ctx, sh))

	// The run context may already be cancelled here.
	if err := sh.SaveHistory(context.WithoutCancel(ctx)); err != nil {
		env.Logger.Error("History not saved", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// PrintHistory writes the persisted history, oldest first, numbered by recall index.
func PrintHistory(ctx context.Context, env *Environment, w io.Writer) error {
	entries, err := env.Store.Load(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printSystemMessage(w, "History is empty.")
		return nil
	}
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "%4d  %s\n", i, entries[i])
	}
	return nil
}

// ClearHistory empties the persisted history.
func ClearHistory(ctx context.Context, env *Environment) error {
	return env.Store.Save(ctx, []string{})
}
