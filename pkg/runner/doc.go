/*
Package runner implements the interactive loop of the shell.

It reads lines from an IOHandler, accumulates them while a '{' is still open
(the prompt switches to "lua >"), submits complete commands and prints the
resulting console lines.

# Key Components

  - Runner: The read-submit-print loop.
  - IOHandler: Decouples how lines are read and printed.
  - TextHandler: Plain line-based IO for pipes and scripts.
  - TermHandler: A raw-mode line editor for interactive terminals with history recall.
  - JSONHandler: JSON-Lines IO for headless integrations.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, shell); err != nil {
		log.Fatal(err)
	}
*/
package runner
