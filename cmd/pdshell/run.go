package main

import (
	"github.com/aretw0/pdshell/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive console",
	Long: `Starts the console on Stdin/Stdout. On a terminal it offers line editing and
history recall; piped input is executed as a script without prompts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := globalOptions(cmd)
		opts.JSON, _ = cmd.Flags().GetBool("json")
		return cli.Run(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")

	// 'run' is the default when no command is provided
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = runCmd.RunE
}
