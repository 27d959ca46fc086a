package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pdshell/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdshell",
	Short: "pdshell is the command console of a Pure Data host",
	Long: `pdshell sends commands to the objects of a patch, to pd or to the canvas,
with {expressions} and multi-line blocks evaluated by an embedded Lua interpreter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions reads the persistent flags shared by every subcommand.
func globalOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	patch, _ := cmd.Flags().GetString("patch")
	redisURL, _ := cmd.Flags().GetString("redis-url")
	return cli.Options{
		ConfigPath: configPath,
		Debug:      debug,
		Patch:      patch,
		RedisURL:   redisURL,
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: $PDSHELL_CONFIG or ./pdshell.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on Stderr")
	rootCmd.PersistentFlags().String("patch", "", "YAML patch fixture to open on the in-memory host")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for shared history and session locks")
}
