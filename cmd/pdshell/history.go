package main

import (
	"context"
	"os"

	"github.com/aretw0/pdshell/internal/cli"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the persisted command history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the history, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnvironment(cmd, func(env *cli.Environment) error {
			return cli.PrintHistory(context.Background(), env, os.Stdout)
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnvironment(cmd, func(env *cli.Environment) error {
			return cli.ClearHistory(context.Background(), env)
		})
	},
}

func withEnvironment(cmd *cobra.Command, fn func(*cli.Environment) error) error {
	cfg, err := cli.LoadConfig(globalOptions(cmd))
	if err != nil {
		return err
	}
	env, err := cli.NewEnvironment(cfg, nil)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
