package main

import (
	"github.com/aretw0/pdshell/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the console as a JSON API over HTTP, one shell per session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := globalOptions(cmd)
		opts.Port, _ = cmd.Flags().GetInt("port")
		return cli.Serve(opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config, 8080)")
}
