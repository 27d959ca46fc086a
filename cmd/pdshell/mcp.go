package main

import (
	"github.com/aretw0/pdshell/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the console as an MCP Server.
This allows AI agents to send commands to the patch as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := globalOptions(cmd)
		opts.Port, _ = cmd.Flags().GetInt("port")
		transport, _ := cmd.Flags().GetString("transport")
		return cli.ServeMCP(opts, transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 0, "Port to listen on (only for SSE)")
}
