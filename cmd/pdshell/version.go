package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pdshell"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pdshell",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pdshell version %s\n", strings.TrimSpace(pdshell.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
