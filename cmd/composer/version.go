package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/composer/internal/version"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of composer",
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "composer version %s\n", info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
