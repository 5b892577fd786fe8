package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagrid"
	"github.com/aretw0/tagrid/internal/printer"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tagrid",
	Run: func(cmd *cobra.Command, args []string) {
		printer.Info("tagrid version %s\n", strings.TrimSpace(tagrid.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
