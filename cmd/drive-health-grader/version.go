package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.ExactArgs(0),
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("drive-health-grader %s (commit %s, built %s)\n", version, commit, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
