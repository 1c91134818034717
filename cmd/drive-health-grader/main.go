package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// exitCode is set by the scan command from the batch outcome: 0 all devices
// pass, 2 at least one failure, 3 at least one error. Batch-level failures
// (bad configuration, no devices, unwritable report) exit 1 through the
// returned error instead.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "drive-health-grader",
	Short: "Grade the health of locally attached storage devices",
	Long: "drive-health-grader collects SMART and NVMe diagnostics from attached\n" +
		"SATA, SAS and NVMe devices, normalizes them into a common health record\n" +
		"and grades each device against an ordered rule table.",
	Args:          cobra.ExactArgs(0),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
