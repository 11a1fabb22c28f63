// Package cli implements the chaosdrive command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "chaosdrive",
	Short:   "A chaos-aware synthetic load driver",
	Version: version,
	Long: `Chaosdrive drives concurrent virtual users against a target HTTP
endpoint for a fixed duration, optionally attaching a chaos directive
(latency, error-rate, cpu-load) as a query parameter so the target can
inject faults while under load.

Configuration comes from environment variables (USERS, DUR, URL, CHAOS,
LAT, ERR, CPU), an optional YAML profile, or flags. Flags win over the
environment, the environment wins over the profile.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(serveCmd)
}
