package main

import (
	"fmt"

	"github.com/cwbudde/clfib/internal/kernel"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "clfib version %s (kernel %s@%s)\n", version, kernel.Fib().Name, kernel.FibVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
