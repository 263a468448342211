package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the sim-engine binary.
var rootCmd = &cobra.Command{
	Use:   "sim-engine",
	Short: "Investment simulation ledger and performance analytics",
	Long: `sim-engine runs step-by-step investment simulations against a price
table, keeps the cash and holdings ledger, and scores finished runs with
performance, risk and behavioral analytics.

Examples:
  sim-engine serve
  sim-engine replay scenarios/buy-and-hold.yaml --format json`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
