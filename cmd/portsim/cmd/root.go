package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portsim",
	Short: "A portfolio backtest simulator and parameter-sweep runner",
	Long: `Portsim simulates sequential buy/sell decisions over a universe of
symbols under a fixed capital and position-count budget, and
reconstructs a reconciled cash/equity history from which performance
metrics are computed.

It provides tools for:
  - Simulating signal-driven portfolios over end-of-day price data
  - Grid-search sweeps over signal and preference parameters
  - Ranking parameter combinations by performance metric
  - Journaling runs, trades, and equity curves to SQLite or CSV`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}
