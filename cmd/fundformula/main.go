// Command fundformula evaluates custom-metric formulas over fund performance
// data and serves the fund analytics API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fundformula",
	Short:         "Fund metric formulas and the fund analytics API",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
