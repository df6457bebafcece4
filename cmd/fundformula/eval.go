package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fundview/formula"
	"github.com/fundview/formula/fund"
)

var (
	evalVars   []string
	evalFundID uint
	evalDB     string
)

var evalCmd = &cobra.Command{
	Use:   "eval [formula]",
	Short: "Evaluate a formula",
	Long: `Evaluate a formula against variable bindings and print the result.

Bindings come from --var flags, from a stored fund's computed metrics
(--fund with --db), or both; --var wins on conflict.

Examples:
  fundformula eval "dpi + rvpi" --var dpi=0.8 --var rvpi=0.7
  fundformula eval "tvpi * pic" --db fund.db --fund 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars := make(map[string]float64)
		if evalFundID != 0 {
			store, err := fund.Open(evalDB)
			if err != nil {
				return fail(err)
			}
			m, err := fund.NewCalculator(store).Values(evalFundID)
			if err != nil {
				return fail(err)
			}
			for k, v := range m {
				vars[k] = v
			}
		}
		for _, decl := range evalVars {
			name, val, ok := strings.Cut(decl, "=")
			if !ok {
				return fail(fmt.Errorf("variable definitions must be name=value, not %q", decl))
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return fail(fmt.Errorf("value of %s: %w", name, err))
			}
			vars[strings.TrimSpace(name)] = v
		}
		r, err := formula.Eval(args[0], vars)
		if err != nil {
			return fail(err)
		}
		if math.IsNaN(r) {
			color.Yellow("undefined")
			return nil
		}
		fmt.Printf("%g\n", r)
		return nil
	},
}

// fail prints err in red and hands it back for the exit status.
func fail(err error) error {
	color.Red("%v", err)
	return err
}

func init() {
	evalCmd.Flags().StringArrayVar(&evalVars, "var", nil, "name=value variable binding (repeatable)")
	evalCmd.Flags().UintVar(&evalFundID, "fund", 0, "evaluate against this fund's stored metrics")
	evalCmd.Flags().StringVar(&evalDB, "db", "fund.db", "fund database path")
	rootCmd.AddCommand(evalCmd)
}
