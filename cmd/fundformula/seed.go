package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fundview/formula/fund"
)

var seedDB string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo fund with a small transaction history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fund.Open(seedDB)
		if err != nil {
			return fail(err)
		}
		id, err := fund.Seed(store)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("seeded fund %d in %s\n", id, seedDB)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDB, "db", "fund.db", "fund database path")
	rootCmd.AddCommand(seedCmd)
}
