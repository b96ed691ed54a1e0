package cmd

import (
	"fmt"
	"strconv"

	"sitemeter/internal/config"
	"sitemeter/internal/store"

	"github.com/spf13/cobra"
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Show the per-second billing rate",
	RunE:  runRateShow,
}

var rateSetCmd = &cobra.Command{
	Use:   "set <rate>",
	Short: "Set the per-second billing rate",
	Args:  cobra.ExactArgs(1),
	RunE:  runRateSet,
}

func init() {
	rateCmd.AddCommand(rateSetCmd)
	rootCmd.AddCommand(rateCmd)
}

func runRateShow(_ *cobra.Command, _ []string) error {
	return withStore(func(_ config.Config, s *store.Store) error {
		rate, err := s.BillingRate()
		if err != nil {
			return err
		}
		fmt.Printf("  Base cost per second: $%.6f\n", rate)
		return nil
	})
}

func runRateSet(_ *cobra.Command, args []string) error {
	rate, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("parsing rate %q: %w", args[0], err)
	}

	return withStore(func(_ config.Config, s *store.Store) error {
		if err := s.SetBillingRate(rate); err != nil {
			return err
		}
		fmt.Printf("  Base cost per second set to $%.6f\n", rate)
		return nil
	})
}
