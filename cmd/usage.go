package cmd

import (
	"fmt"

	"sitemeter/internal/config"
	"sitemeter/internal/format"
	"sitemeter/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagUsageUser string
	flagUsageDays int
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show visit summary and daily breakdown",
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().StringVarP(&flagUsageUser, "user", "u", "", "User id (defaults to the configured user)")
	usageCmd.Flags().IntVarP(&flagUsageDays, "days", "n", 30, "Time window in days")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(_ *cobra.Command, _ []string) error {
	return withStore(func(cfg config.Config, s *store.Store) error {
		userID := flagUsageUser
		if userID == "" {
			userID = cfg.UserID
		}

		report, err := s.Usage(userID, flagUsageDays)
		if err != nil {
			return err
		}

		fmt.Printf("\n  Usage for %s  Last %dd\n\n", report.UserID, report.Days)
		fmt.Printf("  Visits:       %s\n", format.Number(int64(report.Summary.TotalVisits)))
		fmt.Printf("  Time on site: %s\n", format.Duration(report.Summary.TotalDurationSecs))
		fmt.Printf("  Cost:         %s\n", format.Cost(report.Summary.TotalCost))

		if len(report.Daily) == 0 {
			fmt.Println("\n  No visits recorded in this window.")
			return nil
		}

		fmt.Printf("\n  %-12s %8s %10s %10s\n", "Date", "Visits", "Duration", "Cost")
		for _, d := range report.Daily {
			fmt.Printf("  %-12s %8s %10s %10s\n",
				d.Date.Format("2006-01-02"),
				format.Number(int64(d.Visits)),
				format.Duration(d.DurationSecs),
				format.Cost(d.Cost),
			)
		}
		return nil
	})
}
