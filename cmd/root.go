// Package cmd implements the sitemeter CLI commands.
package cmd

import (
	"os"

	"sitemeter/internal/config"
	"sitemeter/internal/store"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sitemeter",
	Short: "Metered static website host",
	Long:  "Serve a replaceable static website, display owner information, and meter per-visit usage cost.",
	RunE:  runServe,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withStore is the shared open-use-close path for commands that touch
// the billing database.
func withStore(fn func(cfg config.Config, s *store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.DBPath(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return fn(cfg, s)
}
