package cmd

import (
	"fmt"
	"os"

	"sitemeter/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if _, err := os.Stat(config.Path()); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults and environment (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Identity]")
	fmt.Printf("    User id:     %s\n", cfg.UserID)
	fmt.Printf("    Name:        %s\n", cfg.UserName)
	fmt.Printf("    Email:       %s\n", cfg.UserEmail)
	fmt.Printf("    Description: %s\n", cfg.Description)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Port:     %d\n", cfg.Port)
	fmt.Printf("    Data dir: %s\n", cfg.DataDir)
	fmt.Printf("    Site dir: %s\n", cfg.SiteDir)
	return nil
}
