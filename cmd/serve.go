package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"sitemeter/internal/config"
	"sitemeter/internal/publisher"
	"sitemeter/internal/store"
	"sitemeter/internal/web"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	pub := publisher.New(cfg.SiteDir, nil)
	if err := pub.Init(); err != nil {
		return err
	}

	srv, err := web.New(cfg, st, pub)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
