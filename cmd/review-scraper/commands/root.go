package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/config"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "review-scraper",
	Short:         "review-scraper collects product details and customer reviews from Flipkart product pages.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	return cfg, log, nil
}
