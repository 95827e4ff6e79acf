package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"FlyerScraper/internal/observability"
	"FlyerScraper/pkg/config"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

// env is the state every subcommand starts from.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func setup() (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger, closeLog := observability.NewLogger(observability.LoggerOptions{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	return &env{cfg: cfg, logger: logger, closeLog: closeLog}, nil
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flyerscraper",
		Short:         "Scrape supermarket flyer offers from marktguru into a ranked spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(runCmd(), exportCmd(), historyCmd(), selectorsCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
