package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FlyerScraper/internal/app"
	"FlyerScraper/internal/database"
	"FlyerScraper/internal/models"
	"FlyerScraper/internal/observability"
	"FlyerScraper/internal/server"
	"FlyerScraper/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server loads its own config
	cfg, err := config.LoadConfig(os.Getenv("FLYER_CONFIG"))
	if err != nil {
		return err
	}
	logger, closeLog := observability.NewLogger(observability.LoggerOptions{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	defer closeLog()

	repo, err := database.InitDB(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Serves archived runs only; no browser is ever opened here.
	a := app.New(cfg, models.SelectorConfig{}, repo, nil, logger)
	return server.New(a, cfg, logger).Start(ctx)
}
