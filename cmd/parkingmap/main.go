package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/seoul-parking-map/internal/app"
	"github.com/samvad-hq/seoul-parking-map/internal/config"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parking map start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	// The API key stays out of the logs.
	logger.InfoObj("parking map starting", "config", map[string]any{
		"app_env":  cfg.Env,
		"district": cfg.District,
		"api_base": cfg.APIBaseURL,
		"http":     cfg.HTTPAddr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	viewer, err := app.NewViewer(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize parking map", "error", err.Error())
		return err
	}

	return viewer.Run(ctx)
}
