package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/logger"
)

const bootstrapTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("catalog: %v", err)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	appLog := logger.New(cfg.Log.Level, cfg.Log.Format)
	appLog.Info("configuration loaded",
		"profile", cfg.Server.Profile,
		"db_driver", cfg.Database.Driver,
		"storage_driver", cfg.Storage.Driver,
		"storage_bucket", logger.MaskBucket(cfg.Storage.Bucket))

	// --- Bootstrap: secrets, database, storage, events, routes ---
	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	application, err := app.Bootstrap(ctx, cfg, appLog)
	cancel()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Listen()
	}()

	select {
	case sig := <-quit:
		appLog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			appLog.Error("server failed", "error", err)
			if closeErr := application.Close(); closeErr != nil {
				appLog.Error("error releasing resources", "error", closeErr)
			}
			return fmt.Errorf("serve: %w", err)
		}
	}

	if err := application.Shutdown(); err != nil {
		appLog.Error("error during shutdown", "error", err)
		return err
	}
	appLog.Info("server gracefully stopped")
	return nil
}
