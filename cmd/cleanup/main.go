// Command cleanup runs one expiry sweep and exits. Intended for cron.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/sharenest/sharenest/internal/config"
	"github.com/sharenest/sharenest/internal/logging"
	"github.com/sharenest/sharenest/internal/server/repositories/repomanager"
	"github.com/sharenest/sharenest/internal/server/services"
	"github.com/sharenest/sharenest/internal/server/storage"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, repos, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Printf("db init error: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Printf("storage init error: %v", err)
		os.Exit(1)
	}

	cleanup := services.NewCleanupService(db, repos, store, cfg, logger)

	report, err := cleanup.SweepExpired(ctx)
	if err != nil {
		logger.Error(ctx, "sweep failed", "error", err)
		os.Exit(1)
	}

	logger.Info(ctx, "sweep finished", "deleted", report.Deleted, "storage_failures", report.StorageFailures)
}
