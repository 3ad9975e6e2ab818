package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"washlog/internal/amqp"
	"washlog/internal/cache"
	"washlog/internal/cli"
	applog "washlog/internal/log"
	"washlog/internal/storage"
	"washlog/internal/washapi/google"
	"washlog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting washlog-mirror")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheet, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer broker.Close()

	mirror := worker.NewMirrorWorker(repo, sheet, logger)

	// Catch up on anything published while the worker was down.
	if _, err := mirror.Reconcile(ctx); err != nil {
		logger.Error("Startup reconciliation failed", applog.FieldError, err)
	}

	caches := cache.NewManager(logger.Logger)
	caches.Register("mirrored_events", mirror.Seen())
	if err := caches.StartCleanup(time.Hour); err != nil {
		logger.Warn("Cache maintenance not started", applog.FieldError, err)
	}
	defer caches.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return broker.ConsumeWashRegistered(gctx, mirror.HandleWashRegistered)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := mirror.Reconcile(gctx); err != nil {
					logger.Error("Periodic reconciliation failed", applog.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Mirror worker shutdown complete")
}
