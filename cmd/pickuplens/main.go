package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pickuplens/pickuplens/internal/cli/pickuplens"
	"github.com/pickuplens/pickuplens/internal/config"
	"github.com/pickuplens/pickuplens/internal/observability"
	"github.com/pickuplens/pickuplens/internal/storage"
	s3store "github.com/pickuplens/pickuplens/internal/storage/s3"
	"github.com/pickuplens/pickuplens/internal/warehouse/connect"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromEnv("pickuplens")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return 1
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runID := observability.NewRunID()
	ctx = observability.ContextWithRunID(ctx, runID)
	logger = logger.With(slog.String("run_id", runID))

	openStore := func(ctx context.Context) (storage.ObjectStore, error) {
		store, err := s3store.New(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	code := pickuplens.Run(ctx, os.Args[1:], pickuplens.Options{
		Config:  cfg,
		Logger:  logger,
		Connect: connect.Factory(cfg, nil),
		Store:   openStore,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})

	if err := observability.WriteMetricsTextfile(cfg.Observability.MetricsTextfile); err != nil {
		logger.Error("failed to write metrics textfile", slog.Any("error", err))
	}
	return code
}
