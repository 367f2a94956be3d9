// Package connect builds the configured warehouse engine.
package connect

import (
	"context"
	"fmt"

	"github.com/pickuplens/pickuplens/internal/config"
	"github.com/pickuplens/pickuplens/internal/storage"
	"github.com/pickuplens/pickuplens/internal/warehouse"
	"github.com/pickuplens/pickuplens/internal/warehouse/bigquery"
	"github.com/pickuplens/pickuplens/internal/warehouse/duckdb"
	"github.com/pickuplens/pickuplens/internal/warehouse/postgres"
)

// Open returns an engine for cfg.Warehouse.Backend. The store is only used by
// the duckdb backend to fetch parquet tables and may be nil.
func Open(ctx context.Context, cfg config.Config, store storage.ObjectStore) (warehouse.Engine, error) {
	switch cfg.Warehouse.Backend {
	case config.BackendBigQuery:
		engine, err := bigquery.New(ctx, bigquery.Config{
			ProjectID:       cfg.Warehouse.ProjectID,
			Location:        cfg.Warehouse.Location,
			CredentialsFile: cfg.Warehouse.CredentialsFile,
			QueryTimeout:    cfg.Warehouse.QueryTimeout,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	case config.BackendDuckDB:
		return duckdb.NewEngine(cfg.DuckDB.Path, store), nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, postgres.DBConfig{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return postgres.NewEngine(db), nil
	default:
		return nil, fmt.Errorf("unsupported warehouse backend %q", cfg.Warehouse.Backend)
	}
}

// Factory binds Open to a configuration for callers that connect lazily.
func Factory(cfg config.Config, store storage.ObjectStore) func(context.Context) (warehouse.Engine, error) {
	return func(ctx context.Context) (warehouse.Engine, error) {
		return Open(ctx, cfg, store)
	}
}
