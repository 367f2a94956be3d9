package connect

import (
	"context"
	"testing"

	"github.com/pickuplens/pickuplens/internal/config"
)

func TestOpenDuckDB(t *testing.T) {
	cfg := config.Config{Warehouse: config.WarehouseConfig{Backend: config.BackendDuckDB}}
	engine, err := Factory(cfg, nil)(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = engine.Close() }()
	if engine.Name() != "duckdb" {
		t.Fatalf("Name() = %q", engine.Name())
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := config.Config{Warehouse: config.WarehouseConfig{Backend: "oracle"}}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpenBigQueryRequiresProject(t *testing.T) {
	cfg := config.Config{Warehouse: config.WarehouseConfig{Backend: config.BackendBigQuery}}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for missing project id")
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	cfg := config.Config{Warehouse: config.WarehouseConfig{Backend: config.BackendPostgres}}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}
