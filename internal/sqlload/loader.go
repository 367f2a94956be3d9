// Package sqlload resolves, templates and runs warehouse queries.
package sqlload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pickuplens/pickuplens/internal/observability"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

type Request struct {
	Source  Source
	Params  map[string]any
	Verbose bool
}

// Loader runs queries on Engine, or on a fresh engine from Connect for each
// call when Engine is nil.
type Loader struct {
	Engine  warehouse.Engine
	Connect func(ctx context.Context) (warehouse.Engine, error)
	Logger  *slog.Logger
	// Echo receives the final query text of verbose requests; os.Stdout when nil.
	Echo io.Writer
}

func (l *Loader) Load(ctx context.Context, request Request) (warehouse.Table, error) {
	if request.Source == nil {
		return warehouse.Table{}, ErrInvalidInput
	}
	text, err := request.Source.read()
	if err != nil {
		return warehouse.Table{}, err
	}
	query, err := Render(text, request.Params)
	if err != nil {
		return warehouse.Table{}, err
	}

	if request.Verbose {
		echo := l.Echo
		if echo == nil {
			echo = os.Stdout
		}
		_, _ = fmt.Fprintln(echo, query)
	}
	l.logger().DebugContext(ctx, "query rendered",
		slog.String("source", request.Source.String()),
		slog.Int("params", len(request.Params)),
	)

	return l.Query(ctx, query)
}

// Query blocks until the warehouse returns the full result. TIMESTAMP
// columns come back as zone-naive DATETIME columns.
func (l *Loader) Query(ctx context.Context, query string) (warehouse.Table, error) {
	engine := l.Engine
	if engine == nil {
		if l.Connect == nil {
			return warehouse.Table{}, fmt.Errorf("warehouse engine is required")
		}
		var err error
		engine, err = l.Connect(ctx)
		if err != nil {
			return warehouse.Table{}, fmt.Errorf("connect warehouse: %w", err)
		}
		defer func() { _ = engine.Close() }()
	}

	start := time.Now()
	table, err := engine.Query(ctx, query)
	elapsed := time.Since(start)
	observability.ObserveWarehouseQuery(engine.Name(), table.NumRows(), elapsed, err)
	if err != nil {
		l.logger().ErrorContext(ctx, "warehouse query failed",
			slog.String("backend", engine.Name()),
			slog.Any("error", err),
		)
		return warehouse.Table{}, fmt.Errorf("%s query: %w", engine.Name(), err)
	}

	l.logger().InfoContext(ctx, "warehouse query finished",
		slog.String("backend", engine.Name()),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", len(table.Columns)),
		slog.String("duration", elapsed.String()),
	)
	return warehouse.NormalizeTimestamps(table), nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Logger
}
