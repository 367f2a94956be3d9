package sqlload

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/pickuplens/pickuplens/internal/observability"
	"github.com/pickuplens/pickuplens/internal/warehouse"
	"github.com/pickuplens/pickuplens/internal/warehouse/duckdb"
)

type fakeEngine struct {
	table   warehouse.Table
	err     error
	queries []string
	closed  int
}

func (f *fakeEngine) Query(_ context.Context, sql string) (warehouse.Table, error) {
	f.queries = append(f.queries, sql)
	if f.err != nil {
		return warehouse.Table{}, f.err
	}
	return f.table, nil
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Close() error {
	f.closed++
	return nil
}

func TestLoadWithoutSourceIsInvalidInput(t *testing.T) {
	loader := &Loader{Engine: &fakeEngine{}}
	if _, err := loader.Load(context.Background(), Request{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Load() error = %v, want ErrInvalidInput", err)
	}
	if _, err := SourceFrom("", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("SourceFrom() error = %v, want ErrInvalidInput", err)
	}
}

func TestSourceFromPrefersInlineText(t *testing.T) {
	source, err := SourceFrom("/does/not/exist.sql", "SELECT 2")
	if err != nil {
		t.Fatalf("SourceFrom() error = %v", err)
	}
	engine := &fakeEngine{}
	loader := &Loader{Engine: engine}
	if _, err := loader.Load(context.Background(), Request{Source: source}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(engine.queries) != 1 || engine.queries[0] != "SELECT 2" {
		t.Fatalf("queries = %v", engine.queries)
	}
}

func TestLoadReadsAndRendersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.sql")
	if err := os.WriteFile(path, []byte("SELECT * FROM bookings WHERE day = {{ quote .day }}"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	source, err := SourceFrom(path, "")
	if err != nil {
		t.Fatalf("SourceFrom() error = %v", err)
	}

	engine := &fakeEngine{}
	echo := &bytes.Buffer{}
	loader := &Loader{Engine: engine, Echo: echo}
	_, err = loader.Load(context.Background(), Request{
		Source:  source,
		Params:  map[string]any{"day": "2026-10-16"},
		Verbose: true,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := "SELECT * FROM bookings WHERE day = '2026-10-16'"
	if engine.queries[0] != want {
		t.Fatalf("query = %q", engine.queries[0])
	}
	if strings.TrimSpace(echo.String()) != want {
		t.Fatalf("echo = %q", echo.String())
	}
}

func TestLoadQuietDoesNotEcho(t *testing.T) {
	echo := &bytes.Buffer{}
	loader := &Loader{Engine: &fakeEngine{}, Echo: echo}
	if _, err := loader.Load(context.Background(), Request{Source: Inline{Text: "SELECT 1"}}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if echo.Len() != 0 {
		t.Fatalf("echo = %q, want nothing", echo.String())
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	loader := &Loader{Engine: &fakeEngine{}}
	_, err := loader.Load(context.Background(), Request{Source: File{Path: filepath.Join(t.TempDir(), "missing.sql")}})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want not-exist", err)
	}
}

func TestLoadTemplateErrorPropagates(t *testing.T) {
	engine := &fakeEngine{}
	loader := &Loader{Engine: engine}
	_, err := loader.Load(context.Background(), Request{
		Source: Inline{Text: "SELECT {{ .missing }}"},
		Params: map[string]any{"present": 1},
	})
	if !errors.Is(err, ErrTemplate) {
		t.Fatalf("Load() error = %v, want ErrTemplate", err)
	}
	if len(engine.queries) != 0 {
		t.Fatal("query should not run after a template error")
	}
}

func TestQueryNormalizesTimestamps(t *testing.T) {
	booked := time.Date(2026, time.October, 15, 22, 0, 0, 0, time.UTC)
	engine := &fakeEngine{table: warehouse.Table{
		Columns: []warehouse.Column{{Name: "booking_time", Type: warehouse.TypeTimestamp}},
		Rows:    [][]any{{booked}},
	}}
	table, err := (&Loader{Engine: engine}).Query(context.Background(), "SELECT booking_time FROM bookings")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if table.Columns[0].Type != warehouse.TypeDateTime {
		t.Fatalf("type = %q", table.Columns[0].Type)
	}
	if table.Rows[0][0] != civil.DateTimeOf(booked) {
		t.Fatalf("value = %#v", table.Rows[0][0])
	}
}

func TestQueryPropagatesEngineError(t *testing.T) {
	remoteErr := errors.New("Access Denied: Project p-gojek-data-analytics-access")
	loader := &Loader{Engine: &fakeEngine{err: remoteErr}}
	if _, err := loader.Query(context.Background(), "SELECT 1"); !errors.Is(err, remoteErr) {
		t.Fatalf("Query() error = %v, want %v", err, remoteErr)
	}
}

func TestQueryConnectsDefaultEnginePerCall(t *testing.T) {
	engine := &fakeEngine{}
	connects := 0
	loader := &Loader{Connect: func(context.Context) (warehouse.Engine, error) {
		connects++
		return engine, nil
	}}
	for i := 0; i < 2; i++ {
		if _, err := loader.Query(context.Background(), "SELECT 1"); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
	}
	if connects != 2 || engine.closed != 2 {
		t.Fatalf("connects = %d, closed = %d", connects, engine.closed)
	}

	connectErr := errors.New("could not find default credentials")
	loader = &Loader{Connect: func(context.Context) (warehouse.Engine, error) { return nil, connectErr }}
	if _, err := loader.Query(context.Background(), "SELECT 1"); !errors.Is(err, connectErr) {
		t.Fatalf("Query() error = %v", err)
	}
	if _, err := (&Loader{}).Query(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("expected error without engine or connector")
	}
}

func TestLoadSelectOneOnDuckDB(t *testing.T) {
	loader := &Loader{Engine: duckdb.NewEngine("", nil)}
	table, err := loader.Load(context.Background(), Request{Source: Inline{Text: "SELECT 1 AS x"}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(table.Columns) != 1 || table.Columns[0].Name != "x" {
		t.Fatalf("columns = %+v", table.Columns)
	}
	if table.NumRows() != 1 || table.Rows[0][0] != int64(1) {
		t.Fatalf("rows = %#v", table.Rows)
	}
}

func TestLoadLogsRunIDOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With(slog.String("run_id", "run-7"))
	ctx := observability.ContextWithRunID(context.Background(), "run-7")

	loader := &Loader{Engine: &fakeEngine{}, Logger: logger}
	if _, err := loader.Load(ctx, Request{Source: Inline{Text: "SELECT 1"}}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected log records")
	}
	for _, line := range lines {
		if n := strings.Count(line, `"run_id"`); n != 1 {
			t.Fatalf("record %s has run_id %d times", line, n)
		}
	}
}
