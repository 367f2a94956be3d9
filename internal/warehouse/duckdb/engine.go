// Package duckdb runs warehouse queries in an in-process DuckDB database,
// optionally exposing parquet snapshots as tables.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/pickuplens/pickuplens/internal/storage"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

var openDB = sql.Open

// TableFile binds a parquet file to a view name. ObjectPath is fetched from
// the engine's object store; LocalPath is read in place.
type TableFile struct {
	TableName  string
	ObjectPath string
	LocalPath  string
}

type Engine struct {
	Store    storage.ObjectStore
	Path     string
	Files    []TableFile
	RowLimit int
}

func NewEngine(path string, store storage.ObjectStore) *Engine {
	return &Engine{Path: path, Store: store}
}

func (e *Engine) Name() string {
	return "duckdb"
}

func (e *Engine) Close() error {
	return nil
}

func (e *Engine) Query(ctx context.Context, sqlText string) (warehouse.Table, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return warehouse.Table{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	workDir, err := os.MkdirTemp("", "pickuplens-query-")
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("create query temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	groupedPaths := map[string][]string{}
	for index, file := range e.Files {
		localPath, err := e.resolveFile(ctx, workDir, index, file)
		if err != nil {
			return warehouse.Table{}, err
		}
		groupedPaths[file.TableName] = append(groupedPaths[file.TableName], localPath)
	}

	db, err := openDB("duckdb", e.Path)
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Temp views live on one connection; the query must run on the same one.
	conn, err := db.Conn(ctx)
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("acquire duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for tableName, localPaths := range groupedPaths {
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE TEMP VIEW %s AS SELECT * FROM read_parquet(%s)`, quoteIdent(tableName), quoteStringArray(localPaths))
		if _, err := conn.ExecContext(ctx, viewSQL); err != nil {
			return warehouse.Table{}, fmt.Errorf("create view for table %q: %w", tableName, err)
		}
	}

	if e.RowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, e.RowLimit)
	}

	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	table, err := warehouse.ScanRows(rows)
	if err != nil {
		return warehouse.Table{}, err
	}
	table.Duration = time.Since(start)
	return table, nil
}

func (e *Engine) resolveFile(ctx context.Context, workDir string, index int, file TableFile) (string, error) {
	if strings.TrimSpace(file.TableName) == "" {
		return "", fmt.Errorf("table name is required for file %d", index)
	}
	if file.LocalPath != "" {
		return file.LocalPath, nil
	}
	if file.ObjectPath == "" {
		return "", fmt.Errorf("table %q has neither object path nor local path", file.TableName)
	}
	if e.Store == nil {
		return "", fmt.Errorf("object store is required for table %q", file.TableName)
	}

	reader, err := e.Store.Get(ctx, file.ObjectPath)
	if err != nil {
		return "", fmt.Errorf("get object %q: %w", file.ObjectPath, err)
	}
	defer func() { _ = reader.Close() }()

	localPath := filepath.Join(workDir, fmt.Sprintf("%s_%d.parquet", sanitizeFileComponent(file.TableName), index))
	if err := writeFile(localPath, reader); err != nil {
		return "", fmt.Errorf("write local parquet file %q: %w", localPath, err)
	}
	return localPath, nil
}

func writeFile(path string, reader io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, reader); err != nil {
		return err
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteStringArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, `'`+strings.ReplaceAll(value, `'`, `''`)+`'`)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func sanitizeFileComponent(value string) string {
	value = strings.ReplaceAll(value, "/", "_")
	value = strings.ReplaceAll(value, "..", "_")
	if value == "" {
		return "table"
	}
	return value
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
