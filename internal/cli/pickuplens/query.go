package pickuplens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pickuplens/pickuplens/internal/snapshot"
	"github.com/pickuplens/pickuplens/internal/sqlload"
	"github.com/pickuplens/pickuplens/internal/storage"
	"github.com/pickuplens/pickuplens/internal/warehouse"
	"github.com/pickuplens/pickuplens/internal/warehouse/duckdb"
)

func runQuery(ctx context.Context, r *runner, args []string) error {
	fs := r.flagSet("query")
	sqlText := fs.String("sql", "", "inline SQL text; wins over -sql-file")
	sqlFile := fs.String("sql-file", "", "path to a SQL file")
	preset := fs.String("preset", "", "embedded query to run ("+strings.Join(sqlload.PresetNames(), ", ")+")")
	var params stringList
	fs.Var(&params, "param", "template parameter key=value (repeatable)")
	var tables stringList
	fs.Var(&tables, "table", "expose a parquet file as a DuckDB view: name=path or name=store:key (repeatable)")
	verbose := fs.Bool("verbose", false, "print the final query before running it")
	snapshotPath := fs.String("snapshot", "", "write the result to this .feather or .parquet file")
	save := fs.Bool("save", false, "write the result to the configured snapshot path")
	upload := fs.Bool("upload", false, "upload the written snapshot to the object store")
	uploadKey := fs.String("upload-key", "", "object key for -upload (default derived from the file name and time)")
	head := fs.Int("head", 5, "rows to print after the query")
	info := fs.Bool("info", false, "print column info")
	if err := parse(fs, args); err != nil {
		return err
	}

	parsed, err := sqlload.ParseParams(params)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var source sqlload.Source
	if *preset != "" {
		if *sqlText != "" || *sqlFile != "" {
			return fmt.Errorf("%w: -preset cannot be combined with -sql or -sql-file", errUsage)
		}
		p, err := sqlload.LookupPreset(*preset)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		source = p.Source
		parsed = p.Params(parsed)
	} else {
		if *sqlText != "" && *sqlFile != "" {
			r.log.WarnContext(ctx, "both -sql and -sql-file given; using -sql",
				slog.String("ignored_file", *sqlFile),
			)
		}
		source, err = sqlload.SourceFrom(*sqlFile, *sqlText)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}

	loader := &sqlload.Loader{Connect: r.opts.Connect, Logger: r.log, Echo: r.stdout}
	if len(tables) > 0 {
		engine, err := r.duckdbEngine(ctx, tables)
		if err != nil {
			return err
		}
		loader.Engine = engine
	}
	table, err := loader.Load(ctx, sqlload.Request{Source: source, Params: parsed, Verbose: *verbose})
	if err != nil {
		if errors.Is(err, sqlload.ErrTemplate) {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return err
	}

	if *info {
		if err := snapshot.WriteInfo(r.stdout, table); err != nil {
			return err
		}
	}
	if *head > 0 {
		if err := snapshot.WriteHead(r.stdout, table, *head); err != nil {
			return err
		}
	}

	path := *snapshotPath
	if path == "" && *save {
		path = r.defaultSnapshotPath()
	}
	if path == "" {
		if *upload {
			return fmt.Errorf("%w: -upload needs -snapshot or -save", errUsage)
		}
		return nil
	}
	return r.writeSnapshot(ctx, table, path, *upload, *uploadKey)
}

// writeSnapshot writes table to path and, when asked, uploads the file.
func (r *runner) writeSnapshot(ctx context.Context, table warehouse.Table, path string, upload bool, key string) error {
	if err := snapshot.Write(path, table); err != nil {
		return err
	}
	r.log.InfoContext(ctx, "snapshot written",
		slog.String("path", path),
		slog.Int("rows", table.NumRows()),
	)
	_, _ = fmt.Fprintf(r.stdout, "wrote %d rows to %s\n", table.NumRows(), path)
	if !upload {
		return nil
	}

	if key == "" {
		ext := filepath.Ext(path)
		dataset := strings.TrimSuffix(filepath.Base(path), ext)
		var err error
		key, err = storage.BuildSnapshotKey(dataset, r.opts.Now(), ext)
		if err != nil {
			return err
		}
	}
	store, err := r.objectStore(ctx)
	if err != nil {
		return err
	}
	info, err := snapshot.Upload(ctx, store, key, path)
	if err != nil {
		return err
	}
	r.log.InfoContext(ctx, "snapshot uploaded",
		slog.String("key", info.Key),
		slog.Int64("bytes", info.Size),
	)
	_, _ = fmt.Fprintf(r.stdout, "uploaded %s\n", key)
	return nil
}

// duckdbEngine runs the query locally over parquet files instead of the
// configured warehouse.
func (r *runner) duckdbEngine(ctx context.Context, entries []string) (*duckdb.Engine, error) {
	engine := duckdb.NewEngine(r.cfg.DuckDB.Path, nil)
	for _, entry := range entries {
		name, location, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(location) == "" {
			return nil, fmt.Errorf("%w: invalid -table %q: want name=path", errUsage, entry)
		}
		file := duckdb.TableFile{TableName: name}
		if key, fromStore := strings.CutPrefix(location, "store:"); fromStore {
			if engine.Store == nil {
				store, err := r.objectStore(ctx)
				if err != nil {
					return nil, err
				}
				engine.Store = store
			}
			file.ObjectPath = key
		} else {
			file.LocalPath = location
		}
		engine.Files = append(engine.Files, file)
	}
	return engine, nil
}
