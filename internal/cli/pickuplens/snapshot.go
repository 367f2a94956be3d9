package pickuplens

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pickuplens/pickuplens/internal/demo"
	"github.com/pickuplens/pickuplens/internal/snapshot"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

func runInfo(ctx context.Context, r *runner, args []string) error {
	fs := r.flagSet("info")
	path := fs.String("snapshot", r.defaultSnapshotPath(), "snapshot file to read")
	fromStore := fs.String("from-store", "", "download this object key into -snapshot first")
	head := fs.Int("head", 5, "rows to print")
	if err := parse(fs, args); err != nil {
		return err
	}

	table, err := r.loadSnapshot(ctx, *path, *fromStore)
	if err != nil {
		return err
	}
	if err := snapshot.WriteInfo(r.stdout, table); err != nil {
		return err
	}
	if *head > 0 {
		_, _ = fmt.Fprintln(r.stdout)
		return snapshot.WriteHead(r.stdout, table, *head)
	}
	return nil
}

func (r *runner) loadSnapshot(ctx context.Context, path, key string) (warehouse.Table, error) {
	if key != "" {
		store, err := r.objectStore(ctx)
		if err != nil {
			return warehouse.Table{}, err
		}
		if err := snapshot.Download(ctx, store, key, path); err != nil {
			return warehouse.Table{}, err
		}
		r.log.InfoContext(ctx, "snapshot downloaded",
			slog.String("key", key),
			slog.String("path", path),
		)
	}
	return snapshot.Read(path)
}

func runDemo(ctx context.Context, r *runner, args []string) error {
	fs := r.flagSet("demo")
	rows := fs.Int("rows", 200, "number of synthetic bookings")
	seed := fs.Int64("seed", r.cfg.Map.Seed, "generator seed")
	path := fs.String("snapshot", r.defaultSnapshotPath(), "snapshot file to write")
	upload := fs.Bool("upload", false, "upload the snapshot to the object store")
	uploadKey := fs.String("upload-key", "", "object key for -upload")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *rows < 0 {
		return fmt.Errorf("%w: -rows must be >= 0", errUsage)
	}

	generator := demo.NewGenerator(*seed)
	return r.writeSnapshot(ctx, generator.Table(*rows), *path, *upload, *uploadKey)
}
