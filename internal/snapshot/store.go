package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pickuplens/pickuplens/internal/storage"
)

var contentTypes = map[Format]string{
	FormatFeather: "application/vnd.apache.arrow.file",
	FormatParquet: "application/vnd.apache.parquet",
}

// Upload copies the local snapshot at path to key in the object store.
func Upload(ctx context.Context, store storage.ObjectStore, key, path string) (storage.ObjectInfo, error) {
	if store == nil {
		return storage.ObjectInfo{}, fmt.Errorf("object store is required")
	}
	format, err := FormatFor(path)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("open snapshot %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("stat snapshot %q: %w", path, err)
	}
	info, err := store.Put(ctx, key, file, stat.Size(), storage.PutOptions{
		ContentType: contentTypes[format],
		Metadata: map[string]string{
			"format": string(format),
			"bytes":  strconv.FormatInt(stat.Size(), 10),
		},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload snapshot to %q: %w", key, err)
	}
	return info, nil
}

// Download fetches key into path. The file is written through a temporary
// sibling so a failed download never leaves a truncated snapshot behind.
func Download(ctx context.Context, store storage.ObjectStore, key, path string) error {
	if store == nil {
		return fmt.Errorf("object store is required")
	}
	if _, err := FormatFor(path); err != nil {
		return err
	}
	reader, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("download snapshot %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy snapshot %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move snapshot into place: %w", err)
	}
	return nil
}
