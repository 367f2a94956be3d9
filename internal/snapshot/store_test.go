package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pickuplens/pickuplens/internal/storage"
)

type memoryStore struct {
	objects map[string][]byte
	opts    map[string]storage.PutOptions
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, opts: map[string]storage.PutOptions{}}
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = data
	m.opts[key] = opts
	return storage.ObjectInfo{Key: key, Size: int64(len(data)), Metadata: opts.Metadata}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	data, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "transport_booking.feather")
	if err := Write(local, sampleTable()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	store := newMemoryStore()
	key := "transport_booking/date=2026-10-16/transport_booking-101500.feather"
	info, err := Upload(context.Background(), store, key, local)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if info.Size == 0 || store.opts[key].ContentType != "application/vnd.apache.arrow.file" {
		t.Fatalf("info = %+v, opts = %+v", info, store.opts[key])
	}
	if store.opts[key].Metadata["format"] != "feather" {
		t.Fatalf("metadata = %v", store.opts[key].Metadata)
	}

	restored := filepath.Join(dir, "restored", "transport_booking.feather")
	if err := Download(context.Background(), store, key, restored); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	table, err := Read(restored)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	assertSampleTable(t, table)
}

func TestDownloadMissingKeyLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport_booking.parquet")
	err := Download(context.Background(), newMemoryStore(), "missing.parquet", path)
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Download() error = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat() error = %v, want not-exist", err)
	}
}

func TestUploadRequiresStoreAndKnownFormat(t *testing.T) {
	if _, err := Upload(context.Background(), nil, "k", "a.feather"); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := Upload(context.Background(), newMemoryStore(), "k", "a.json"); err == nil || !strings.Contains(err.Error(), ".json") {
		t.Fatalf("Upload() error = %v", err)
	}
}
