package observability

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRequestIDMiddlewarePreservesIncomingID(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := RunIDFromContext(r.Context()); got != "req-1" {
			t.Fatalf("RunIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/map.html", nil)
	req.Header.Set(requestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(requestIDHeader); got != "req-1" {
		t.Fatalf("request id header = %q", got)
	}
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RunIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated request id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/map.html", nil))

	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestRunIDContextHelpers(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "abc123")
	if got := RunIDFromContext(ctx); got != "abc123" {
		t.Fatalf("RunIDFromContext() = %q", got)
	}
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Fatalf("RunIDFromContext(empty) = %q", got)
	}
}

func TestAccessMiddlewareLogsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	var routed string
	route := func(r *http.Request) string {
		routed = r.URL.Path
		return "/files"
	}
	h := AccessMiddleware(logger.With(slog.String("run_id", "run-1")), route)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/map.html", nil)
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(ContextWithRunID(req.Context(), "req-9")))

	if routed != "/map.html" {
		t.Fatalf("route called with %q", routed)
	}
	line := buf.String()
	for _, want := range []string{`"msg":"http_request"`, `"level":"WARN"`, `"status":502`, `"bytes":8`, `"request_id":"req-9"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("access log %s missing %s", line, want)
		}
	}
	if n := strings.Count(line, `"run_id"`); n != 1 {
		t.Fatalf("access log %s has run_id %d times", line, n)
	}
}

func TestAccessMiddlewareWithoutLogger(t *testing.T) {
	h := AccessMiddleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestWriteMetricsTextfile(t *testing.T) {
	ObserveWarehouseQuery("duckdb", 3, 20*time.Millisecond, nil)
	ObserveSnapshotWrite("feather", 128)
	ObserveMapFeatures(3, 2)
	ObserveObjectStoreOp("put", nil, false)

	path := filepath.Join(t.TempDir(), "pickuplens.prom")
	if err := WriteMetricsTextfile(path); err != nil {
		t.Fatalf("WriteMetricsTextfile() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{
		"pickuplens_warehouse_queries_total",
		"pickuplens_snapshot_bytes_total",
		"pickuplens_map_features_total",
		`pickuplens_object_store_operations_total{operation="put",outcome="ok"}`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("textfile missing %q", want)
		}
	}

	if err := WriteMetricsTextfile(""); err != nil {
		t.Fatalf("WriteMetricsTextfile(\"\") error = %v", err)
	}
}
