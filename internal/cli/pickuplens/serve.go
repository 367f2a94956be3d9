package pickuplens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pickuplens/pickuplens/internal/observability"
)

// NewServeHandler serves dir with health and metrics endpoints, wrapped in
// the request id and access middleware.
func NewServeHandler(dir string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /", http.FileServer(http.Dir(dir)))

	access := observability.AccessMiddleware(logger, serveRoute)
	return observability.RequestIDMiddleware(access(mux))
}

// serveRoute folds every served file into one route label.
func serveRoute(r *http.Request) string {
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return r.URL.Path
	default:
		return "/files"
	}
}

func runServe(ctx context.Context, r *runner, args []string) error {
	fs := r.flagSet("serve")
	dir := fs.String("dir", r.cfg.Snapshot.Dir, "directory to serve")
	addr := fs.String("addr", r.cfg.HTTP.Address, "listen address")
	if err := parse(fs, args); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", *addr, err)
	}
	server := &http.Server{
		Handler:      NewServeHandler(*dir, r.log),
		ReadTimeout:  r.cfg.HTTP.ReadTimeout,
		WriteTimeout: r.cfg.HTTP.WriteTimeout,
		IdleTimeout:  r.cfg.HTTP.IdleTimeout,
	}
	return serve(ctx, r, server, listener)
}

// serve blocks until ctx is done, then shuts the server down gracefully.
func serve(ctx context.Context, r *runner, server *http.Server, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		r.log.Info("starting server", slog.String("addr", listener.Addr().String()))
		_, _ = fmt.Fprintf(r.stdout, "serving on http://%s\n", listener.Addr())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.log.Info("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
