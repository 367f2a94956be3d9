// Package pickuplens implements the pickuplens command line.
package pickuplens

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pickuplens/pickuplens/internal/config"
	"github.com/pickuplens/pickuplens/internal/storage"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

type Options struct {
	Config config.Config
	Logger *slog.Logger
	// Connect opens the configured warehouse for one query.
	Connect func(ctx context.Context) (warehouse.Engine, error)
	// Store opens the snapshot object store on first use.
	Store  func(ctx context.Context) (storage.ObjectStore, error)
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
}

// errUsage marks failures caused by bad arguments; Run exits 2 for them.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, r *runner, args []string) error
}

var commands = []command{
	{name: "query", summary: "run a warehouse query and optionally snapshot the result", run: runQuery},
	{name: "info", summary: "print column info and head rows of a snapshot", run: runInfo},
	{name: "map", summary: "render pickup discrepancies on an interactive map", run: runMap},
	{name: "slides", summary: "render the circle to square slideshow", run: runSlides},
	{name: "demo", summary: "write a synthetic discrepancy snapshot", run: runDemo},
	{name: "serve", summary: "serve rendered output with /metrics", run: runServe},
}

type runner struct {
	opts   Options
	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
	store  storage.ObjectStore
}

func Run(ctx context.Context, args []string, opts Options) int {
	r := &runner{opts: opts, cfg: opts.Config, log: opts.Logger, stdout: opts.Stdout, stderr: opts.Stderr}
	if r.stdout == nil {
		r.stdout = io.Discard
	}
	if r.stderr == nil {
		r.stderr = io.Discard
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.opts.Now == nil {
		r.opts.Now = func() time.Time { return time.Now().UTC() }
	}

	fs := flag.NewFlagSet("pickuplens", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	fs.Usage = func() { writeUsage(r.stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(r.stderr)
		return 2
	}

	name := strings.TrimSpace(fs.Arg(0))
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(ctx, r, fs.Args()[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			_, _ = fmt.Fprintf(r.stderr, "%s: %v\n", name, err)
			return 2
		default:
			r.log.ErrorContext(ctx, "command failed", slog.String("command", name), slog.Any("error", err))
			_, _ = fmt.Fprintf(r.stderr, "%s failed: %v\n", name, err)
			return 1
		}
	}

	_, _ = fmt.Fprintf(r.stderr, "unknown command %q\n\n", name)
	writeUsage(r.stderr)
	return 2
}

func (r *runner) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("pickuplens "+name, flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

// parse wraps flag errors so Run reports them as usage failures.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

func (r *runner) defaultSnapshotPath() string {
	return filepath.Join(r.cfg.Snapshot.Dir, r.cfg.Snapshot.File)
}

func (r *runner) objectStore(ctx context.Context) (storage.ObjectStore, error) {
	if r.store != nil {
		return r.store, nil
	}
	if r.opts.Store == nil {
		return nil, fmt.Errorf("object store is not configured")
	}
	store, err := r.opts.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	r.store = store
	return store, nil
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: pickuplens <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	for _, cmd := range commands {
		_, _ = fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
}

// stringList collects a repeated flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
