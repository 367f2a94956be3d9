package pickuplens

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pickuplens/pickuplens/internal/demo"
	"github.com/pickuplens/pickuplens/internal/geomap"
	"github.com/pickuplens/pickuplens/internal/slides"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

func runMap(ctx context.Context, r *runner, args []string) error {
	fs := r.flagSet("map")
	path := fs.String("snapshot", r.defaultSnapshotPath(), "snapshot file to map")
	fromStore := fs.String("from-store", "", "download this object key into -snapshot first")
	useDemo := fs.Bool("demo", false, "map synthetic bookings instead of a snapshot")
	demoRows := fs.Int("demo-rows", 200, "synthetic bookings for -demo")
	sampleSize := fs.Int("sample-size", r.cfg.Map.SampleSize, "maximum rows drawn onto the map")
	seed := fs.Int64("seed", r.cfg.Map.Seed, "sampling seed")
	zoom := fs.Int("zoom", r.cfg.Map.Zoom, "initial zoom level")
	out := fs.String("out", filepath.Join(r.cfg.Snapshot.Dir, "pickup_map.html"), "HTML file to write")
	geoJSON := fs.String("geojson", "", "also write the features as GeoJSON to this path")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *sampleSize <= 0 {
		return fmt.Errorf("%w: -sample-size must be > 0", errUsage)
	}

	var table warehouse.Table
	if *useDemo {
		table = demo.NewGenerator(*seed).Table(*demoRows)
	} else {
		var err error
		table, err = r.loadSnapshot(ctx, *path, *fromStore)
		if err != nil {
			return err
		}
	}

	m, err := geomap.Build(table, geomap.Options{
		SampleSize: *sampleSize,
		Seed:       uint64(*seed),
		Zoom:       *zoom,
		TileURL:    r.cfg.Map.TileURL,
	})
	if err != nil {
		return fmt.Errorf("build map: %w", err)
	}

	if err := writeWith(*out, func(f *os.File) error { return m.WriteHTML(f, "") }); err != nil {
		return err
	}
	if *geoJSON != "" {
		raw, err := m.GeoJSON()
		if err != nil {
			return fmt.Errorf("encode geojson: %w", err)
		}
		if err := writeWith(*geoJSON, func(f *os.File) error { _, err := f.Write(raw); return err }); err != nil {
			return err
		}
	}

	r.log.InfoContext(ctx, "map rendered",
		slog.String("out", *out),
		slog.Int("markers", len(m.Markers)),
		slog.Int("lines", len(m.Lines)),
	)
	_, _ = fmt.Fprintf(r.stdout, "wrote map with %d markers to %s\n", len(m.Markers), *out)
	return nil
}

func runSlides(ctx context.Context, r *runner, args []string) error {
	fs := r.flagSet("slides")
	out := fs.String("out", "slides", "directory for the slideshow")
	embed := fs.Bool("embed", r.cfg.Slides.MediaEmbed, "inline slide media into the HTML page")
	if err := parse(fs, args); err != nil {
		return err
	}

	presentation := slides.CircleToSquare(slides.Config{MediaEmbed: *embed})
	written, err := slides.RenderFiles(*out, presentation)
	if err != nil {
		return err
	}
	r.log.InfoContext(ctx, "slides rendered",
		slog.String("presentation", presentation.Name),
		slog.Int("files", len(written)),
	)
	for _, path := range written {
		_, _ = fmt.Fprintln(r.stdout, path)
	}
	return nil
}

func writeWith(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir for %q: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	return nil
}
