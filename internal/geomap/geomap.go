// Package geomap turns pickup discrepancy rows into an interactive map of
// booking, driver and AOI adjusted pickup points.
package geomap

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pickuplens/pickuplens/internal/observability"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

const (
	DefaultSampleSize = 100
	DefaultSeed       = 42
	DefaultZoom       = 5
	DefaultTileURL    = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	lineWeight        = 2
)

// Columns read from every sampled row.
const (
	ColumnBookingNumber         = "booking_number"
	ColumnBookingLatitude       = "booking_pickup_latitude"
	ColumnBookingLongitude      = "booking_pickup_longitude"
	ColumnDriverLatitude        = "driver_pickup_latitude"
	ColumnDriverLongitude       = "driver_pickup_longitude"
	ColumnAdjustedLatitude      = "aoi_adjusted_booking_pickup_latitude"
	ColumnAdjustedLongitude     = "aoi_adjusted_booking_pickup_longitude"
	ColumnPickupDistanceError   = "pickup_distance_error"
	ColumnAdjustedDistanceError = "aoi_adjusted_pickup_distance_error"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Marker struct {
	Position LatLng `json:"position"`
	Popup    string `json:"popup"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
}

type Line struct {
	From    LatLng `json:"from"`
	To      LatLng `json:"to"`
	Color   string `json:"color"`
	Weight  int    `json:"weight"`
	Tooltip string `json:"tooltip"`
}

type Map struct {
	Center  LatLng
	Zoom    int
	TileURL string
	Markers []Marker
	Lines   []Line
}

type Options struct {
	SampleSize int
	Seed       uint64
	Zoom       int
	TileURL    string
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.Zoom <= 0 {
		o.Zoom = DefaultZoom
	}
	if o.TileURL == "" {
		o.TileURL = DefaultTileURL
	}
	return o
}

// Sample draws exactly size distinct rows when the table is larger than
// size, in an order fixed by seed. Smaller tables are copied whole.
func Sample(table warehouse.Table, size int, seed uint64) warehouse.Table {
	if size < 0 {
		size = 0
	}
	if table.NumRows() <= size {
		return table.Select(identity(table.NumRows()))
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	return table.Select(rng.Perm(table.NumRows())[:size])
}

func identity(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Build samples the table and lays out three markers and two lines per row.
func Build(table warehouse.Table, opts Options) (*Map, error) {
	opts = opts.withDefaults()
	sampled := Sample(table, opts.SampleSize, opts.Seed)

	cols, err := resolveColumns(sampled)
	if err != nil {
		return nil, err
	}

	m := &Map{
		Zoom:    opts.Zoom,
		TileURL: opts.TileURL,
		Markers: make([]Marker, 0, 3*sampled.NumRows()),
		Lines:   make([]Line, 0, 2*sampled.NumRows()),
	}
	var sumLat, sumLng float64
	for rowIndex, row := range sampled.Rows {
		booking, err := cols.point(row, cols.bookingLat, cols.bookingLng)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIndex, err)
		}
		driver, err := cols.point(row, cols.driverLat, cols.driverLng)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIndex, err)
		}
		adjusted, err := cols.point(row, cols.adjustedLat, cols.adjustedLng)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIndex, err)
		}
		sumLat += booking.Lat
		sumLng += booking.Lng

		m.Markers = append(m.Markers,
			Marker{Position: booking, Popup: "Booking: " + warehouse.FormatValue(row[cols.bookingNumber]), Color: "blue", Icon: "info-sign"},
			Marker{Position: driver, Popup: "Driver", Color: "green", Icon: "car"},
			Marker{Position: adjusted, Popup: "AOI Adjusted", Color: "red", Icon: "info-sign"},
		)
		m.Lines = append(m.Lines,
			Line{From: booking, To: driver, Color: "blue", Weight: lineWeight,
				Tooltip: "Pickup Distance Error: " + formatError(row[cols.pickupError])},
			Line{From: adjusted, To: driver, Color: "red", Weight: lineWeight,
				Tooltip: "AOI Adjusted Distance Error: " + formatError(row[cols.adjustedError])},
		)
	}
	if n := sampled.NumRows(); n > 0 {
		m.Center = LatLng{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}
	}

	observability.ObserveMapFeatures(len(m.Markers), len(m.Lines))
	return m, nil
}

type columns struct {
	bookingNumber int
	bookingLat    int
	bookingLng    int
	driverLat     int
	driverLng     int
	adjustedLat   int
	adjustedLng   int
	pickupError   int
	adjustedError int
	names         []string
}

func resolveColumns(table warehouse.Table) (columns, error) {
	var missing []string
	lookup := func(name string) int {
		index := table.ColumnIndex(name)
		if index < 0 {
			missing = append(missing, name)
		}
		return index
	}
	cols := columns{
		bookingNumber: lookup(ColumnBookingNumber),
		bookingLat:    lookup(ColumnBookingLatitude),
		bookingLng:    lookup(ColumnBookingLongitude),
		driverLat:     lookup(ColumnDriverLatitude),
		driverLng:     lookup(ColumnDriverLongitude),
		adjustedLat:   lookup(ColumnAdjustedLatitude),
		adjustedLng:   lookup(ColumnAdjustedLongitude),
		pickupError:   lookup(ColumnPickupDistanceError),
		adjustedError: lookup(ColumnAdjustedDistanceError),
		names:         table.ColumnNames(),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("missing map columns: %v", missing)
	}
	return cols, nil
}

func (c columns) point(row []any, lat, lng int) (LatLng, error) {
	latValue, err := c.coordinate(row, lat)
	if err != nil {
		return LatLng{}, err
	}
	lngValue, err := c.coordinate(row, lng)
	if err != nil {
		return LatLng{}, err
	}
	return LatLng{Lat: latValue, Lng: lngValue}, nil
}

func (c columns) coordinate(row []any, index int) (float64, error) {
	value, ok := warehouse.AsFloat64(row[index])
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("column %q: invalid coordinate %v", c.names[index], row[index])
	}
	return value, nil
}

// formatError prints a distance error with two decimals; NULL prints as nan.
func formatError(value any) string {
	f, ok := warehouse.AsFloat64(value)
	if !ok {
		return "nan"
	}
	return fmt.Sprintf("%.2f", f)
}
