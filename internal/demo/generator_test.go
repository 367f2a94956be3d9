package demo

import (
	"math"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	fixedNow := time.Date(2026, 10, 17, 7, 30, 0, 0, time.UTC)

	g1 := NewGenerator(42)
	g2 := NewGenerator(42)
	g1.now = func() time.Time { return fixedNow }
	g2.now = func() time.Time { return fixedNow }

	for i := 0; i < 5; i++ {
		r1 := g1.NextRow()
		r2 := g2.NextRow()
		if !reflect.DeepEqual(r1, r2) {
			t.Fatalf("row %d differs: %#v vs %#v", i, r1, r2)
		}
	}
}

func TestTableMatchesDiscrepancyFilter(t *testing.T) {
	fixedNow := time.Date(2026, 10, 17, 7, 30, 0, 0, time.UTC)
	g := NewGenerator(7)
	g.now = func() time.Time { return fixedNow }

	table := g.Table(200)
	if table.NumRows() != 200 || len(table.Columns) != len(Columns) {
		t.Fatalf("table = %d rows, %d columns", table.NumRows(), len(table.Columns))
	}

	seen := map[string]bool{}
	for i := range table.Rows {
		row := rowMap(table.ColumnNames(), table.Rows[i])
		number := row["booking_number"].(string)
		if seen[number] {
			t.Fatalf("duplicate booking number %s", number)
		}
		seen[number] = true

		pickupError := row["pickup_distance_error"].(float64)
		adjustedError := row["aoi_adjusted_pickup_distance_error"].(float64)
		if adjustedError-pickupError <= 50 {
			t.Fatalf("row %d: errors %.2f / %.2f do not pass the filter", i, pickupError, adjustedError)
		}
		if row["booking_pickup_latitude"] == row["aoi_adjusted_booking_pickup_latitude"] {
			t.Fatalf("row %d: adjusted latitude equals booking latitude", i)
		}

		bookedAt := row["booking_time"].(civil.DateTime).In(time.UTC)
		if age := fixedNow.Sub(bookedAt); age < 24*time.Hour || age > 49*time.Hour {
			t.Fatalf("row %d: booking age %s outside the last two days", i, age)
		}
	}
}

func TestHaversineAndOffsetAgree(t *testing.T) {
	lat, lng := offset(-6.2088, 106.8456, 250, math.Pi/3)
	if d := haversine(-6.2088, 106.8456, lat, lng); math.Abs(d-250) > 0.01 {
		t.Fatalf("distance = %f, want 250", d)
	}
}

func rowMap(names []string, values []any) map[string]any {
	out := make(map[string]any, len(names))
	for i, name := range names {
		out[name] = values[i]
	}
	return out
}
