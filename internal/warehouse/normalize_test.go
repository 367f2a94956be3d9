package warehouse

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestNormalizeTimestampsDropsZoneKeepsWallClock(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	booked := time.Date(2026, time.March, 4, 23, 15, 30, 0, time.UTC)
	table := Table{
		Columns: []Column{
			{Name: "booking_time", Type: TypeTimestamp},
			{Name: "booking_number", Type: TypeString},
			{Name: "local_time", Type: TypeTimestamp},
		},
		Rows: [][]any{
			{booked, "B-1", booked.In(jakarta)},
			{nil, "B-2", nil},
		},
	}

	got := NormalizeTimestamps(table)

	if got.Columns[0].Type != TypeDateTime || got.Columns[2].Type != TypeDateTime {
		t.Fatalf("column types = %+v", got.Columns)
	}
	if got.Columns[1].Type != TypeString {
		t.Fatalf("string column type changed: %q", got.Columns[1].Type)
	}
	naive, ok := got.Rows[0][0].(civil.DateTime)
	if !ok {
		t.Fatalf("row[0][0] = %#v, want civil.DateTime", got.Rows[0][0])
	}
	if naive.String() != booked.Format("2006-01-02T15:04:05") {
		t.Fatalf("naive = %s, zoned = %s", naive, booked.Format("2006-01-02T15:04:05"))
	}
	if got.Rows[0][2] != civil.DateTimeOf(booked) {
		t.Fatalf("non-UTC instant = %#v, want UTC wall clock %s", got.Rows[0][2], civil.DateTimeOf(booked))
	}
	if got.Rows[1][0] != nil {
		t.Fatalf("null timestamp = %#v", got.Rows[1][0])
	}

	if table.Columns[0].Type != TypeTimestamp {
		t.Fatal("input columns were mutated")
	}
	if _, ok := table.Rows[0][0].(time.Time); !ok {
		t.Fatal("input rows were mutated")
	}
}

func TestNormalizeTimestampsRoundTripsDisplayedValue(t *testing.T) {
	instants := []time.Time{
		time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC),
		time.Date(2025, time.December, 31, 23, 59, 59, 123456000, time.UTC),
		time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
	}
	for _, instant := range instants {
		table := Table{Columns: []Column{{Name: "ts", Type: TypeTimestamp}}, Rows: [][]any{{instant}}}
		naive := NormalizeTimestamps(table).Rows[0][0].(civil.DateTime)

		zonedDisplay := instant.Format("2006-01-02 15:04:05.000000")
		naiveDisplay := naive.In(time.UTC).Format("2006-01-02 15:04:05.000000")
		if zonedDisplay != naiveDisplay {
			t.Fatalf("display mismatch: zoned %s naive %s", zonedDisplay, naiveDisplay)
		}
	}
}

func TestNormalizeTimestampsWithoutZonedColumnsIsIdentity(t *testing.T) {
	table := Table{Columns: []Column{{Name: "x", Type: TypeInt64}}, Rows: [][]any{{int64(1)}}}
	got := NormalizeTimestamps(table)
	if got.Rows[0][0] != int64(1) || got.Columns[0].Type != TypeInt64 {
		t.Fatalf("NormalizeTimestamps() = %+v", got)
	}
}
