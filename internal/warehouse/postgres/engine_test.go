package postgres

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pickuplens/pickuplens/internal/warehouse"
)

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DBConfig{})
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestQueryScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	engine := NewEngine(db)

	rows := mock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("booking_number").OfType("VARCHAR", ""),
		sqlmock.NewColumn("aoi_adjusted_pickup_distance_error").OfType("NUMERIC", ""),
	).AddRow("B-1", "120.75")
	mock.ExpectQuery(`SELECT booking_number`).WillReturnRows(rows)
	mock.ExpectClose()

	table, err := engine.Query(context.Background(), "SELECT booking_number, aoi_adjusted_pickup_distance_error FROM bookings")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if table.Columns[1].Type != warehouse.TypeNumeric {
		t.Fatalf("type = %q", table.Columns[1].Type)
	}
	value, ok := table.Rows[0][1].(*big.Rat)
	if !ok || value.FloatString(2) != "120.75" {
		t.Fatalf("numeric = %#v", table.Rows[0][1])
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet() error = %v", err)
	}
}

func TestQueryPropagatesDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	driverErr := errors.New(`relation "bookings" does not exist`)
	mock.ExpectQuery("SELECT").WillReturnError(driverErr)

	_, err = NewEngine(db).Query(context.Background(), "SELECT * FROM bookings")
	if !errors.Is(err, driverErr) {
		t.Fatalf("Query() error = %v, want %v", err, driverErr)
	}
}
