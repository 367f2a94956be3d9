package storage

import (
	"testing"
	"time"
)

func TestBuildSnapshotKey(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 23, 5, 9, 0, time.FixedZone("x", -5*3600))
	key, err := BuildSnapshotKey("transport_booking", ts, ".feather")
	if err != nil {
		t.Fatalf("BuildSnapshotKey() error = %v", err)
	}
	want := "transport_booking/date=2026-02-20/transport_booking-040509.feather"
	if key != want {
		t.Fatalf("BuildSnapshotKey() = %q, want %q", key, want)
	}
}

func TestBuildSnapshotKeyRejectsInvalidComponents(t *testing.T) {
	if _, err := BuildSnapshotKey("../etc", time.Now(), "feather"); err == nil {
		t.Fatal("expected error for invalid dataset")
	}
	if _, err := BuildSnapshotKey("bookings", time.Now(), ""); err == nil {
		t.Fatal("expected error for empty extension")
	}
}
