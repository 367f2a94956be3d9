package sqlload

import (
	"strings"
	"testing"
)

func TestPickupDiscrepanciesPreset(t *testing.T) {
	if names := PresetNames(); len(names) != 1 || names[0] != "pickup-discrepancies" {
		t.Fatalf("PresetNames() = %v", names)
	}
	preset, err := LookupPreset("pickup-discrepancies")
	if err != nil {
		t.Fatalf("LookupPreset() error = %v", err)
	}
	text, err := preset.Source.read()
	if err != nil {
		t.Fatalf("read() error = %v", err)
	}
	query, err := Render(text, preset.Params(map[string]any{"min_error_delta": "75"}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{
		"from `cartography-integration.operation.detail_places_booking_transport`",
		"between current_date() - 2 and current_date() - 1",
		"aoi_adjusted_pickup_distance_error - pickup_distance_error > 75",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("query missing %q:\n%s", want, query)
		}
	}
	if strings.HasPrefix(query, "\n") || strings.Contains(query, "/*") {
		t.Fatalf("template comment leaked into query:\n%s", query)
	}
	if preset.Defaults["min_error_delta"] != 50 {
		t.Fatal("Params() mutated preset defaults")
	}

	if _, err := LookupPreset("nope"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}
