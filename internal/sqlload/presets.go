package sqlload

import (
	"embed"
	"fmt"
	"maps"
	"slices"
)

//go:embed presets/*.sql
var presetFS embed.FS

type Preset struct {
	Name     string
	Source   Source
	Defaults map[string]any
}

var presets = map[string]struct {
	file     string
	defaults map[string]any
}{
	"pickup-discrepancies": {
		file: "presets/pickup_discrepancies.sql",
		defaults: map[string]any{
			"table":           "cartography-integration.operation.detail_places_booking_transport",
			"from_days":       2,
			"to_days":         1,
			"min_error_delta": 50,
		},
	},
}

func PresetNames() []string {
	return slices.Sorted(maps.Keys(presets))
}

func LookupPreset(name string) (Preset, error) {
	entry, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	raw, err := presetFS.ReadFile(entry.file)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset %q: %w", name, err)
	}
	return Preset{Name: name, Source: Inline{Text: string(raw)}, Defaults: maps.Clone(entry.defaults)}, nil
}

// Params overlays overrides on the preset defaults.
func (p Preset) Params(overrides map[string]any) map[string]any {
	params := maps.Clone(p.Defaults)
	if params == nil {
		params = map[string]any{}
	}
	maps.Copy(params, overrides)
	return params
}
