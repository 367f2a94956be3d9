package geomap

import (
	"encoding/json"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection exports markers as Points and lines as LineStrings, in
// [lng, lat] order.
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	collection := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(m.Markers)+len(m.Lines)),
	}
	for _, marker := range m.Markers {
		collection.Features = append(collection.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{marker.Position.Lng, marker.Position.Lat}),
			Properties: map[string]interface{}{
				"kind":  "marker",
				"popup": marker.Popup,
				"color": marker.Color,
				"icon":  marker.Icon,
			},
		})
	}
	for _, line := range m.Lines {
		collection.Features = append(collection.Features, &geojson.Feature{
			Geometry: geom.NewLineStringFlat(geom.XY, []float64{line.From.Lng, line.From.Lat, line.To.Lng, line.To.Lat}),
			Properties: map[string]interface{}{
				"kind":    "line",
				"tooltip": line.Tooltip,
				"color":   line.Color,
				"weight":  line.Weight,
			},
		})
	}
	return collection
}

func (m *Map) GeoJSON() ([]byte, error) {
	return json.Marshal(m.FeatureCollection())
}
