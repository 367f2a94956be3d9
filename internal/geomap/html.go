package geomap

import (
	"fmt"
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{ .Title }}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/Leaflet.awesome-markers/2.0.2/leaflet.awesome-markers.css">
<link rel="stylesheet" href="https://netdna.bootstrapcdn.com/bootstrap/3.0.0/css/bootstrap-glyphicons.css">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@fortawesome/fontawesome-free@6.2.0/css/all.min.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/Leaflet.awesome-markers/2.0.2/leaflet.awesome-markers.js"></script>
<style>html, body, #map { width: 100%; height: 100%; margin: 0; padding: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var center = {{ .Center }};
var markers = {{ .Markers }};
var lines = {{ .Lines }};
function textNode(text) {
  var el = document.createElement("span");
  el.textContent = text;
  return el;
}
var map = L.map("map").setView([center.lat, center.lng], {{ .Zoom }});
L.tileLayer({{ .TileURL }}, {maxZoom: 19, attribution: "&copy; OpenStreetMap contributors"}).addTo(map);
markers.forEach(function (m) {
  var prefix = m.icon === "car" ? "fa" : "glyphicon";
  L.marker([m.position.lat, m.position.lng], {
    icon: L.AwesomeMarkers.icon({icon: m.icon, markerColor: m.color, prefix: prefix})
  }).bindPopup(textNode(m.popup)).addTo(map);
});
lines.forEach(function (l) {
  L.polyline([[l.from.lat, l.from.lng], [l.to.lat, l.to.lng]], {color: l.color, weight: l.weight})
    .bindTooltip(textNode(l.tooltip)).addTo(map);
});
</script>
</body>
</html>
`))

type page struct {
	Title   string
	Center  LatLng
	Zoom    int
	TileURL string
	Markers []Marker
	Lines   []Line
}

// WriteHTML renders a standalone Leaflet page for the map.
func (m *Map) WriteHTML(w io.Writer, title string) error {
	if title == "" {
		title = "Pickup discrepancies"
	}
	markers := m.Markers
	if markers == nil {
		markers = []Marker{}
	}
	lines := m.Lines
	if lines == nil {
		lines = []Line{}
	}
	err := pageTemplate.Execute(w, page{
		Title:   title,
		Center:  m.Center,
		Zoom:    m.Zoom,
		TileURL: m.TileURL,
		Markers: markers,
		Lines:   lines,
	})
	if err != nil {
		return fmt.Errorf("render map html: %w", err)
	}
	return nil
}
