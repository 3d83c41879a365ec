package render

import "html/template"

var mapTemplate = template.Must(template.New("map").Parse(mapTemplateHTML))

var indexTemplate = template.Must(template.New("index").Parse(indexTemplateHTML))

const mapTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body { height: 100%; margin: 0; }
  #map { height: 100%; }
  .legend {
    position: fixed; top: 10px; left: 50px; width: 220px;
    background-color: white; border: 2px solid grey; z-index: 9999;
    font-size: 12px; padding: 10px; border-radius: 5px;
    font-family: sans-serif;
  }
  .legend h4 { margin-top: 0; }
  .legend p { margin: 4px 0; }
  .legend .swatch { font-size: 20px; vertical-align: middle; }
  .legend .indent { padding-left: 10px; }
  .legend hr { margin: 8px 0; }
</style>
</head>
<body>
<div id="map"></div>
<div class="legend">
  <h4>Green Spaces - {{.RegionName}}</h4>
{{- range .Legend}}
  <p><span class="swatch" style="color:{{.Fill}};">&#9632;</span> {{.Label}}</p>
{{- end}}
  <hr>
  <p><strong>Total Spaces:</strong> {{.TotalSpaces}}</p>
  <p><strong>With geometry:</strong> {{.WithGeometry}}</p>
  <p><strong>Markers only:</strong> {{.MarkersOnly}}</p>
  <hr>
  <p><strong>Total Area:</strong></p>
  <p class="indent">{{.TotalAreaM2}} m&sup2;</p>
  <p class="indent">{{.TotalAreaKm2}} km&sup2;</p>
  <p><strong>Total Green Area:</strong></p>
  <p class="indent">{{.GreenAreaM2}} m&sup2;</p>
  <p class="indent">{{.GreenAreaKm2}} km&sup2;</p>
  <p><strong>Overall Green Area: {{.GreenPercent}}</strong></p>
  <p><strong>Green Space per Person: {{.PerCapitaSqM}} m&sup2;</strong></p>
  <p><strong>Population: {{.Population}}</strong></p>
</div>
<script>
var map = L.map('map', { zoomControl: true }).setView([{{.CenterLat}}, {{.CenterLon}}], 13);
L.control.scale().addTo(map);

var osm = L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors'
}).addTo(map);

var carto = L.tileLayer('https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png', {
  maxZoom: 19,
  attribution: '&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>'
});

var data = {{.GeoJSON}};

function esc(s) {
  return String(s).replace(/&/g, '&amp;').replace(/</g, '&lt;').replace(/>/g, '&gt;');
}

function popupHTML(p) {
  var areaText = p.area_sq_m > 0
    ? Math.round(p.area_sq_m).toLocaleString() + ' m&sup2;'
    : 'Not calculated';
  return '<div style="min-width: 250px">'
    + '<h4>' + esc(p.name) + '</h4>'
    + '<b>Type:</b> ' + esc(p.type) + '<br>'
    + '<b>OSM ID:</b> ' + p.osm_id + '<br>'
    + '<b>Area:</b> ' + areaText + '<br><br>'
    + '<a href="https://www.openstreetmap.org/' + esc(p.osm_type) + '/' + p.osm_id
    + '" target="_blank">View on OpenStreetMap</a>'
    + '</div>';
}

var polygonGroup = L.featureGroup();
var markerGroup = L.featureGroup();

L.geoJSON(data, {
  style: function (feature) {
    var p = feature.properties;
    return { color: p.border, fillColor: p.fill, fillOpacity: 0.6, weight: 3, opacity: 1.0 };
  },
  pointToLayer: function (feature, latlng) {
    return L.marker(latlng);
  },
  onEachFeature: function (feature, layer) {
    var p = feature.properties;
    layer.bindPopup(popupHTML(p), { maxWidth: 300 });
    layer.bindTooltip(p.name + ' (' + p.type + ')');
    if (p.marker) {
      markerGroup.addLayer(layer);
    } else {
      polygonGroup.addLayer(layer);
    }
  }
});

polygonGroup.addTo(map);
markerGroup.addTo(map);

L.control.layers(
  { 'OpenStreetMap': osm, 'CartoDB Positron': carto },
  { 'Green Space Areas': polygonGroup, 'Markers (no geometry)': markerGroup },
  { position: 'topright' }
).addTo(map);
</script>
</body>
</html>
`

const indexTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Green Space Coverage</title>
<style>
  body { font-family: sans-serif; margin: 2em auto; max-width: 720px; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #ccc; padding: 8px 12px; text-align: left; }
  th { background: #f0f5f0; }
  td.num { text-align: right; }
</style>
</head>
<body>
<h1>Green Space Coverage</h1>
<table>
  <tr>
    <th>Region</th><th>Spaces</th><th>Green Area (km&sup2;)</th>
    <th>Green Fraction</th><th>Per Person (m&sup2;)</th><th>Population</th>
  </tr>
{{- range .Regions}}
  <tr>
    <td><a href="{{.Artifact}}">{{.Name}}</a></td>
    <td class="num">{{.SpaceCount}}</td>
    <td class="num">{{.GreenAreaKm2}}</td>
    <td class="num">{{.GreenPercent}}</td>
    <td class="num">{{.PerCapitaSqM}}</td>
    <td class="num">{{.Population}}</td>
  </tr>
{{- end}}
</table>
</body>
</html>
`
