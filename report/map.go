/*
Copyright © 2023 the ptsrc authors.
This file is part of ptsrc.

ptsrc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ptsrc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ptsrc.  If not, see <http://www.gnu.org/licenses/>.
*/

package report

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/spatialmodel/ptsrc"
	"github.com/spatialmodel/ptsrc/conc"
	"github.com/spatialmodel/ptsrc/spatial"
)

// PM25 selects the PM2.5 concentration of a receptor.
func PM25(v conc.Value) float64 { return v.PM25 }

// CancerRisk selects the cancer risk of a receptor.
func CancerRisk(v conc.Value) float64 { return v.CancerRisk }

// MapOptions control how a field is drawn by WriteMap.
type MapOptions struct {
	// Title is the page title.
	Title string

	// Label names the mapped variable in tooltips.
	Label string

	// Value selects the variable to map.
	Value func(conc.Value) float64

	// Receptors with values at or below Threshold are not drawn.
	Threshold float64

	// VMax, if not nil, is the value at the top of the color scale.
	// Larger values get the top color. Otherwise the scale extends to
	// the largest value drawn.
	VMax *float64

	// Projection is the projection of the receptor locations.
	Projection string

	// Radius is the radius of each receptor circle [m].
	Radius float64
}

type mapData struct {
	Title, Label string
	Radius       float64
	Features     []*carto.GeoJSONfeature
	Colors       []string
}

// valueProp is the GeoJSON property holding the mapped value and
// indexProp the one holding the feature's position in the color list.
const (
	valueProp = "value"
	indexProp = "index"
)

// WriteMap writes an interactive Leaflet map of field f to w as an HTML
// page.
func WriteMap(w io.Writer, f conc.Field, o MapOptions) error {
	if o.Value == nil {
		return fmt.Errorf("report: no map variable selected")
	}
	if o.Radius <= 0 {
		o.Radius = 25
	}
	var pts []geom.Point
	var vals []float64
	for _, l := range f.Locations() {
		v := o.Value(f[l])
		if !(v > o.Threshold) {
			continue
		}
		pts = append(pts, geom.Point{X: l.X, Y: l.Y})
		vals = append(vals, v)
	}
	if len(pts) > 0 {
		ct, err := spatial.NewTransform(o.Projection, ptsrc.WGS84)
		if err != nil {
			return err
		}
		if pts, err = spatial.Reproject(pts, ct); err != nil {
			return err
		}
	}

	top := 0.
	if o.VMax != nil {
		top = *o.VMax
	} else {
		for _, v := range vals {
			top = math.Max(top, v)
		}
	}
	cmap := carto.NewColorMap(carto.Linear)
	cmap.AddArray([]float64{0, top})
	cmap.Set()

	d := mapData{
		Title:    o.Title,
		Label:    o.Label,
		Radius:   o.Radius,
		Features: make([]*carto.GeoJSONfeature, len(pts)),
		Colors:   make([]string, len(pts)),
	}
	for i, p := range pts {
		g, err := geojson.ToGeoJSON(p)
		if err != nil {
			return fmt.Errorf("report: %v", err)
		}
		d.Features[i] = &carto.GeoJSONfeature{
			Type:       "Feature",
			Geometry:   g,
			Properties: map[string]float64{valueProp: vals[i], indexProp: float64(i)},
		}
		c := cmap.GetColor(math.Max(0, math.Min(vals[i], top)))
		d.Colors[i] = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	if err := mapTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("report: writing map: %v", err)
	}
	return nil
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var features = {{.Features}};
var colors = {{.Colors}};
var label = {{.Label}};
var map = L.map("map");
L.tileLayer("https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png", {
	attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
	subdomains: "abcd",
	maxZoom: 20
}).addTo(map);
var layer = L.geoJSON({type: "FeatureCollection", features: features || []}, {
	pointToLayer: function(f, latlng) {
		return L.circle(latlng, {
			radius: {{.Radius}},
			stroke: false,
			fill: true,
			fillColor: colors[f.properties.index],
			fillOpacity: 0.7
		}).bindTooltip(label + ": " + f.properties.value.toPrecision(4));
	}
}).addTo(map);
if (layer.getLayers().length > 0) {
	map.fitBounds(layer.getBounds());
} else {
	map.setView([0, 0], 2);
}
</script>
</body>
</html>
`))
