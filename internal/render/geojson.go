package render

import (
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON converts each forecast area back to lon/lat through the forecast's
// region and canvas. Areas become Polygon features; reports, if attached,
// become Point features.
func GeoJSON(f domain.Forecast) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	box := f.Region().Bounds
	w, h := float64(f.Canvas.Width), float64(f.Canvas.Height)

	for _, a := range f.Areas {
		ring := make(orb.Ring, 0, len(a.Path)+1)
		for _, p := range a.Path {
			lat, lon := domain.Unproject(p, box, w, h)
			ring = append(ring, orb.Point{lon, lat})
		}
		if len(ring) > 0 && !ring.Closed() {
			ring = append(ring, ring[0])
		}
		// GeoJSON exterior rings wind counter-clockwise.
		if ring.Orientation() == orb.CW {
			ring.Reverse()
		}

		feat := geojson.NewFeature(orb.Polygon{ring})
		feat.Properties["kind"] = "area"
		feat.Properties["hazard"] = a.Hazard.String()
		feat.Properties["probability"] = a.Probability
		feat.Properties["significant"] = a.Significant
		feat.Properties["label"] = Label(a)
		feat.Properties["color"] = ProbabilityColor(a.Probability)
		fc.Append(feat)
	}

	for _, hz := range domain.Hazards {
		for _, o := range f.Reports[hz] {
			feat := geojson.NewFeature(orb.Point{o.Lon, o.Lat})
			feat.Properties["kind"] = "report"
			feat.Properties["hazard"] = hz.String()
			feat.Properties["magnitude"] = o.Magnitude
			feat.Properties["location"] = o.Location
			feat.Properties["significant"] = o.Significant
			fc.Append(feat)
		}
	}
	return fc
}
