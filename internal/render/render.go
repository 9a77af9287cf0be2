// Package render turns forecasts into drawing primitives for the canvas and
// into GeoJSON for map tools. It decides nothing about scoring.
package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
)

const (
	// HatchSpacing is the horizontal distance between significant-area hatch lines.
	HatchSpacing = 8.0
	// StrokeWidth is the outline width of every area.
	StrokeWidth = 2
	// FillAlpha is appended to the stroke color to make the translucent fill.
	FillAlpha = "50"

	labelColor = "#000"
	hatchColor = "#000"
	unknownHex = "#808080"
)

var probabilityColors = map[int]string{
	2:  "#008B00",
	5:  "#8B4513",
	10: "#FFD700",
	15: "#FF8C00",
	30: "#FF0000",
	45: "#FF00FF",
	60: "#8B008B",
}

// SPC map convention.
var reportColors = map[domain.Hazard]string{
	domain.Tornado: "#FF0000",
	domain.Wind:    "#0000FF",
	domain.Hail:    "#00A000",
}

// ProbabilityColor returns the outline color for a probability level.
func ProbabilityColor(p int) string {
	if c, ok := probabilityColors[p]; ok {
		return c
	}
	return unknownHex
}

// TextColor is the legend text color that stays readable on a level's color.
func TextColor(p int) string {
	if p >= 30 {
		return "#fff"
	}
	return "#000"
}

// Line is a straight segment in canvas space.
type Line struct {
	From domain.Point2D `json:"from"`
	To   domain.Point2D `json:"to"`
}

// AreaGraphic is everything needed to draw one forecast area.
type AreaGraphic struct {
	Hazard      domain.Hazard    `json:"hazard"`
	Probability int              `json:"probability"`
	Significant bool             `json:"significant"`
	Path        []domain.Point2D `json:"path"`
	Fill        string           `json:"fill"`
	Stroke      string           `json:"stroke"`
	StrokeWidth int              `json:"stroke_width"`
	Label       string           `json:"label"`
	LabelAt     domain.Point2D   `json:"label_at"`
	LabelColor  string           `json:"label_color"`
	// Hatch lines cover the bounding box; clip them to Path when drawing.
	Hatch      []Line `json:"hatch,omitempty"`
	HatchColor string `json:"hatch_color,omitempty"`
}

// ReportMarker is one observation placed on the canvas.
type ReportMarker struct {
	Hazard      domain.Hazard  `json:"hazard"`
	At          domain.Point2D `json:"at"`
	Color       string         `json:"color"`
	Significant bool           `json:"significant"`
	Magnitude   string         `json:"magnitude"`
	Location    string         `json:"location"`
}

// Scene is a whole forecast ready to draw, areas in paint order.
type Scene struct {
	ForecastID string            `json:"forecast_id"`
	Canvas     domain.CanvasSize `json:"canvas_size"`
	Region     domain.Region     `json:"region"`
	Areas      []AreaGraphic     `json:"areas"`
	Reports    []ReportMarker    `json:"reports"`
}

// Label is the area caption: hazard letter, probability and a trailing
// asterisk when significant, e.g. "T15%*".
func Label(a domain.ForecastArea) string {
	var b strings.Builder
	b.WriteString(a.Hazard.Spec().Letter)
	fmt.Fprintf(&b, "%d%%", a.Probability)
	if a.Significant {
		b.WriteByte('*')
	}
	return b.String()
}

// Hatch returns diagonal lines every HatchSpacing pixels across the ring's
// bounding box, each rising one box height to the right.
func Hatch(ring []domain.Point2D) []Line {
	b, ok := domain.BoundsOf(ring)
	if !ok {
		return nil
	}
	h := b.MaxY - b.MinY
	if h <= 0 {
		return nil
	}
	n := int(math.Ceil((b.MaxX + h - (b.MinX - h)) / HatchSpacing))
	lines := make([]Line, 0, n)
	for x := b.MinX - h; x < b.MaxX+h; x += HatchSpacing {
		lines = append(lines, Line{
			From: domain.Point2D{X: x, Y: b.MinY},
			To:   domain.Point2D{X: x + h, Y: b.MaxY},
		})
	}
	return lines
}

// Areas builds graphics sorted by probability ascending so higher
// probabilities paint on top. Ties keep drawing order.
func Areas(areas []domain.ForecastArea) []AreaGraphic {
	sorted := append([]domain.ForecastArea(nil), areas...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability < sorted[j].Probability
	})

	out := make([]AreaGraphic, 0, len(sorted))
	for _, a := range sorted {
		if len(a.Path) < 3 {
			continue
		}
		color := ProbabilityColor(a.Probability)
		g := AreaGraphic{
			Hazard:      a.Hazard,
			Probability: a.Probability,
			Significant: a.Significant,
			Path:        append([]domain.Point2D(nil), a.Path...),
			Fill:        color + FillAlpha,
			Stroke:      color,
			StrokeWidth: StrokeWidth,
			Label:       Label(a),
			LabelAt:     domain.CentroidOf(a.Path),
			LabelColor:  labelColor,
		}
		if a.Significant {
			g.Hatch = Hatch(a.Path)
			g.HatchColor = hatchColor
		}
		out = append(out, g)
	}
	return out
}

// ForecastScene renders a forecast and, once verified, the reports it was
// scored against.
func ForecastScene(f domain.Forecast) Scene {
	s := Scene{
		ForecastID: f.ID,
		Canvas:     f.Canvas,
		Region:     f.Region(),
		Areas:      Areas(f.Areas),
		Reports:    []ReportMarker{},
	}
	for _, h := range domain.Hazards {
		for _, o := range f.Reports[h] {
			s.Reports = append(s.Reports, ReportMarker{
				Hazard:      h,
				At:          f.Project(o.Lat, o.Lon),
				Color:       reportColors[h],
				Significant: o.Significant,
				Magnitude:   o.Magnitude,
				Location:    o.Location,
			})
		}
	}
	return s
}

// LegendEntry is one probability button of a hazard's ladder.
type LegendEntry struct {
	Probability int    `json:"probability"`
	Color       string `json:"color"`
	TextColor   string `json:"text_color"`
}

// Legend returns the colored ladder for a hazard.
func Legend(h domain.Hazard) []LegendEntry {
	ladder := h.Spec().Ladder
	out := make([]LegendEntry, len(ladder))
	for i, p := range ladder {
		out[i] = LegendEntry{Probability: p, Color: ProbabilityColor(p), TextColor: TextColor(p)}
	}
	return out
}
