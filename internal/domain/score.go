package domain

import "math"

// SignificantBonus is added for a significant area verified by a significant report.
const SignificantBonus = 50

// CategoryScore tallies one hazard's reports against that hazard's areas.
type CategoryScore struct {
	Hits            int `json:"hits"`
	Misses          int `json:"misses"`
	FalseAlarms     int `json:"false_alarms"`
	Total           int `json:"total"`
	SignificantHits int `json:"significant_hits"`
	// InRegion counts reports inside the forecast region's lat/lon box.
	InRegion int `json:"in_region"`
}

// AreaOutcome is how a single area fared.
type AreaOutcome struct {
	Hazard            Hazard  `json:"hazard"`
	Probability       int     `json:"probability"`
	Significant       bool    `json:"significant"`
	Observed          bool    `json:"observed"`
	ReportsInside     int     `json:"reports_inside"`
	SignificantInside bool    `json:"significant_inside"`
	Points            float64 `json:"points"`
}

// VerificationScore is the result of scoring a forecast. Simulated scores
// were produced without reports and carry zero report counts.
type VerificationScore struct {
	PerCategory  map[Hazard]CategoryScore `json:"per_category"`
	Areas        []AreaOutcome            `json:"areas"`
	TotalPoints  int                      `json:"total_points"`
	RawPoints    float64                  `json:"raw_points"`
	BrierScore   float64                  `json:"brier_score"`
	ReportCounts map[Hazard]int           `json:"report_counts"`
	Simulated    bool                     `json:"simulated"`
}

func newVerificationScore() VerificationScore {
	per := make(map[Hazard]CategoryScore, len(Hazards))
	counts := make(map[Hazard]int, len(Hazards))
	for _, h := range Hazards {
		per[h] = CategoryScore{}
		counts[h] = 0
	}
	return VerificationScore{PerCategory: per, ReportCounts: counts}
}

// Score verifies f against reports. Reports are projected into the canvas the
// forecast was drawn on and tested against each area of the same hazard.
func Score(f Forecast, reports Reports) VerificationScore {
	vs := newVerificationScore()
	region := f.Region()

	projected := make(map[Hazard][]Point2D, len(Hazards))
	for _, h := range Hazards {
		obs := reports[h]
		pts := make([]Point2D, len(obs))
		for i, o := range obs {
			pts[i] = f.Project(o.Lat, o.Lon)
		}
		projected[h] = pts
		vs.ReportCounts[h] = len(obs)
	}

	for _, h := range Hazards {
		cs := CategoryScore{Total: len(reports[h])}
		areas := areasOf(f, h)
		for i, o := range reports[h] {
			p := projected[h][i]
			if region.Bounds.Contains(o.Lat, o.Lon) {
				cs.InRegion++
			}
			inside, inSignificant := false, false
			for _, a := range areas {
				if !a.Contains(p) {
					continue
				}
				inside = true
				if a.Significant {
					inSignificant = true
				}
			}
			if !inside {
				cs.Misses++
				continue
			}
			cs.Hits++
			if o.Significant && inSignificant {
				cs.SignificantHits++
			}
		}
		vs.PerCategory[h] = cs
	}

	var brierSum, points float64
	vs.Areas = make([]AreaOutcome, 0, len(f.Areas))
	for _, a := range f.Areas {
		out := AreaOutcome{Hazard: a.Hazard, Probability: a.Probability, Significant: a.Significant}
		for i, o := range reports[a.Hazard] {
			if !a.Contains(projected[a.Hazard][i]) {
				continue
			}
			out.ReportsInside++
			if o.Significant {
				out.SignificantInside = true
			}
		}
		out.Observed = out.ReportsInside > 0

		observed := 0.0
		if out.Observed {
			observed = 1
		}
		brierSum += math.Pow(float64(a.Probability)/100-observed, 2)

		if out.Observed {
			out.Points = float64(a.Probability)
			if a.Significant && out.SignificantInside {
				out.Points += SignificantBonus
			}
		} else {
			out.Points = -float64(a.Probability) / 2
			cs := vs.PerCategory[a.Hazard]
			cs.FalseAlarms++
			vs.PerCategory[a.Hazard] = cs
		}
		points += out.Points
		vs.Areas = append(vs.Areas, out)
	}

	if len(f.Areas) > 0 {
		vs.BrierScore = brierSum / float64(len(f.Areas))
	}
	vs.RawPoints = points
	vs.TotalPoints = floorPoints(points)
	return vs
}

// floorPoints rounds half away from zero and clamps at zero.
func floorPoints(raw float64) int {
	return max(0, int(math.Round(raw)))
}

func areasOf(f Forecast, h Hazard) []ForecastArea {
	var out []ForecastArea
	for _, a := range f.Areas {
		if a.Hazard == h {
			out = append(out, a)
		}
	}
	return out
}
