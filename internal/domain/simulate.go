package domain

import (
	"math"
	"math/rand/v2"
)

// Simulate produces a stand-in score when no reports could be fetched. Each
// area verifies with probability p/100 + 0.3; an unverified area is a false
// alarm half the time. The Brier score is computed from those simulated
// outcomes. The result is marked Simulated and carries zero report counts.
func Simulate(f Forecast, rng *rand.Rand) VerificationScore {
	vs := newVerificationScore()
	vs.Simulated = true
	vs.Areas = make([]AreaOutcome, 0, len(f.Areas))

	var brierSum, points float64
	for _, a := range f.Areas {
		out := AreaOutcome{Hazard: a.Hazard, Probability: a.Probability, Significant: a.Significant}
		cs := vs.PerCategory[a.Hazard]
		prob := float64(a.Probability) / 100

		if rng.Float64() < prob+0.3 {
			out.Observed = true
			out.Points = float64(a.Probability)
			cs.Hits++
		} else if rng.Float64() > 0.5 {
			out.Points = -float64(a.Probability) / 2
			cs.FalseAlarms++
		}
		vs.PerCategory[a.Hazard] = cs

		observed := 0.0
		if out.Observed {
			observed = 1
		}
		brierSum += math.Pow(prob-observed, 2)
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
