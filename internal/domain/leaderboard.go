package domain

import (
	"cmp"
	"math"
	"slices"
)

// DefaultLeaderboardSize is how many entries a ranked view shows by default.
const DefaultLeaderboardSize = 10

// LeaderboardEntry accumulates one player's verified results. Players are
// matched by exact name.
type LeaderboardEntry struct {
	Player        string `json:"player"`
	GamesPlayed   int    `json:"games"`
	TotalPoints   int    `json:"total_points"`
	AveragePoints int    `json:"avg_score"`
	BestScore     int    `json:"best_score"`
}

// Leaderboard is a cache derived from verified forecasts. Entries keep
// first-seen order; Ranked sorts a copy.
type Leaderboard []LeaderboardEntry

// Record adds one verified result for player.
func (lb Leaderboard) Record(player string, points int) Leaderboard {
	for i := range lb {
		e := &lb[i]
		if e.Player != player {
			continue
		}
		e.GamesPlayed++
		e.TotalPoints += points
		e.AveragePoints = roundDiv(e.TotalPoints, e.GamesPlayed)
		e.BestScore = max(e.BestScore, points)
		return lb
	}
	return append(lb, LeaderboardEntry{
		Player:        player,
		GamesPlayed:   1,
		TotalPoints:   points,
		AveragePoints: points,
		BestScore:     points,
	})
}

// Ranked returns up to limit entries by average points, highest first. Ties
// keep first-seen order. A non-positive limit returns every entry.
func (lb Leaderboard) Ranked(limit int) []LeaderboardEntry {
	out := slices.Clone([]LeaderboardEntry(lb))
	slices.SortStableFunc(out, func(a, b LeaderboardEntry) int {
		return cmp.Compare(b.AveragePoints, a.AveragePoints)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Find returns the entry for player.
func (lb Leaderboard) Find(player string) (LeaderboardEntry, bool) {
	for _, e := range lb {
		if e.Player == player {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

// ReplayLeaderboard rebuilds the leaderboard from forecast history. Unverified
// and simulated forecasts are ignored.
func ReplayLeaderboard(history []Forecast) Leaderboard {
	var lb Leaderboard
	for _, f := range history {
		if !countsTowardStats(f) {
			continue
		}
		lb = lb.Record(f.Player, f.Score.TotalPoints)
	}
	return lb
}

// PlayerStats summarizes a player's verified forecasts. AverageBrier is nil
// when the player has none.
type PlayerStats struct {
	Player        string   `json:"player"`
	Verified      int      `json:"verified"`
	Pending       int      `json:"pending"`
	AveragePoints int      `json:"average_points"`
	BestScore     int      `json:"best_score"`
	AverageBrier  *float64 `json:"average_brier,omitempty"`
}

// StatsFor computes player statistics from forecast history.
func StatsFor(player string, history []Forecast) PlayerStats {
	stats := PlayerStats{Player: player}
	var points int
	var brier float64
	for _, f := range history {
		if f.Player != player {
			continue
		}
		if !countsTowardStats(f) {
			if !f.Verified {
				stats.Pending++
			}
			continue
		}
		stats.Verified++
		points += f.Score.TotalPoints
		brier += f.Score.BrierScore
		stats.BestScore = max(stats.BestScore, f.Score.TotalPoints)
	}
	if stats.Verified > 0 {
		stats.AveragePoints = roundDiv(points, stats.Verified)
		avg := brier / float64(stats.Verified)
		stats.AverageBrier = &avg
	}
	return stats
}

func countsTowardStats(f Forecast) bool {
	return f.Verified && f.Score != nil && !f.Score.Simulated
}

func roundDiv(total, n int) int {
	return int(math.Round(float64(total) / float64(n)))
}
