package domain

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Observation is one storm report from the daily feed.
type Observation struct {
	Time        string  `json:"time"`
	Magnitude   string  `json:"magnitude"`
	Location    string  `json:"location"`
	County      string  `json:"county"`
	State       string  `json:"state"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Comments    string  `json:"comments"`
	Significant bool    `json:"significant"`
}

// Reports groups observations by hazard, in feed order.
type Reports map[Hazard][]Observation

// NewReports returns an empty set with a slot for every hazard.
func NewReports() Reports {
	r := make(Reports, len(Hazards))
	for _, h := range Hazards {
		r[h] = []Observation{}
	}
	return r
}

// Clone returns a deep copy.
func (r Reports) Clone() Reports {
	out := NewReports()
	for h, obs := range r {
		out[h] = append([]Observation{}, obs...)
	}
	return out
}

// Counts returns the number of observations per hazard, with every hazard present.
func (r Reports) Counts() map[Hazard]int {
	counts := make(map[Hazard]int, len(Hazards))
	for _, h := range Hazards {
		counts[h] = len(r[h])
	}
	return counts
}

// Total returns the number of observations across all hazards.
func (r Reports) Total() int {
	n := 0
	for _, obs := range r {
		n += len(obs)
	}
	return n
}

// ReportSource fetches the storm reports for a forecast date (YYMMDD).
// A source that cannot be reached returns an error wrapping
// ErrReportsUnavailable; a feed with no reports returns empty Reports.
type ReportSource interface {
	FetchReports(ctx context.Context, date string) (Reports, error)
}

// ParseStats describes what a parse kept and dropped.
type ParseStats struct {
	Lines        int `json:"lines"`
	Kept         int `json:"kept"`
	ShortLines   int `json:"short_lines"`
	BadLocations int `json:"bad_locations"`
	Orphans      int `json:"orphans"`
}

// Skipped returns the number of data lines that did not produce an observation.
func (s ParseStats) Skipped() int {
	return s.ShortLines + s.BadLocations + s.Orphans
}

const minReportFields = 7

// ParseReports reads a daily report file. Section header lines switch the
// active hazard; lines before the first header, blank lines, lines with fewer
// than seven fields, and lines whose lat/lon do not parse are skipped. Only a
// read failure is returned as an error, together with what was parsed so far.
func ParseReports(r io.Reader) (Reports, ParseStats, error) {
	reports := NewReports()
	var stats ParseStats
	var current Hazard

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if h, ok := hazardForHeader(line); ok {
			current = h
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++
		if current == 0 {
			stats.Orphans++
			continue
		}

		obs, ok, short := parseObservation(current, line)
		switch {
		case short:
			stats.ShortLines++
		case !ok:
			stats.BadLocations++
		default:
			reports[current] = append(reports[current], obs)
			stats.Kept++
		}
	}
	if err := sc.Err(); err != nil {
		return reports, stats, fmt.Errorf("read reports: %w", err)
	}
	return reports, stats, nil
}

// parseObservation converts one data line. short is true when the line has
// too few fields; ok is false when the location does not parse.
func parseObservation(h Hazard, line string) (obs Observation, ok, short bool) {
	parts := strings.Split(line, ",")
	if len(parts) < minReportFields {
		return Observation{}, false, true
	}
	lat, ok := parseCoordinate(parts[5])
	if !ok {
		return Observation{}, false, false
	}
	lon, ok := parseCoordinate(parts[6])
	if !ok {
		return Observation{}, false, false
	}
	obs = Observation{
		Time:      parts[0],
		Magnitude: parts[1],
		Location:  parts[2],
		County:    parts[3],
		State:     parts[4],
		Lat:       lat,
		Lon:       lon,
		Comments:  strings.Join(parts[minReportFields:], ","),
	}
	obs.Significant = h.IsSignificant(obs.Magnitude)
	return obs, true, false
}

// parseCoordinate parses a lat or lon field. ParseFloat accepts NaN and Inf
// spellings, which are rejected here.
func parseCoordinate(field string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
