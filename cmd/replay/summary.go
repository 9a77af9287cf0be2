package main

import (
	"fmt"
	"io"
)

type result struct {
	status string
	detail string
}

// summary tallies verification results for the final report.
type summary struct {
	lines    []string
	verified int
	skipped  int
	failed   int
}

func (s *summary) add(id string, r result) {
	switch r.status {
	case "verified":
		s.verified++
	case "skipped":
		s.skipped++
	default:
		s.failed++
	}
	s.lines = append(s.lines, fmt.Sprintf("  %-8s %s  %s", r.status, id, r.detail))
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintln(w, "=== Forecast Replay ===")
	for _, l := range s.lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintf(w, "\nverified: %d  skipped: %d  failed: %d\n", s.verified, s.skipped, s.failed)
}
