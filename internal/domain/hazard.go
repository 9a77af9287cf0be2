package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Hazard is one of the severe-weather categories forecasts are scored against.
type Hazard uint8

const (
	Tornado Hazard = iota + 1
	Wind
	Hail
)

// Hazards lists every hazard in display order.
var Hazards = [...]Hazard{Tornado, Wind, Hail}

// HazardSpec holds the per-hazard rules for drawing and verification.
type HazardSpec struct {
	Name                 string `json:"name"`
	Letter               string `json:"letter"`
	Ladder               []int  `json:"probabilities"`
	SignificantThreshold int    `json:"significant_threshold"`
	SignificantLabel     string `json:"significant_label"`
	SectionHeader        string `json:"section_header"`

	significant func(magnitude string) bool
}

var hazardSpecs = map[Hazard]HazardSpec{
	Tornado: {
		Name:                 "tornado",
		Letter:               "T",
		Ladder:               []int{2, 5, 10, 15, 30, 45, 60},
		SignificantThreshold: 10,
		SignificantLabel:     "EF2+ tornado",
		SectionHeader:        "Time,F_Scale",
		significant:          tornadoSignificant,
	},
	Wind: {
		Name:                 "wind",
		Letter:               "W",
		Ladder:               []int{5, 15, 30, 45, 60},
		SignificantThreshold: 15,
		SignificantLabel:     "65kt+ winds",
		SectionHeader:        "Time,Speed",
		significant:          windSignificant,
	},
	Hail: {
		Name:                 "hail",
		Letter:               "H",
		Ladder:               []int{5, 15, 30, 45, 60},
		SignificantThreshold: 15,
		SignificantLabel:     `2"+ hail`,
		SectionHeader:        "Time,Size",
		significant:          hailSignificant,
	},
}

// Spec returns the rule table for h. Unknown hazards yield a zero spec.
func (h Hazard) Spec() HazardSpec {
	return hazardSpecs[h]
}

// Valid reports whether h is one of the known hazards.
func (h Hazard) Valid() bool {
	_, ok := hazardSpecs[h]
	return ok
}

func (h Hazard) String() string {
	if s, ok := hazardSpecs[h]; ok {
		return s.Name
	}
	return fmt.Sprintf("hazard(%d)", uint8(h))
}

// ParseHazard maps a hazard name (case-insensitive) to its Hazard.
func ParseHazard(s string) (Hazard, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, h := range Hazards {
		if hazardSpecs[h].Name == name {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHazard, s)
}

// MarshalText encodes the hazard as its name so it can key JSON objects.
func (h Hazard) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHazard, uint8(h))
	}
	return []byte(hazardSpecs[h].Name), nil
}

// UnmarshalText decodes a hazard name.
func (h *Hazard) UnmarshalText(text []byte) error {
	parsed, err := ParseHazard(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// AllowsProbability reports whether p is on the hazard's ladder.
func (h Hazard) AllowsProbability(p int) bool {
	return slices.Contains(hazardSpecs[h].Ladder, p)
}

// CanBeSignificant reports whether an area at probability p may be flagged significant.
func (h Hazard) CanBeSignificant(p int) bool {
	s, ok := hazardSpecs[h]
	return ok && p >= s.SignificantThreshold
}

// IsSignificant applies the hazard's significant-severe predicate to a
// report magnitude column.
func (h Hazard) IsSignificant(magnitude string) bool {
	s, ok := hazardSpecs[h]
	if !ok {
		return false
	}
	return s.significant(magnitude)
}

// hazardForHeader returns the hazard whose section header starts line.
func hazardForHeader(line string) (Hazard, bool) {
	for _, h := range Hazards {
		if strings.HasPrefix(line, hazardSpecs[h].SectionHeader) {
			return h, true
		}
	}
	return 0, false
}

// tornadoSignificant looks for an EF rating token of EF2 or more.
func tornadoSignificant(magnitude string) bool {
	return efRating(magnitude) >= 2
}

// efRating extracts the highest EF-scale digit in the text, or -1 when there
// is none. "EFU" and "UNK" carry no rating.
func efRating(magnitude string) int {
	s := strings.ToUpper(magnitude)
	rating := -1
	for i := 0; i+2 < len(s); i++ {
		if s[i] != 'E' || s[i+1] != 'F' {
			continue
		}
		if d := s[i+2]; d >= '0' && d <= '5' {
			rating = max(rating, int(d-'0'))
		}
	}
	return rating
}

func windSignificant(magnitude string) bool {
	return leadingInt(magnitude) >= 65
}

func hailSignificant(magnitude string) bool {
	return normalizeHailSize(leadingFloat(magnitude)) >= 2.0
}

// normalizeHailSize converts hundredths-of-inch sizes (175 = 1.75 in) to inches.
// No US hailstone has exceeded 10 inches, so anything at or above that is
// assumed to be in hundredths.
func normalizeHailSize(size float64) float64 {
	if size >= 10 {
		return size / 100
	}
	return size
}

// leadingInt parses the leading run of digits, returning 0 when there is none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// leadingFloat parses the leading numeric prefix ("1.75", "2", ".88"),
// returning 0 when there is none.
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' && !seenDot {
			seenDot = true
		} else if c < '0' || c > '9' {
			break
		}
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
