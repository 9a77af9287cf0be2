package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ForecastArea is one closed probability polygon.
type ForecastArea struct {
	Hazard      Hazard    `json:"hazard"`
	Probability int       `json:"probability"`
	Significant bool      `json:"significant"`
	Path        []Point2D `json:"path"`
}

// NewForecastArea validates the hazard rules and closes the ring.
func NewForecastArea(h Hazard, probability int, significant bool, path []Point2D) (ForecastArea, error) {
	if !h.Valid() {
		return ForecastArea{}, fmt.Errorf("%w: %d", ErrUnknownHazard, uint8(h))
	}
	if !h.AllowsProbability(probability) {
		return ForecastArea{}, fmt.Errorf("%w: %s %d%%", ErrInvalidProbability, h, probability)
	}
	if significant && !h.CanBeSignificant(probability) {
		return ForecastArea{}, fmt.Errorf("%w: %s %d%%", ErrSignificantBelowThreshold, h, probability)
	}
	if distinctPoints(path) < 3 {
		return ForecastArea{}, ErrDegenerateRing
	}
	return ForecastArea{
		Hazard:      h,
		Probability: probability,
		Significant: significant,
		Path:        closeRing(path),
	}, nil
}

// Validate checks an area that arrived from storage or the wire.
func (a ForecastArea) Validate() error {
	_, err := NewForecastArea(a.Hazard, a.Probability, a.Significant, a.Path)
	return err
}

// Contains reports whether canvas point p lies inside the area.
func (a ForecastArea) Contains(p Point2D) bool {
	return PointInPolygon(p.X, p.Y, a.Path)
}

func (a ForecastArea) clone() ForecastArea {
	a.Path = append([]Point2D(nil), a.Path...)
	return a
}

// CanvasSize is the pixel size of the surface a forecast was drawn on.
type CanvasSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate rejects non-positive dimensions.
func (c CanvasSize) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %gx%g", ErrInvalidCanvas, c.Width, c.Height)
	}
	return nil
}

// Mode is how the forecast date was chosen.
type Mode string

const (
	ModeCurrent  Mode = "current"
	ModeHistoric Mode = "historic"
	ModePractice Mode = "practice"
)

// ParseMode maps a mode name to a Mode, defaulting to current.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeCurrent, nil
	case ModeCurrent, ModeHistoric, ModePractice:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Status is a submitted forecast's position in its lifecycle. Drafts live in
// a Draft until submission.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusVerified  Status = "verified"
)

// Forecast is a submitted outlook. Its areas never change after submission;
// verification attaches a score and the reports it was scored against once.
type Forecast struct {
	ID           string         `json:"id"`
	Player       string         `json:"player"`
	Timestamp    time.Time      `json:"timestamp"`
	RegionID     int            `json:"region_id"`
	Areas        []ForecastArea `json:"areas"`
	Canvas       CanvasSize     `json:"canvas_size"`
	Mode         Mode           `json:"mode"`
	ForecastDate string         `json:"forecast_date"`

	Verified   bool               `json:"verified"`
	VerifiedAt *time.Time         `json:"verified_at,omitempty"`
	Score      *VerificationScore `json:"score,omitempty"`
	Reports    Reports            `json:"reports,omitempty"`
}

// NewForecast snapshots areas into a submitted forecast. The forecast date is
// the historic date when one is given, otherwise today (UTC).
func NewForecast(player string, regionID int, canvas CanvasSize, mode Mode, historicDate string, areas []ForecastArea) (Forecast, error) {
	if len(areas) == 0 {
		return Forecast{}, ErrNoAreas
	}
	if err := canvas.Validate(); err != nil {
		return Forecast{}, err
	}
	for i, a := range areas {
		if err := a.Validate(); err != nil {
			return Forecast{}, fmt.Errorf("area %d: %w", i, err)
		}
	}

	now := Now()
	date := FormatForecastDate(now)
	if historicDate != "" {
		d, err := ParseForecastDate(historicDate)
		if err != nil {
			return Forecast{}, err
		}
		date = d
	}

	copied := make([]ForecastArea, len(areas))
	for i, a := range areas {
		copied[i] = a.clone()
	}
	return Forecast{
		ID:           uuid.NewString(),
		Player:       player,
		Timestamp:    now,
		RegionID:     regionID,
		Areas:        copied,
		Canvas:       canvas,
		Mode:         mode,
		ForecastDate: date,
	}, nil
}

// Status reports where the forecast is in its lifecycle.
func (f Forecast) Status() Status {
	if f.Verified {
		return StatusVerified
	}
	return StatusSubmitted
}

// Region returns the sector the forecast was drawn over.
func (f Forecast) Region() Region {
	return RegionFor(f.RegionID)
}

// Project maps (lat, lon) into the forecast's canvas.
func (f Forecast) Project(lat, lon float64) Point2D {
	return Project(lat, lon, f.Region().Bounds, f.Canvas.Width, f.Canvas.Height)
}

// ReportDate is the YYMMDD day of reports the forecast is verified against.
// Dates may carry an hour suffix (YYMMDDHH) which is ignored.
func (f Forecast) ReportDate() string {
	if len(f.ForecastDate) > 6 {
		return f.ForecastDate[:6]
	}
	return f.ForecastDate
}

// AttachVerification returns a verified copy of f.
func (f Forecast) AttachVerification(score VerificationScore, reports Reports) (Forecast, error) {
	if f.Verified {
		return f, ErrAlreadyVerified
	}
	at := Now()
	f.Verified = true
	f.VerifiedAt = &at
	f.Score = &score
	f.Reports = reports.Clone()
	return f, nil
}

// FormatForecastDate renders t as YYMMDD.
func FormatForecastDate(t time.Time) string {
	return t.UTC().Format("060102")
}

// ParseForecastDate validates a YYMMDD or YYMMDDHH date.
func ParseForecastDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != 6 && len(s) != 8 {
		return "", fmt.Errorf("%w %q: want YYMMDD or YYMMDDHH", ErrInvalidForecastDate, s)
	}
	if _, err := time.Parse("060102", s[:6]); err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidForecastDate, s, err)
	}
	if len(s) == 8 {
		if _, err := time.Parse("15", s[6:]); err != nil {
			return "", fmt.Errorf("%w %q: %w", ErrInvalidForecastDate, s, err)
		}
	}
	return s, nil
}
