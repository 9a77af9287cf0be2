package domain

import "errors"

// User-input errors. They are returned before any state changes.
var (
	ErrNoAreas                   = errors.New("forecast has no areas")
	ErrNoPendingForecast         = errors.New("no forecast pending verification")
	ErrForecastNotFound          = errors.New("forecast not found")
	ErrAlreadyVerified           = errors.New("forecast already verified")
	ErrUnknownHazard             = errors.New("unknown hazard")
	ErrInvalidProbability        = errors.New("probability not on hazard ladder")
	ErrSignificantBelowThreshold = errors.New("significant flag requires probability at or above threshold")
	ErrInvalidCanvas             = errors.New("canvas dimensions must be positive")
	ErrDegenerateRing            = errors.New("ring needs at least 3 distinct points")
	ErrNoOpenStroke              = errors.New("no stroke in progress")
	ErrInvalidForecastDate       = errors.New("invalid forecast date")
	ErrUnknownMode               = errors.New("unknown mode")
)

// ErrReportsUnavailable marks a report feed that could not be reached at all,
// as opposed to one that answered with no reports.
var ErrReportsUnavailable = errors.New("storm reports unavailable")
