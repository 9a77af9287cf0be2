package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
)

// errCorrupt marks a stored collection that failed to decode.
var errCorrupt = errors.New("corrupt stored collection")

func (s *Session) loadForecasts(ctx context.Context) ([]domain.Forecast, error) {
	var history []domain.Forecast
	if err := s.loadJSON(ctx, KeyForecasts, &history); err != nil {
		if errors.Is(err, errCorrupt) {
			return nil, nil
		}
		return nil, err
	}
	return history, nil
}

func (s *Session) loadLeaderboard(ctx context.Context) (domain.Leaderboard, error) {
	var lb domain.Leaderboard
	if err := s.loadJSON(ctx, KeyLeaderboard, &lb); err != nil {
		if errors.Is(err, errCorrupt) {
			return nil, nil
		}
		return nil, err
	}
	return lb, nil
}

// loadJSON decodes the collection under key into v. A missing key leaves v
// untouched. A value that does not decode is logged and reported as
// errCorrupt so callers continue with an empty collection.
func (s *Session) loadJSON(ctx context.Context, key string, v any) error {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.metrics.StoreCorruptRecords.Inc()
		s.logger.Warn("stored collection is corrupt, starting empty", "key", key, "error", err)
		return fmt.Errorf("%w %s: %v", errCorrupt, key, err)
	}
	return nil
}

func (s *Session) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.store.Set(ctx, key, string(data))
}
