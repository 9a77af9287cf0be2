package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
)

// KVStore persists whole collections as text under a key. Get returns an
// empty string and no error for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}

// Publisher announces verified forecasts to downstream consumers.
type Publisher interface {
	PublishVerification(ctx context.Context, f domain.Forecast) error
}

// Storage keys.
const (
	KeyForecasts   = "forecasts"
	KeyLeaderboard = "leaderboard"
	KeyPlayerName  = "player_name"
)

// SubmitOptions describe where and when a forecast was drawn. Player falls
// back to the session's stored player name.
type SubmitOptions struct {
	Player       string
	RegionID     int
	Canvas       domain.CanvasSize
	Mode         domain.Mode
	HistoricDate string
}

// Verification is the outcome of one verification attempt. A simulated
// result leaves the forecast unverified and the leaderboard untouched.
type Verification struct {
	Forecast  domain.Forecast          `json:"forecast"`
	Score     domain.VerificationScore `json:"score"`
	Simulated bool                     `json:"simulated"`
	Notice    string                   `json:"notice,omitempty"`
}

// Option customizes a Session.
type Option func(*Session)

// WithRand sets the randomness source for simulated scores.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithDefaultPlayer sets the name used before a player picks one.
func WithDefaultPlayer(name string) Option {
	return func(s *Session) { s.defaultPlayer = domain.SanitizePlayerName(name) }
}

// Session owns forecast history, the leaderboard, the working draft, and the
// forecast waiting for verification. Persistence is read-modify-write of
// whole collections; the session mutex serializes writers in this process
// only.
type Session struct {
	store     KVStore
	source    domain.ReportSource
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu            sync.Mutex
	rng           *rand.Rand
	defaultPlayer string
	draft         *domain.Draft
	pending       string
}

// New creates a Session. publisher may be nil.
func New(store KVStore, source domain.ReportSource, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Session {
	s := &Session{
		store:         store,
		source:        source,
		publisher:     publisher,
		logger:        logger,
		metrics:       metrics,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		defaultPlayer: domain.DefaultPlayerName,
		draft:         domain.NewDraft(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckReadiness reports whether the backing store is reachable.
func (s *Session) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}

// Player returns the stored player name, or the default when none is set.
func (s *Session) Player(ctx context.Context) (string, error) {
	name, err := s.store.Get(ctx, KeyPlayerName)
	if err != nil {
		return "", fmt.Errorf("load player name: %w", err)
	}
	if name == "" {
		return s.defaultPlayer, nil
	}
	return name, nil
}

// SetPlayer sanitizes and stores the player name, returning what was stored.
func (s *Session) SetPlayer(ctx context.Context, name string) (string, error) {
	clean := domain.SanitizePlayerName(name)
	if err := s.store.Set(ctx, KeyPlayerName, clean); err != nil {
		return "", fmt.Errorf("save player name: %w", err)
	}
	return clean, nil
}

// Draft returns the session's working draft. The draft is not guarded by the
// session mutex; it belongs to a single interactive caller. Concurrent callers
// such as the HTTP API build their own Draft and use SubmitDraft.
func (s *Session) Draft() *domain.Draft {
	return s.draft
}

// Pending returns the id of the forecast awaiting verification.
func (s *Session) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.pending != ""
}

// Submit snapshots the session draft into a forecast. Like Draft, it is for
// the single caller that owns the session draft.
func (s *Session) Submit(ctx context.Context, opts SubmitOptions) (domain.Forecast, error) {
	return s.SubmitDraft(ctx, s.draft, opts)
}

// SubmitDraft snapshots d into a new forecast, appends it to history, clears
// d, and makes the forecast the pending one. Nothing changes on error.
func (s *Session) SubmitDraft(ctx context.Context, d *domain.Draft, opts SubmitOptions) (domain.Forecast, error) {
	if d.Len() == 0 {
		return domain.Forecast{}, domain.ErrNoAreas
	}

	player := strings.TrimSpace(opts.Player)
	if player != "" {
		player = domain.SanitizePlayerName(player)
	} else {
		p, err := s.Player(ctx)
		if err != nil {
			return domain.Forecast{}, err
		}
		player = p
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeCurrent
	}

	f, err := domain.NewForecast(player, opts.RegionID, opts.Canvas, mode, opts.HistoricDate, d.Areas())
	if err != nil {
		return domain.Forecast{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadForecasts(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}
	history = append(history, f)
	if err := s.saveJSON(ctx, KeyForecasts, history); err != nil {
		return domain.Forecast{}, fmt.Errorf("save forecasts: %w", err)
	}

	d.Clear()
	s.pending = f.ID
	s.metrics.ForecastsSubmitted.Inc()
	s.logger.Info("forecast submitted",
		"forecast_id", f.ID,
		"player", f.Player,
		"areas", len(f.Areas),
		"region_id", f.RegionID,
		"forecast_date", f.ForecastDate,
		"mode", f.Mode,
	)
	return f, nil
}

// VerifyPending verifies the most recently submitted forecast.
func (s *Session) VerifyPending(ctx context.Context) (Verification, error) {
	id, ok := s.Pending()
	if !ok {
		return Verification{}, domain.ErrNoPendingForecast
	}
	return s.Verify(ctx, id)
}

// Verify fetches the reports for the forecast's date and scores it. When the
// feed cannot be reached the result is a simulated score and nothing is
// persisted. Otherwise the verified forecast is saved, the player's
// leaderboard entry is updated, and the result is published.
func (s *Session) Verify(ctx context.Context, id string) (Verification, error) {
	f, err := s.Forecast(ctx, id)
	if err != nil {
		return Verification{}, err
	}
	if f.Verified {
		return Verification{}, domain.ErrAlreadyVerified
	}

	reports, err := s.source.FetchReports(ctx, f.ReportDate())
	if err != nil {
		return s.simulate(f, err), nil
	}
	score := domain.Score(f, reports)

	s.mu.Lock()
	verified, err := s.recordVerification(ctx, id, score, reports)
	s.mu.Unlock()
	if err != nil {
		s.metrics.Verifications.WithLabelValues("error").Inc()
		return Verification{}, err
	}

	s.metrics.Verifications.WithLabelValues("verified").Inc()
	s.metrics.BrierScore.Observe(score.BrierScore)
	s.metrics.PointsAwarded.Observe(float64(score.TotalPoints))
	s.logger.Info("forecast verified",
		"forecast_id", id,
		"player", verified.Player,
		"total_points", score.TotalPoints,
		"brier_score", score.BrierScore,
		"reports", reports.Total(),
	)

	s.publish(ctx, verified)
	return Verification{Forecast: verified, Score: score}, nil
}

// recordVerification re-reads history so a forecast verified elsewhere since
// the fetch started is not scored twice. Callers hold s.mu.
func (s *Session) recordVerification(ctx context.Context, id string, score domain.VerificationScore, reports domain.Reports) (domain.Forecast, error) {
	history, err := s.loadForecasts(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}
	idx := indexOf(history, id)
	if idx < 0 {
		return domain.Forecast{}, domain.ErrForecastNotFound
	}
	verified, err := history[idx].AttachVerification(score, reports)
	if err != nil {
		return domain.Forecast{}, err
	}
	history[idx] = verified
	if err := s.saveJSON(ctx, KeyForecasts, history); err != nil {
		return domain.Forecast{}, fmt.Errorf("save forecasts: %w", err)
	}

	lb, err := s.loadLeaderboard(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}
	lb = lb.Record(verified.Player, score.TotalPoints)
	if err := s.saveJSON(ctx, KeyLeaderboard, lb); err != nil {
		return domain.Forecast{}, fmt.Errorf("save leaderboard: %w", err)
	}

	if s.pending == id {
		s.pending = ""
	}
	return verified, nil
}

func (s *Session) simulate(f domain.Forecast, cause error) Verification {
	s.mu.Lock()
	score := domain.Simulate(f, s.rng)
	if s.pending == f.ID {
		s.pending = ""
	}
	s.mu.Unlock()

	s.metrics.Verifications.WithLabelValues("simulated").Inc()
	s.logger.Warn("storm reports unavailable, using simulated verification",
		"forecast_id", f.ID,
		"report_date", f.ReportDate(),
		"error", cause,
	)
	return Verification{
		Forecast:  f,
		Score:     score,
		Simulated: true,
		Notice:    "Storm reports unavailable. This score is simulated and was not recorded.",
	}
}

func (s *Session) publish(ctx context.Context, f domain.Forecast) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVerification(ctx, f); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish verification failed", "forecast_id", f.ID, "error", err)
	}
}

// Forecast returns one forecast from history.
func (s *Session) Forecast(ctx context.Context, id string) (domain.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadForecasts(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}
	idx := indexOf(history, id)
	if idx < 0 {
		return domain.Forecast{}, fmt.Errorf("%w: %s", domain.ErrForecastNotFound, id)
	}
	return history[idx], nil
}

// History returns submitted forecasts oldest first, optionally for one player.
func (s *Session) History(ctx context.Context, player string) ([]domain.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadForecasts(ctx)
	if err != nil {
		return nil, err
	}
	if player == "" {
		return history, nil
	}
	out := make([]domain.Forecast, 0, len(history))
	for _, f := range history {
		if f.Player == player {
			out = append(out, f)
		}
	}
	return out, nil
}

// Leaderboard returns the top entries by average points.
func (s *Session) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lb, err := s.loadLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return lb.Ranked(limit), nil
}

// Stats summarizes a player's verified forecasts.
func (s *Session) Stats(ctx context.Context, player string) (domain.PlayerStats, error) {
	history, err := s.History(ctx, player)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	return domain.StatsFor(player, history), nil
}

// RebuildLeaderboard replaces the stored leaderboard with one replayed from
// forecast history.
func (s *Session) RebuildLeaderboard(ctx context.Context) (domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadForecasts(ctx)
	if err != nil {
		return nil, err
	}
	lb := domain.ReplayLeaderboard(history)
	if err := s.saveJSON(ctx, KeyLeaderboard, lb); err != nil {
		return nil, fmt.Errorf("save leaderboard: %w", err)
	}
	s.logger.Info("leaderboard rebuilt", "forecasts", len(history), "players", len(lb))
	return lb, nil
}

func indexOf(history []domain.Forecast, id string) int {
	for i, f := range history {
		if f.ID == id {
			return i
		}
	}
	return -1
}
