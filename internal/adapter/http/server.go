package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/imagery"
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the verification session the API drives.
type Service interface {
	Player(ctx context.Context) (string, error)
	SetPlayer(ctx context.Context, name string) (string, error)
	SubmitDraft(ctx context.Context, d *domain.Draft, opts session.SubmitOptions) (domain.Forecast, error)
	VerifyPending(ctx context.Context) (session.Verification, error)
	Verify(ctx context.Context, id string) (session.Verification, error)
	Forecast(ctx context.Context, id string) (domain.Forecast, error)
	History(ctx context.Context, player string) ([]domain.Forecast, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Stats(ctx context.Context, player string) (domain.PlayerStats, error)
}

// ImageryProbe reports on the remote imagery service.
type ImageryProbe interface {
	Check(ctx context.Context) imagery.Status
}

// Server exposes the forecast API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Verification fetches the report feed
// inline, so the write timeout leaves room for a slow feed.
func NewServer(addr string, svc Service, ready sharedobs.ReadinessChecker, probe ImageryProbe, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := &handlers{svc: svc, probe: probe, logger: logger}
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(25 * time.Second))
		h.routes(r)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
