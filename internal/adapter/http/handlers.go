package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/render"
	"github.com/couchcryptid/storm-forecast-verifier/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	svc    Service
	probe  ImageryProbe
	logger *slog.Logger
}

func (h *handlers) routes(r chi.Router) {
	r.Get("/regions", h.listRegions)
	r.Get("/hazards", h.listHazards)

	r.Get("/player", h.getPlayer)
	r.Put("/player", h.setPlayer)
	r.Get("/players/{player}/stats", h.playerStats)

	r.Post("/forecasts", h.submitForecast)
	r.Get("/forecasts", h.listForecasts)
	r.Post("/verify", h.verifyPending)
	r.Route("/forecasts/{id}", func(r chi.Router) {
		r.Get("/", h.getForecast)
		r.Post("/verify", h.verifyForecast)
		r.Get("/render", h.renderForecast)
		r.Get("/geojson", h.forecastGeoJSON)
	})

	r.Get("/leaderboard", h.leaderboard)
	r.Get("/imagery/health", h.imageryHealth)
}

// --- catalogs ---

type hazardView struct {
	domain.HazardSpec
	ID     domain.Hazard        `json:"id"`
	Legend []render.LegendEntry `json:"legend"`
}

func (h *handlers) listRegions(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"default": domain.DefaultRegionID(),
		"regions": domain.Regions(),
	})
}

func (h *handlers) listHazards(w http.ResponseWriter, _ *http.Request) {
	out := make([]hazardView, 0, len(domain.Hazards))
	for _, hz := range domain.Hazards {
		out = append(out, hazardView{HazardSpec: hz.Spec(), ID: hz, Legend: render.Legend(hz)})
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

// --- player ---

type playerBody struct {
	Name string `json:"name"`
}

type playerView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func (h *handlers) getPlayer(w http.ResponseWriter, r *http.Request) {
	name, err := h.svc.Player(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, playerView{Name: name, DisplayName: domain.DisplayName(name)})
}

func (h *handlers) setPlayer(w http.ResponseWriter, r *http.Request) {
	var body playerBody
	if !h.decode(w, r, &body) {
		return
	}
	name, err := h.svc.SetPlayer(r.Context(), body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, playerView{Name: name, DisplayName: domain.DisplayName(name)})
}

func (h *handlers) playerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), chi.URLParam(r, "player"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, stats)
}

// --- forecasts ---

// stroke is one closed drawing gesture with the selection it was drawn under.
type stroke struct {
	Hazard      domain.Hazard    `json:"hazard"`
	Probability int              `json:"probability"`
	Significant bool             `json:"significant"`
	Points      []domain.Point2D `json:"points"`
}

type submitRequest struct {
	Player       string            `json:"player"`
	RegionID     int               `json:"region_id"`
	Canvas       domain.CanvasSize `json:"canvas_size"`
	Mode         string            `json:"mode"`
	HistoricDate string            `json:"historic_date"`
	Strokes      []stroke          `json:"strokes"`
}

// draft replays the strokes through a Draft so they obey the same selection
// and ring rules as interactive drawing.
func (req submitRequest) draft() (*domain.Draft, error) {
	d := domain.NewDraft()
	for i, s := range req.Strokes {
		if err := d.SelectHazard(s.Hazard); err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
		if err := d.SelectProbability(s.Probability); err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
		if err := d.SetSignificant(s.Significant); err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
		if len(s.Points) == 0 {
			continue
		}
		d.StartPath(s.Points[0])
		for _, p := range s.Points[1:] {
			if err := d.AddPoint(p); err != nil {
				return nil, fmt.Errorf("stroke %d: %w", i, err)
			}
		}
		if _, _, err := d.ClosePath(); err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return d, nil
}

func (h *handlers) submitForecast(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	regionID := req.RegionID
	if regionID == 0 {
		regionID = domain.DefaultRegionID()
	}

	f, err := h.svc.SubmitDraft(r.Context(), d, session.SubmitOptions{
		Player:       req.Player,
		RegionID:     regionID,
		Canvas:       req.Canvas,
		Mode:         mode,
		HistoricDate: req.HistoricDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, f)
}

func (h *handlers) listForecasts(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(r.Context(), r.URL.Query().Get("player"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, history)
}

func (h *handlers) getForecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Forecast(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, f)
}

func (h *handlers) verifyForecast(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func (h *handlers) verifyPending(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.VerifyPending(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func (h *handlers) renderForecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Forecast(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, render.ForecastScene(f))
}

func (h *handlers) forecastGeoJSON(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Forecast(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := render.GeoJSON(f).MarshalJSON()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- leaderboard ---

type leaderboardRow struct {
	Rank int `json:"rank"`
	domain.LeaderboardEntry
	DisplayName string `json:"display_name"`
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := domain.DefaultLeaderboardSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeErrorJSON(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.svc.Leaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows := make([]leaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = leaderboardRow{Rank: i + 1, LeaderboardEntry: e, DisplayName: domain.DisplayName(e.Player)}
	}
	sharedobs.WriteJSON(w, http.StatusOK, rows)
}

// --- imagery ---

func (h *handlers) imageryHealth(w http.ResponseWriter, r *http.Request) {
	st := h.probe.Check(r.Context())
	status := http.StatusOK
	if st.Configured && !st.Up {
		status = http.StatusServiceUnavailable
	}
	sharedobs.WriteJSON(w, status, st)
}

// --- helpers ---

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

var badRequestErrors = []error{
	domain.ErrNoAreas,
	domain.ErrUnknownHazard,
	domain.ErrInvalidProbability,
	domain.ErrSignificantBelowThreshold,
	domain.ErrInvalidCanvas,
	domain.ErrDegenerateRing,
	domain.ErrNoOpenStroke,
	domain.ErrInvalidForecastDate,
	domain.ErrUnknownMode,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrForecastNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyVerified), errors.Is(err, domain.ErrNoPendingForecast):
		return http.StatusConflict
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorJSON(w, status, "internal error")
		return
	}
	writeErrorJSON(w, status, err.Error())
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
