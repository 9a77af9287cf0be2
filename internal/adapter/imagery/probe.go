// Package imagery checks that the remote imagery service behind the viewer
// is answering.
package imagery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
)

// Status is the result of one probe.
type Status struct {
	Configured bool      `json:"configured"`
	Up         bool      `json:"up"`
	Latency    string    `json:"latency,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Probe polls GET {baseURL}/health. An empty baseURL disables it.
type Probe struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewProbe creates an imagery health probe.
func NewProbe(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Probe {
	return &Probe{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Check probes the service once and updates the imagery_up gauge.
func (p *Probe) Check(ctx context.Context) Status {
	st := Status{Configured: p.baseURL != "", CheckedAt: time.Now().UTC()}
	if !st.Configured {
		return st
	}

	start := time.Now()
	err := p.check(ctx)
	st.Latency = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		st.Error = err.Error()
		p.metrics.ImageryUp.Set(0)
		p.logger.Warn("imagery service unhealthy", "url", p.baseURL, "error", err)
		return st
	}
	st.Up = true
	p.metrics.ImageryUp.Set(1)
	return st
}

func (p *Probe) check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("imagery health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("imagery health: status %d", resp.StatusCode)
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode imagery health: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("imagery health: status %q", body.Status)
	}
	return nil
}
