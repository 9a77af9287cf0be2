// Package spc fetches NOAA Storm Prediction Center daily storm report files.
package spc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
)

// DefaultBaseURL is the public SPC report archive.
const DefaultBaseURL = "https://www.spc.noaa.gov/climo/reports"

// Client implements domain.ReportSource against the SPC report archive.
// Each fetch is a single GET with no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a report feed client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ReportURL returns the filtered report file URL for a YYMMDD date. Any
// hour suffix on the date is ignored.
func ReportURL(baseURL, date string) string {
	return fmt.Sprintf("%s/%s_rpts_filtered.csv", strings.TrimRight(baseURL, "/"), reportDay(date))
}

func reportDay(date string) string {
	if len(date) > 6 {
		return date[:6]
	}
	return date
}

// FetchReports downloads and parses the reports for date. A missing file or
// other non-200 answer is an empty day, not an error. Transport failures
// wrap domain.ErrReportsUnavailable.
func (c *Client) FetchReports(ctx context.Context, date string) (domain.Reports, error) {
	u := ReportURL(c.baseURL, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ReportFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ReportFeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch reports %s: %w: %w", reportDay(date), domain.ErrReportsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.metrics.ReportFeedRequests.WithLabelValues("not_found").Inc()
		c.logger.Warn("storm reports not available for date",
			"date", reportDay(date),
			"status", resp.StatusCode,
			"url", u,
		)
		return domain.NewReports(), nil
	}

	reports, stats, err := domain.ParseReports(resp.Body)
	if err != nil {
		c.metrics.ReportFeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch reports %s: %w: %w", reportDay(date), domain.ErrReportsUnavailable, err)
	}
	c.metrics.ReportFeedRequests.WithLabelValues("success").Inc()
	c.record(date, reports, stats)
	return reports, nil
}

func (c *Client) record(date string, reports domain.Reports, stats domain.ParseStats) {
	for h, n := range reports.Counts() {
		c.metrics.ReportsParsed.WithLabelValues(h.String()).Add(float64(n))
	}
	if skipped := stats.Skipped(); skipped > 0 {
		c.metrics.ReportLinesSkipped.Add(float64(skipped))
		c.logger.Warn("skipped malformed report lines",
			"date", reportDay(date),
			"skipped", skipped,
			"short_lines", stats.ShortLines,
			"bad_locations", stats.BadLocations,
			"orphans", stats.Orphans,
		)
	}
	c.logger.Debug("storm reports fetched", "date", reportDay(date), "reports", reports.Total())
}
