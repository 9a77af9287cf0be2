package spc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = "Time,F_Scale,Location,County,State,Lat,Lon,Comments\n" +
	"1223,EF3,2 N Mcalester,Pittsburg,OK,34.96,-95.77,Tornado confirmed (TSA)\n" +
	"Time,Speed,Location,County,State,Lat,Lon,Comments\n" +
	"1251,UNK,4 N Dow,Pittsburg,OK,34.94,-95.59,Trees down (TSA)\n" +
	"1252,60,Dow,Pittsburg,OK,xx,-95.59,(TSA)\n" +
	"Time,Size,Location,County,State,Lat,Lon,Comments\n" +
	"1510,100,8 ESE Chappel,San Saba,TX,31.02,-98.44,(SJT)\n"

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestReportURL(t *testing.T) {
	assert.Equal(t, "https://example.test/reports/240426_rpts_filtered.csv",
		ReportURL("https://example.test/reports/", "240426"))
	assert.Equal(t, "https://example.test/240426_rpts_filtered.csv",
		ReportURL("https://example.test", "24042612"), "hour suffix dropped")
}

func TestClient_FetchReports_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/240426_rpts_filtered.csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, sampleFeed)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	reports, err := c.FetchReports(context.Background(), "240426")
	require.NoError(t, err)

	assert.Equal(t, map[domain.Hazard]int{domain.Tornado: 1, domain.Wind: 1, domain.Hail: 1}, reports.Counts())
	assert.True(t, reports[domain.Tornado][0].Significant)
	assert.False(t, reports[domain.Wind][0].Significant)
	assert.Equal(t, "Trees down (TSA)", reports[domain.Wind][0].Comments)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ReportFeedRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ReportsParsed.WithLabelValues("tornado")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ReportLinesSkipped))
}

func TestClient_FetchReports_NotFoundIsEmptyDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	reports, err := c.FetchReports(context.Background(), "240426")
	require.NoError(t, err)
	assert.Equal(t, 0, reports.Total())
	assert.Len(t, reports, len(domain.Hazards))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ReportFeedRequests.WithLabelValues("not_found")))
}

func TestClient_FetchReports_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reports, err := testClient(srv.URL).FetchReports(context.Background(), "240426")
	require.NoError(t, err)
	assert.Equal(t, 0, reports.Total())
}

func TestClient_FetchReports_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := testClient(url)
	_, err := c.FetchReports(context.Background(), "240426")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrReportsUnavailable))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ReportFeedRequests.WithLabelValues("error")))
}

func TestClient_FetchReports_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, sampleFeed)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchReports(ctx, "240426")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReportsUnavailable)
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient("https://example.test/reports/", 3*time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, "https://example.test/reports", c.baseURL)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}
