package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_verify"

// Metrics holds the Prometheus counters, histograms, and gauges for the verifier.
type Metrics struct {
	ForecastsSubmitted prometheus.Counter
	Verifications      *prometheus.CounterVec // labels: outcome={verified,simulated,error}
	BrierScore         prometheus.Histogram
	PointsAwarded      prometheus.Histogram

	// Report feed metrics.
	ReportFetchDuration prometheus.Histogram
	ReportFeedRequests  *prometheus.CounterVec // labels: outcome={success,not_found,error}
	ReportCache         *prometheus.CounterVec // labels: result={hit,miss}
	ReportsParsed       *prometheus.CounterVec // labels: hazard={tornado,wind,hail}
	ReportLinesSkipped  prometheus.Counter

	StoreCorruptRecords prometheus.Counter
	ImageryUp           prometheus.Gauge

	// Result publishing.
	PublisherRunning       prometheus.Gauge
	PublishQueueDepth      prometheus.Gauge
	VerificationsPublished prometheus.Counter
	PublishErrors          prometheus.Counter
	PublishBatchDuration   prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_submitted_total",
			Help:      "Total forecasts submitted.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification attempts by outcome.",
		}, []string{"outcome"}),
		BrierScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "brier_score",
			Help:      "Brier score of verified forecasts.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1},
		}),
		PointsAwarded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "points_awarded",
			Help:      "Point totals of verified forecasts.",
			Buckets:   []float64{0, 10, 25, 50, 100, 150, 250, 500},
		}),
		ReportFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_fetch_duration_seconds",
			Help:      "SPC report feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ReportFeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_feed_requests_total",
			Help:      "SPC report feed requests by outcome.",
		}, []string{"outcome"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		ReportsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_parsed_total",
			Help:      "Storm reports parsed from the feed by hazard.",
		}, []string{"hazard"}),
		ReportLinesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_lines_skipped_total",
			Help:      "Report feed lines skipped as malformed.",
		}),
		StoreCorruptRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_corrupt_records_total",
			Help:      "Stored collections that failed to decode and were reset.",
		}),
		ImageryUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "imagery_up",
			Help:      "1 when the last imagery health probe succeeded, 0 otherwise.",
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_running",
			Help:      "1 when the result publisher loop is running, 0 otherwise.",
		}),
		PublishQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_queue_depth",
			Help:      "Verified results waiting to be published.",
		}),
		VerificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_published_total",
			Help:      "Verified results written to the results topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Verified results dropped or batches that failed to publish.",
		}),
		PublishBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_batch_duration_seconds",
			Help:      "Time to write one batch of results.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ForecastsSubmitted,
		m.Verifications,
		m.BrierScore,
		m.PointsAwarded,
		m.ReportFetchDuration,
		m.ReportFeedRequests,
		m.ReportCache,
		m.ReportsParsed,
		m.ReportLinesSkipped,
		m.StoreCorruptRecords,
		m.ImageryUp,
		m.PublisherRunning,
		m.PublishQueueDepth,
		m.VerificationsPublished,
		m.PublishErrors,
		m.PublishBatchDuration,
	}
}

// NewMetrics creates and registers all verifier metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
