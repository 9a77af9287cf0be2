// Package pipeline moves verified forecasts from the session to the results
// topic in the background, so a slow or unavailable broker never delays a
// verification response.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
)

// BatchExtractor reads up to batchSize verified forecasts.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.Forecast, error)
}

// BatchLoader writes multiple verified forecasts to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, forecasts []domain.Forecast) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-load loop.
type Pipeline struct {
	extractor BatchExtractor
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Run executes the publish loop until the context is cancelled. A batch that
// fails to load is retried with exponential backoff until it succeeds or the
// context ends; results still in flight at that point are dropped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("publisher started", "batch_size", p.batchSize)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	for {
		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("publisher stopping", "reason", ctx.Err())
				return nil
			}
			return fmt.Errorf("extract batch: %w", err)
		}

		batch = p.publishable(batch)
		if len(batch) == 0 {
			continue
		}
		if !p.load(ctx, batch) {
			p.metrics.PublishErrors.Add(float64(len(batch)))
			p.logger.Warn("publisher stopped with unpublished results", "dropped", len(batch))
			return nil
		}
	}
}

// publishable drops forecasts that carry no verification.
func (p *Pipeline) publishable(batch []domain.Forecast) []domain.Forecast {
	out := batch[:0]
	for _, f := range batch {
		if !f.Verified || f.Score == nil || f.Score.Simulated {
			p.logger.Warn("skipping unverified forecast", "forecast_id", f.ID)
			p.metrics.PublishErrors.Inc()
			continue
		}
		out = append(out, f)
	}
	return out
}

// load writes one batch, backing off between attempts. Returns false if the
// context ended first.
func (p *Pipeline) load(ctx context.Context, batch []domain.Forecast) bool {
	backoff := initialBackoff
	for {
		start := time.Now()
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			p.metrics.PublishBatchDuration.Observe(time.Since(start).Seconds())
			p.metrics.VerificationsPublished.Add(float64(len(batch)))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "retry_in", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}
