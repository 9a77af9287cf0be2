package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
)

// ErrQueueFull is returned when a verified result cannot be queued without
// blocking the caller.
var ErrQueueFull = errors.New("publish queue full")

// Queue buffers verified forecasts between the session and the publisher
// loop. It implements session.Publisher on the producing side and
// BatchExtractor on the consuming side.
type Queue struct {
	items         chan domain.Forecast
	flushInterval time.Duration
	metrics       *observability.Metrics
}

// NewQueue creates a queue holding at most size results. A batch waits at
// most flushInterval after its first result for more to arrive.
func NewQueue(size int, flushInterval time.Duration, metrics *observability.Metrics) *Queue {
	return &Queue{
		items:         make(chan domain.Forecast, size),
		flushInterval: flushInterval,
		metrics:       metrics,
	}
}

// PublishVerification enqueues f without blocking.
func (q *Queue) PublishVerification(_ context.Context, f domain.Forecast) error {
	select {
	case q.items <- f:
		q.metrics.PublishQueueDepth.Set(float64(len(q.items)))
		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of queued results.
func (q *Queue) Len() int { return len(q.items) }

// ExtractBatch blocks for the first result, then collects up to batchSize
// until the flush interval passes or the queue runs dry.
func (q *Queue) ExtractBatch(ctx context.Context, batchSize int) ([]domain.Forecast, error) {
	var batch []domain.Forecast
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f := <-q.items:
		batch = append(batch, f)
	}

	timer := time.NewTimer(q.flushInterval)
	defer timer.Stop()
	for len(batch) < batchSize {
		select {
		case f := <-q.items:
			batch = append(batch, f)
		case <-timer.C:
			q.metrics.PublishQueueDepth.Set(float64(len(q.items)))
			return batch, nil
		case <-ctx.Done():
			q.metrics.PublishQueueDepth.Set(float64(len(q.items)))
			return batch, nil
		}
	}
	q.metrics.PublishQueueDepth.Set(float64(len(q.items)))
	return batch, nil
}
