package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
	"github.com/couchcryptid/storm-forecast-verifier/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLoader struct {
	mu       sync.Mutex
	failures int
	calls    int
	loaded   []string
}

func (m *mockLoader) LoadBatch(_ context.Context, forecasts []domain.Forecast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	for _, f := range forecasts {
		m.loaded = append(m.loaded, f.ID)
	}
	return nil
}

func (m *mockLoader) snapshot() (int, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, append([]string(nil), m.loaded...)
}

func verified(id string) domain.Forecast {
	at := time.Date(2024, 4, 27, 1, 0, 0, 0, time.UTC)
	return domain.Forecast{ID: id, Verified: true, VerifiedAt: &at, Score: &domain.VerificationScore{TotalPoints: 10}}
}

func runUntilLoaded(t *testing.T, p *pipeline.Pipeline, ldr *mockLoader, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, loaded := ldr.snapshot()
		return len(loaded) >= want
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// --- tests ---

func TestQueue_PublishAndExtract(t *testing.T) {
	m := observability.NewMetricsForTesting()
	q := pipeline.NewQueue(4, 10*time.Millisecond, m)
	ctx := context.Background()

	require.NoError(t, q.PublishVerification(ctx, verified("a")))
	require.NoError(t, q.PublishVerification(ctx, verified("b")))
	require.NoError(t, q.PublishVerification(ctx, verified("c")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PublishQueueDepth))

	batch, err := q.ExtractBatch(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].ID)

	batch, err = q.ExtractBatch(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 1, "flush interval ends a short batch")
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Full(t *testing.T) {
	q := pipeline.NewQueue(1, time.Millisecond, observability.NewMetricsForTesting())
	ctx := context.Background()

	require.NoError(t, q.PublishVerification(ctx, verified("a")))
	assert.ErrorIs(t, q.PublishVerification(ctx, verified("b")), pipeline.ErrQueueFull)
}

func TestQueue_ExtractCancelled(t *testing.T) {
	q := pipeline.NewQueue(1, time.Millisecond, observability.NewMetricsForTesting())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.ExtractBatch(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Run_HappyPath(t *testing.T) {
	m := observability.NewMetricsForTesting()
	q := pipeline.NewQueue(8, 5*time.Millisecond, m)
	ldr := &mockLoader{}
	p := pipeline.New(q, ldr, slog.Default(), m, 10)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.PublishVerification(context.Background(), verified(id)))
	}

	runUntilLoaded(t, p, ldr, 3)

	_, loaded := ldr.snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, loaded)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.VerificationsPublished))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PublisherRunning))
}

func TestPipeline_Run_RetriesFailedBatch(t *testing.T) {
	m := observability.NewMetricsForTesting()
	q := pipeline.NewQueue(8, time.Millisecond, m)
	ldr := &mockLoader{failures: 2}
	p := pipeline.New(q, ldr, slog.Default(), m, 10)

	require.NoError(t, q.PublishVerification(context.Background(), verified("a")))

	runUntilLoaded(t, p, ldr, 1)

	calls, loaded := ldr.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"a"}, loaded)
}

func TestPipeline_Run_SkipsUnverified(t *testing.T) {
	m := observability.NewMetricsForTesting()
	q := pipeline.NewQueue(8, 5*time.Millisecond, m)
	ldr := &mockLoader{}
	p := pipeline.New(q, ldr, slog.Default(), m, 10)

	simulated := verified("sim")
	simulated.Score = &domain.VerificationScore{Simulated: true}
	ctx := context.Background()
	require.NoError(t, q.PublishVerification(ctx, domain.Forecast{ID: "pending"}))
	require.NoError(t, q.PublishVerification(ctx, simulated))
	require.NoError(t, q.PublishVerification(ctx, verified("ok")))

	runUntilLoaded(t, p, ldr, 1)

	_, loaded := ldr.snapshot()
	assert.Equal(t, []string{"ok"}, loaded)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishErrors))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	m := observability.NewMetricsForTesting()
	q := pipeline.NewQueue(1, time.Millisecond, m)
	p := pipeline.New(q, &mockLoader{}, slog.Default(), m, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, p.Run(ctx))
}

func TestPipeline_Run_DropsBatchOnShutdown(t *testing.T) {
	m := observability.NewMetricsForTesting()
	q := pipeline.NewQueue(8, time.Millisecond, m)
	ldr := &mockLoader{failures: 1000}
	p := pipeline.New(q, ldr, slog.Default(), m, 10)
	require.NoError(t, q.PublishVerification(context.Background(), verified("a")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		calls, _ := ldr.snapshot()
		return calls >= 1
	}, 5*time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors))
}
