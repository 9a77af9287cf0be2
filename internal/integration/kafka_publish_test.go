//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/kafka"
	"github.com/couchcryptid/storm-forecast-verifier/internal/config"
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
	"github.com/couchcryptid/storm-forecast-verifier/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "test-verifications"

// publishedMessage holds a deserialized message read from the results topic.
type publishedMessage struct {
	Event   kafka.VerificationEvent
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from results topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event kafka.VerificationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal results message")

	return publishedMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func verifiedForecast(id, player string, points int) domain.Forecast {
	at := time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
	return domain.Forecast{
		ID:           id,
		Player:       player,
		Timestamp:    at.Add(-12 * time.Hour),
		RegionID:     19,
		Mode:         domain.ModeHistoric,
		ForecastDate: "240426",
		Areas: []domain.ForecastArea{
			{Hazard: domain.Tornado, Probability: 15, Path: []domain.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 0}}},
			{Hazard: domain.Hail, Probability: 30, Path: []domain.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 0}}},
		},
		Verified:   true,
		VerifiedAt: &at,
		Score: &domain.VerificationScore{
			TotalPoints:  points,
			BrierScore:   0.12,
			PerCategory:  map[domain.Hazard]domain.CategoryScore{},
			ReportCounts: map[domain.Hazard]int{domain.Tornado: 3, domain.Hail: 7},
		},
	}
}

// TestKafkaWriter verifies a verified forecast round-trips through Kafka with
// its key and headers.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.Forecast{verifiedForecast("fc-1", "alice", 42)}))

	pm := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "fc-1", pm.Key)
	assert.Equal(t, "tornado,hail", pm.Headers["hazards"])
	_, err := time.Parse(time.RFC3339, pm.Headers["verified_at"])
	assert.NoError(t, err, "verified_at should be valid RFC3339")

	assert.Equal(t, "alice", pm.Event.Player)
	assert.Equal(t, 42, pm.Event.TotalPoints)
	assert.Equal(t, "240426", pm.Event.ForecastDate)
	assert.Equal(t, 2, pm.Event.Areas)
	assert.Equal(t, 7, pm.Event.ReportCounts[domain.Hail])
}

// TestPublishPipelineEndToEnd wires Queue → Pipeline → Writer against a real
// broker. Unverified forecasts never reach the topic.
func TestPublishPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	queue := pipeline.NewQueue(16, 100*time.Millisecond, metrics)
	p := pipeline.New(queue, writer, discardLogger(), metrics, 10)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	players := []string{"alice", "bob", "carol"}
	for i, player := range players {
		require.NoError(t, queue.PublishVerification(ctx, verifiedForecast(fmt.Sprintf("fc-%d", i), player, 10*(i+1))))
	}
	require.NoError(t, queue.PublishVerification(ctx, domain.Forecast{ID: "pending", Player: "dave"}))

	consumer := newConsumer(t, broker)
	got := map[string]int{}
	for len(got) < len(players) {
		pm := readPublished(ctx, t, consumer)
		got[pm.Event.Player] = pm.Event.TotalPoints
	}
	assert.Equal(t, map[string]int{"alice": 10, "bob": 20, "carol": 30}, got)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "unverified forecast should not be published")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
