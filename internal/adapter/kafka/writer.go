package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/storm-forecast-verifier/internal/config"
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

var errUnverified = errors.New("forecast is not verified")

// VerificationEvent is the message body published for each verified forecast.
type VerificationEvent struct {
	ForecastID   string                                 `json:"forecast_id"`
	Player       string                                 `json:"player"`
	RegionID     int                                    `json:"region_id"`
	Mode         domain.Mode                            `json:"mode"`
	ForecastDate string                                 `json:"forecast_date"`
	SubmittedAt  time.Time                              `json:"submitted_at"`
	VerifiedAt   time.Time                              `json:"verified_at"`
	TotalPoints  int                                    `json:"total_points"`
	BrierScore   float64                                `json:"brier_score"`
	PerCategory  map[domain.Hazard]domain.CategoryScore `json:"per_category"`
	ReportCounts map[domain.Hazard]int                  `json:"report_counts"`
	Areas        int                                    `json:"areas"`
}

// Writer publishes verification results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes verified forecasts in a single
// WriteMessages call. Messages are keyed by forecast id so redeliveries of
// the same result land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, forecasts []domain.Forecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(forecasts))
	for i := range forecasts {
		msg, err := serializeToMessage(forecasts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d verifications: %w", len(msgs), err)
	}
	w.logger.Debug("verifications published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func newVerificationEvent(f domain.Forecast) (VerificationEvent, error) {
	if !f.Verified || f.Score == nil || f.VerifiedAt == nil {
		return VerificationEvent{}, fmt.Errorf("serialize %s: %w", f.ID, errUnverified)
	}
	return VerificationEvent{
		ForecastID:   f.ID,
		Player:       f.Player,
		RegionID:     f.RegionID,
		Mode:         f.Mode,
		ForecastDate: f.ForecastDate,
		SubmittedAt:  f.Timestamp,
		VerifiedAt:   *f.VerifiedAt,
		TotalPoints:  f.Score.TotalPoints,
		BrierScore:   f.Score.BrierScore,
		PerCategory:  f.Score.PerCategory,
		ReportCounts: f.Score.ReportCounts,
		Areas:        len(f.Areas),
	}, nil
}

// serializeToMessage marshals a verified forecast into a Kafka message.
func serializeToMessage(f domain.Forecast) (kafkago.Message, error) {
	event, err := newVerificationEvent(f)
	if err != nil {
		return kafkago.Message{}, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize verification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(f.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hazards", Value: []byte(forecastHazards(f))},
			{Key: "verified_at", Value: []byte(event.VerifiedAt.Format(time.RFC3339))},
		},
	}, nil
}

// forecastHazards lists the hazards drawn, in canonical order.
func forecastHazards(f domain.Forecast) string {
	var names []string
	for _, h := range domain.Hazards {
		for _, a := range f.Areas {
			if a.Hazard == h {
				names = append(names, h.String())
				break
			}
		}
	}
	return strings.Join(names, ",")
}
