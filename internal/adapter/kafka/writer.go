package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/tmc-data-etl/internal/config"
	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes report detail rows to a Kafka topic so downstream
// consumers (dashboards, archives) receive per-site metrics without
// parsing the workbook output.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured detail topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDetailTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// PublishDetail serializes and publishes all detail rows in a single
// WriteMessages call. Rows for the same site share a key, so per-site
// ordering survives partitioning.
func (w *Writer) PublishDetail(ctx context.Context, rows []domain.DetailRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish detail rows: %w", err)
	}
	w.metrics.DetailRowsPublished.Add(float64(len(rows)))
	w.logger.Info("published detail rows", "count", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a detail row into a Kafka message.
func serializeToMessage(row domain.DetailRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize detail row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "day_part", Value: []byte(row.DayPart)},
			{Key: "kind", Value: []byte(row.Kind)},
		},
	}, nil
}
