//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/tmc-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/tmc-data-etl/internal/config"
	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/observability"
)

const testDetailTopic = "test-tmc-detail"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka spins up a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// detailRows builds the rows one small batch would publish: totals and
// percent-heavy for one site and day part.
func detailRows() []domain.DetailRow {
	return []domain.DetailRow{
		{
			LocationID: "150314",
			Name:       "Main St and Oak Ave",
			DayPart:    domain.AM,
			Kind:       domain.DetailTotals,
			Window:     "07:15 to 08:15",
			Values:     map[string]float64{"SB Left": 42, "SB Thru": 118},
			Volume:     160,
			PHF:        0.87,
		},
		{
			LocationID: "150314",
			Name:       "Main St and Oak Ave",
			DayPart:    domain.AM,
			Kind:       domain.DetailPercentHeavy,
			Window:     "07:15 to 08:15",
			Values:     map[string]float64{"SB Left": 4.76, "SB Thru": 11.86},
		},
	}
}

// TestWriterPublishDetail verifies the producer against a real broker:
// every row arrives with its site key, day-part and kind headers, and a
// JSON body the consumer side can decode back into a detail row.
func TestWriterPublishDetail(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testDetailTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaDetailTopic: testDetailTopic,
	}

	writer := kafkaadapter.NewWriter(cfg, observability.NewMetricsForTesting(), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	rows := detailRows()
	require.NoError(t, writer.PublishDetail(ctx, rows))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testDetailTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]domain.DetailRow, 0, len(rows))
	kinds := make([]string, 0, len(rows))
	for len(received) < len(rows) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from detail topic")

		assert.Equal(t, "150314", string(msg.Key))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "AM", headers["day_part"])
		kinds = append(kinds, headers["kind"])

		var row domain.DetailRow
		require.NoError(t, json.Unmarshal(msg.Value, &row))
		received = append(received, row)
	}

	assert.ElementsMatch(t, []string{"totals", "pct heavy"}, kinds)

	require.Len(t, received, 2)
	assert.Equal(t, rows[0].Window, received[0].Window)
	assert.Equal(t, 42.0, received[0].Values["SB Left"])
	assert.Equal(t, 0.87, received[0].PHF)
	assert.Equal(t, domain.DetailPercentHeavy, received[1].Kind)
	assert.Zero(t, received[1].Volume, "percent-heavy rows carry no volume")
}

// TestWriterPublishDetail_EmptyBatch confirms an empty slice is a no-op
// rather than an error, matching how a report with no detail rows behaves.
func TestWriterPublishDetail_EmptyBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testDetailTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaDetailTopic: testDetailTopic,
	}

	writer := kafkaadapter.NewWriter(cfg, observability.NewMetricsForTesting(), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishDetail(ctx, nil))
}
