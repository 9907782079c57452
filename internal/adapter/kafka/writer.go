package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/galaxia/internal/config"
	"github.com/couchcryptid/galaxia/internal/domain"
)

const (
	// messageKey keeps every snapshot on one partition so consumers see them in order.
	messageKey = "iss"
	sourceName = "galaxia-tracker"
)

// Writer publishes ISS snapshots to the telemetry topic.
// It implements tracker.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured telemetry topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTelemetryTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes and publishes one snapshot.
func (w *Writer) Load(ctx context.Context, s domain.ISSState) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a snapshot into a Kafka message.
func serializeToMessage(s domain.ISSState) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize iss state: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(sourceName)},
			{Key: "updated_at", Value: []byte(s.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
