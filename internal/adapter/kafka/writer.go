package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pier-dxv-etl/internal/config"
	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	maxAttempts    = 4
)

// messageWriter is the subset of *kafkago.Writer the Writer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes pier results to a Kafka topic, one message per row.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return newWriter(w, cfg.BatchSize, logger)
}

func newWriter(w messageWriter, batchSize int, logger *slog.Logger) *Writer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Writer{writer: w, batchSize: batchSize, logger: logger}
}

// LoadBatch serializes the results of run and publishes them in chunks of the
// configured batch size. A failed chunk is retried with exponential backoff.
func (w *Writer) LoadBatch(ctx context.Context, run *domain.Run, results []domain.PierResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(run, results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += w.batchSize {
		end := min(start+w.batchSize, len(msgs))
		if err := w.publish(ctx, msgs[start:end]); err != nil {
			return fmt.Errorf("publish results %d-%d of run %s: %w", start, end-1, run.ID, err)
		}
	}
	w.logger.Debug("results published", "run_id", run.ID, "count", len(msgs))
	return nil
}

func (w *Writer) publish(ctx context.Context, msgs []kafkago.Message) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		w.logger.Warn("kafka write failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return err
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PierResult into a Kafka message keyed by pier node.
func serializeToMessage(run *domain.Run, result domain.PierResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize pier result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.PierNode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(run.ID)},
			{Key: "scour_run", Value: []byte(run.ScourRun)},
			{Key: "produced_at", Value: []byte(run.FinishedAt.Format(time.RFC3339))},
		},
	}, nil
}
