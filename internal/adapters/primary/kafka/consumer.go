package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/logging"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

// Consumer outcome labels.
const (
	OutcomeAccepted     = "accepted"
	OutcomeMalformed    = "malformed"
	OutcomeUnregistered = "unregistered"
	OutcomeFailed       = "failed"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures the reader built by NewReader.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewReader creates a consumer-group reader for the domain event topic.
func NewReader(cfg Config) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0,
		StartOffset:    kafkago.LastOffset,
	})
}

// Consumer feeds domain events published by other services into the
// notification pipeline. Every message is committed once handled, including
// ones that cannot be decoded or name an unknown event type.
type Consumer struct {
	reader        MessageReader
	notifications ports.NotificationService
	newBackOff    func() backoff.BackOff
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewConsumer creates a new Kafka domain event consumer
func NewConsumer(reader MessageReader, notifications ports.NotificationService, m *metrics.Metrics, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:        reader,
		notifications: notifications,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		metrics: m,
		logger:  logger.With("component", "kafka_consumer"),
	}
}

// Run consumes until ctx is cancelled. Fetch and commit failures are retried
// with exponential backoff; the reader is closed on return.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close kafka reader", "error", err)
		}
	}()

	c.logger.Info("kafka consumer started")
	for {
		msg, err := c.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("kafka consumer stopped")
				return nil
			}
			return err
		}

		c.handle(ctx, msg)

		if err := c.commit(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) fetch(ctx context.Context) (kafkago.Message, error) {
	var msg kafkago.Message
	op := func() error {
		var err error
		msg, err = c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("kafka fetch failed, retrying", "error", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return kafkago.Message{}, fmt.Errorf("fetch message: %w", err)
	}
	return msg, nil
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) error {
	op := func() error {
		return c.reader.CommitMessages(ctx, msg)
	}
	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) {
	ctx, span := otel.Tracer("kafka-consumer").Start(ctx, "kafka.consume")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.kafka.topic", msg.Topic),
		attribute.Int64("messaging.kafka.offset", msg.Offset),
	)

	event, err := Decode(msg.Value)
	if err != nil {
		c.metrics.KafkaEvents.WithLabelValues(OutcomeMalformed).Inc()
		c.logger.WarnContext(ctx, "dropping malformed domain event",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return
	}

	ctx = logging.WithEventType(ctx, string(event.Type()))
	span.SetAttributes(attribute.String("event.type", string(event.Type())))

	err = c.notifications.SendNotification(ctx, event.Type(), event.Payload())
	switch {
	case err == nil:
		c.metrics.KafkaEvents.WithLabelValues(OutcomeAccepted).Inc()
	case errors.Is(err, apperrors.ErrUnregisteredEventType):
		c.metrics.KafkaEvents.WithLabelValues(OutcomeUnregistered).Inc()
		c.logger.WarnContext(ctx, "ignoring unregistered event type", "offset", msg.Offset)
	default:
		span.RecordError(err)
		c.metrics.KafkaEvents.WithLabelValues(OutcomeFailed).Inc()
		c.logger.ErrorContext(ctx, "failed to publish domain event", "offset", msg.Offset, "error", err)
	}
}

// Decode parses a {type, payload, occurredAt} record.
func Decode(value []byte) (domain.DomainEvent, error) {
	var event domain.DomainEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return domain.DomainEvent{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedMessage, err)
	}
	if event.Type() == "" {
		return domain.DomainEvent{}, fmt.Errorf("%w: missing event type", apperrors.ErrMalformedMessage)
	}
	return event, nil
}
