// Package kafka publishes committed ledger entries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/SscSPs/study_coins/internal/core/ports"
	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

// Publisher writes LedgerEvents keyed by account ID, so one account's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

var _ ports.LedgerEventPublisher = (*Publisher)(nil)

// NewPublisher creates an asynchronous publisher for topic on brokers.
// Delivery failures surface through logger once the batch completes.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           5 * time.Second,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
			Async:                  true,
			Completion:             logCompletion(logger.With(slog.String("topic", topic))),
		},
	}
}

// PublishLedgerEvent enqueues one event. It returns before the brokers acknowledge it.
func (p *Publisher) PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish ledger event %s: %w", event.EventID, err)
	}
	return nil
}

func logCompletion(logger *slog.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, msg := range messages {
			logger.Error("Failed to deliver ledger event",
				slog.String("account_id", string(msg.Key)),
				slog.String("event_type", headerValue(msg, eventTypeHeader)),
				slog.String("error", err.Error()))
		}
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close flushes pending writes and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(event domain.LedgerEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode ledger event %s: %w", event.EventID, err)
	}
	return kafka.Message{
		Key:   []byte(event.AccountID),
		Value: data,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}, nil
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

var _ ports.LedgerEventPublisher = NoopPublisher{}

func (NoopPublisher) PublishLedgerEvent(context.Context, domain.LedgerEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }

// NewLedgerEventPublisher returns a Kafka publisher, or a NoopPublisher when brokers is empty.
func NewLedgerEventPublisher(brokers []string, topic string, logger *slog.Logger) ports.LedgerEventPublisher {
	if len(brokers) == 0 {
		return NoopPublisher{}
	}
	return NewPublisher(brokers, topic, logger)
}
