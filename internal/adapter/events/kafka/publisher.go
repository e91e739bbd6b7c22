package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

// DefaultTopic receives change events unless configured otherwise.
const DefaultTopic = "giftledger.entries"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger change events to a Kafka topic, keyed by sequence number.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a publisher for topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Publish encodes event as JSON and writes it synchronously.
func (p *Publisher) Publish(ctx context.Context, event *domain.ChangeEvent) error {
	data, err := json.Marshal(envelopeFromEvent(event))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.Seq, 10)),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event for entry %d: %w", event.Type, event.Seq, err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

type envelope struct {
	Entry      *domain.EntryPayload `json:"entry,omitempty"`
	Type       string               `json:"type"`
	OccurredAt string               `json:"occurred_at"`
	Seq        int64                `json:"seq"`
}

func envelopeFromEvent(event *domain.ChangeEvent) envelope {
	return envelope{
		Type:       event.Type,
		Seq:        event.Seq,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339),
		Entry:      event.Payload,
	}
}

var _ usecase.ChangePublisher = (*Publisher)(nil)
