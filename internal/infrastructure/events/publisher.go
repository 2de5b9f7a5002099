package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pricewise/backend/internal/domain"
	"github.com/segmentio/kafka-go"
)

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes price events to a Kafka topic, keyed by barcode
// so every observation of a product lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for the given brokers.
// brokers can be a comma-separated list of host:port.
func NewKafkaPublisher(brokers string, topic string) (*KafkaPublisher, error) {
	addrs := ParseBrokers(brokers)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no kafka brokers configured", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: empty kafka topic", domain.ErrInvalidInput)
	}
	return &KafkaPublisher{topic: topic, writer: newWriter(addrs, topic)}, nil
}

// publishBatchTimeout bounds how long a synchronous write waits for a batch
// to fill. kafka-go defaults to one second, which every price recording
// would pay.
const publishBatchTimeout = 10 * time.Millisecond

func newWriter(addrs []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: publishBatchTimeout,
		WriteTimeout: 5 * time.Second,
	}
}

// NewKafkaPublisherWith is only for tests to inject a fake writer.
func NewKafkaPublisherWith(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// ParseBrokers splits a comma-separated broker list, dropping blanks
func ParseBrokers(s string) []string {
	var brokers []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return brokers
}

// PublishPriceRecorded writes one JSON-encoded event
func (p *KafkaPublisher) PublishPriceRecorded(ctx context.Context, event domain.PriceRecordedEvent) error {
	b, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Barcode),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("price.recorded")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPriceRecorded(context.Context, domain.PriceRecordedEvent) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
