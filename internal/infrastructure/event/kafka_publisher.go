package event

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/erp/returns/internal/domain/shared"
	"go.uber.org/zap"
)

// Kafka header names set on every relayed message
const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderStoreID       = "store_id"
	HeaderAggregateType = "aggregate_type"
)

// KafkaConfig configures the broker connection
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaPublisher relays outbox entries to a Kafka topic. Messages are keyed
// by aggregate ID so every event of one RMA lands on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher dials the brokers with an idempotent sync producer
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	sc := sarama.NewConfig()
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Version = sarama.V2_1_0_0
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = true
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// Send publishes the entry's payload unchanged
func (p *KafkaPublisher) Send(ctx context.Context, entry *shared.OutboxEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(entry.PartitionKey()),
		Value: sarama.ByteEncoder(entry.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventID), Value: []byte(entry.EventID.String())},
			{Key: []byte(HeaderEventType), Value: []byte(entry.EventType)},
			{Key: []byte(HeaderStoreID), Value: []byte(entry.StoreID.String())},
			{Key: []byte(HeaderAggregateType), Value: []byte(entry.AggregateType)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s to kafka: %w", entry.EventType, err)
	}
	p.logger.Debug("event sent to kafka",
		zap.String("topic", p.topic),
		zap.String("event_id", entry.EventID.String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close closes the underlying producer
func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ Sink = (*KafkaPublisher)(nil)
