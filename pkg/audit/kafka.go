package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaConfig configures the streaming audit mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string

	// DialTimeout bounds broker connection attempts.
	// Default: 5 seconds
	DialTimeout time.Duration
}

// producer is the subset of *kgo.Client used by KafkaStore.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaStore publishes each entry to a topic, keyed by transaction id so
// that one transaction's entries stay ordered within a partition.
type KafkaStore struct {
	client producer
	topic  string
}

// NewKafkaStore connects a producer to the configured brokers.
func NewKafkaStore(cfg KafkaConfig) (*KafkaStore, error) {
	if len(cfg.Brokers) == 0 {
		return nil, NewStoreError("kafka", "connect", errors.New("no brokers configured"))
	}
	if cfg.Topic == "" {
		return nil, NewStoreError("kafka", "connect", errors.New("topic is required"))
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.DialTimeout(cfg.DialTimeout),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, NewStoreError("kafka", "connect", err)
	}
	return &KafkaStore{client: client, topic: cfg.Topic}, nil
}

// Backend returns "kafka".
func (s *KafkaStore) Backend() string { return "kafka" }

// Append produces e synchronously.
func (s *KafkaStore) Append(ctx context.Context, e Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return NewStoreError("kafka", "encode", err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(e.TransactionID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return NewStoreError("kafka", "produce", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (s *KafkaStore) Close() error {
	s.client.Close()
	return nil
}
