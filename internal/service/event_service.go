package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Event types published to Kafka. Consumers (notification fan-out, balance
// recomputation) are external; publishing is fire-and-forget after commit
// and never fails the originating call.
const (
	EventFriendAccepted  = "friend.accepted"
	EventMemberMerged    = "member.merged"
	EventMemberRemoved   = "member.removed"
	EventAccountUnlinked = "account.unlinked"
)

type eventEnvelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// EventService wraps a sarama sync producer. A nil producer disables
// publishing entirely, which is how tests and broker-less deployments run.
type EventService struct {
	producer sarama.SyncProducer
	topic    string
}

func NewEventService(producer sarama.SyncProducer, topic string) *EventService {
	return &EventService{producer: producer, topic: topic}
}

// NewKafkaProducer builds the producer the way the service expects it:
// full acks, snappy compression, hash partitioning by key so events for
// one identity stay ordered.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0

	return sarama.NewSyncProducer(brokers, config)
}

// Publish sends one event keyed by key. Errors are logged and swallowed;
// the store is the source of truth and a lost event must not roll back a
// committed mutation.
func (s *EventService) Publish(ctx context.Context, eventType, key string, payload interface{}) {
	if s == nil || s.producer == nil {
		return
	}

	body, err := json.Marshal(eventEnvelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		slog.Error("Failed to encode event", "type", eventType, "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		slog.Error("Failed to publish event", "type", eventType, "key", key, "error", err)
		return
	}
	slog.Debug("Published event", "type", eventType, "key", key)
}

func (s *EventService) Close() error {
	if s == nil || s.producer == nil {
		return nil
	}
	return s.producer.Close()
}
