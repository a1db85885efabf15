package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/pinauth"
	"github.com/segmentio/kafka-go"
)

// DefaultAuditTopic is used when no topic is configured.
const DefaultAuditTopic = "pinauth.audit.v1"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAuditSink publishes audit events as JSON messages keyed by operator
// id, so one operator's events stay ordered within a partition.
type KafkaAuditSink struct {
	writer messageWriter
	topic  string
}

func NewKafkaAuditSink(brokers []string, topic string) (*KafkaAuditSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka audit sink requires at least one broker")
	}
	return newKafkaAuditSink(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, topic), nil
}

func newKafkaAuditSink(w messageWriter, topic string) *KafkaAuditSink {
	if topic == "" {
		topic = DefaultAuditTopic
	}
	return &KafkaAuditSink{writer: w, topic: topic}
}

func (s *KafkaAuditSink) Write(ctx context.Context, event pinauth.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Topic: s.topic,
		Key:   []byte(partitionKey(event)),
		Value: payload,
		Time:  ts.UTC(),
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
	})
}

func (s *KafkaAuditSink) Close() error {
	return s.writer.Close()
}

func partitionKey(event pinauth.AuditEvent) string {
	if event.OperatorID > 0 {
		return strconv.FormatInt(event.OperatorID, 10)
	}
	if event.Username != "" {
		return "user:" + event.Username
	}
	return "anonymous"
}
