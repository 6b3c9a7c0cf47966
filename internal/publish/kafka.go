// Package publish emits score events to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"example.com/physique/pkg/events"
)

// MessageWriter is the subset of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher lazily manages writers per topic.
type KafkaPublisher struct {
	brokers     []string
	scoresTopic string
	newWriter   func(topic string) MessageWriter

	mu      sync.Mutex
	writers map[string]MessageWriter
}

// NewKafkaPublisher creates a KafkaPublisher writing score events to scoresTopic.
func NewKafkaPublisher(brokers []string, scoresTopic string) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers:     brokers,
		scoresTopic: scoresTopic,
		writers:     make(map[string]MessageWriter),
	}
	p.newWriter = p.kafkaWriter
	return p
}

// PublishScores writes evt keyed by user id so a user's events stay ordered.
func (p *KafkaPublisher) PublishScores(ctx context.Context, evt events.ScoresRecalculated) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode scores event: %w", err)
	}
	return p.WriteMessages(ctx, p.scoresTopic, kafka.Message{
		Key:   []byte(evt.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeScoresRecalculated)},
			{Key: "content_type", Value: []byte("application/json")},
		},
	})
}

// WriteMessages writes messages to the given topic, creating a writer if necessary.
func (p *KafkaPublisher) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerForTopic(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) writerForTopic(topic string) MessageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}
	writer := p.newWriter(topic)
	p.writers[topic] = writer
	return writer
}

func (p *KafkaPublisher) kafkaWriter(topic string) MessageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
