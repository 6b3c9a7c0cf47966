// Package consumer streams Kafka workout events into score recalculation.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader describes the kafka.Reader functions the processor interacts with.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler processes decoded Kafka messages.
type Handler interface {
	Handle(context.Context, Message) error
}

// ErrPermanent marks handler failures that redelivery cannot fix. Messages
// failing with it are committed so they do not block the partition.
var ErrPermanent = errors.New("permanent message failure")

// Message represents a decoded Kafka record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Payload   json.RawMessage
	Timestamp time.Time
	Headers   map[string]string
}

// EventType returns the event_type header.
func (m Message) EventType() string {
	return m.Headers["event_type"]
}

// Option configures processor behaviour.
type Option func(*Processor)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// Processor coordinates the consumer loop.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *slog.Logger
}

// NewProcessor constructs a processor from a reader/handler pair.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{reader: reader, handler: handler, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes messages until ctx cancellation. Successfully handled and
// permanently failed messages are committed; transient failures are left
// uncommitted for redelivery.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn("consumer: fetch error", "error", err)
			continue
		}

		decoded := decode(msg)
		if err := p.handler.Handle(ctx, decoded); err != nil {
			recordHandlerError(decoded)
			p.logger.Error("consumer: handler error",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset,
				"event_type", decoded.EventType(), "error", err)
			if !errors.Is(err, ErrPermanent) {
				continue
			}
		} else {
			recordProcessed(decoded)
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			p.logger.Warn("consumer: commit error", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

func decode(msg kafka.Message) Message {
	decoded := Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Payload:   append(json.RawMessage{}, msg.Value...),
		Timestamp: msg.Time,
		Headers:   make(map[string]string, len(msg.Headers)),
	}
	for _, header := range msg.Headers {
		decoded.Headers[header.Key] = string(header.Value)
	}
	return decoded
}
