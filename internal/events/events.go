package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	MentorRegistered = "mentor.registered"
	ActivityCreated  = "activity.created"
	ActivityJoined   = "activity.joined"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType, key string, payload any) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event as one message keyed by the aggregate id.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", evt.Type, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(evt.Key),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(evt.Type)}},
		Time:    evt.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", evt.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.logger.Debug("Domain event", "type", evt.Type, "key", evt.Key)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
