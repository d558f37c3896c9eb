package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/portfolio/backend/internal/model"
)

// EventMessageReceived is the event type published for new messages.
const EventMessageReceived = "message.received"

// MessageWriter is the subset of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes a JSON event per new message, keyed by message id.
type KafkaNotifier struct {
	w MessageWriter
}

// NewKafkaNotifier creates a notifier writing to topic on the given brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}}
}

func newKafkaNotifierWithWriter(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{w: w}
}

type messageEvent struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Message    *model.Message `json:"message"`
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg *model.Message) error {
	b, err := json.Marshal(messageEvent{
		Type:       EventMessageReceived,
		OccurredAt: time.Now().UTC(),
		Message:    msg,
	})
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	if err := n.w.WriteMessages(ctx, kafka.Message{Key: []byte(msg.ID), Value: b}); err != nil {
		return fmt.Errorf("notify: kafka write: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}
