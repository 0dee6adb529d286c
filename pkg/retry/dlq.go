package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// dlqTopicSuffix names the dead letter topic next to its source topic
const dlqTopicSuffix = ".dlq"

// DLQMessage is a record that exhausted its retries, parked for inspection
type DLQMessage struct {
	ID            string            `json:"id"`
	OriginalTopic string            `json:"original_topic"`
	OriginalKey   string            `json:"original_key"`
	Payload       json.RawMessage   `json:"payload"`
	Headers       map[string]string `json:"headers,omitempty"`
	Error         string            `json:"error"`
	Attempts      int               `json:"attempts"`
	MovedToDLQAt  time.Time         `json:"moved_to_dlq_at"`
	Source        string            `json:"source"`
}

// Producer is the subset of a Kafka producer the DLQ publisher needs
type Producer interface {
	Produce(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

// DLQPublisher parks poison messages on a dead letter topic
type DLQPublisher struct {
	producer Producer
	source   string
}

// NewDLQPublisher creates a DLQ publisher. Source names the publishing service.
func NewDLQPublisher(producer Producer, source string) *DLQPublisher {
	return &DLQPublisher{producer: producer, source: source}
}

// Publish parks a message on <original_topic>.dlq
func (p *DLQPublisher) Publish(ctx context.Context, msg *DLQMessage) error {
	if msg == nil {
		return fmt.Errorf("dlq message is required")
	}

	msg.MovedToDLQAt = time.Now().UTC()
	msg.Source = p.source

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal dlq message: %w", err)
	}

	headers := map[string]string{
		"original_topic": msg.OriginalTopic,
		"error":          msg.Error,
		"attempts":       fmt.Sprintf("%d", msg.Attempts),
		"source":         msg.Source,
	}

	return p.producer.Produce(ctx, msg.OriginalTopic+dlqTopicSuffix, msg.OriginalKey, value, headers)
}
