package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/pkg/kafka"
)

// Stock event types
const (
	StockEventSold     = "product.sold"
	StockEventAdjusted = "stock.adjusted"
)

// StockEvent is the record published whenever stock changes
type StockEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	Action    string    `json:"action"`
	Quantity  int       `json:"quantity"`
	Stock     int       `json:"stock"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher publishes stock change events. Publishing is best-effort:
// the stock mutation has already committed by the time an event goes out.
type EventPublisher interface {
	PublishStockChanged(ctx context.Context, eventType string, product *domain.Product, action domain.StockAction, quantity int) error
	Close() error
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "stock-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "flowershop-backend"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "flowershop-backend-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishStockChanged publishes a stock change event keyed by product ID
func (p *KafkaEventPublisher) PublishStockChanged(ctx context.Context, eventType string, product *domain.Product, action domain.StockAction, quantity int) error {
	event := StockEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		ProductID: product.ID,
		Action:    string(action),
		Quantity:  quantity,
		Stock:     product.Stock,
		Source:    p.serviceName,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type": eventType,
		"source":     p.serviceName,
	}

	return p.producer.Produce(ctx, p.topic, strconv.FormatInt(product.ID, 10), value, headers)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoOpEventPublisher discards events. Used when the broker is unreachable so
// stock mutations keep working without eventing.
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishStockChanged(ctx context.Context, eventType string, product *domain.Product, action domain.StockAction, quantity int) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}

// Ensure implementations satisfy EventPublisher
var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
)
