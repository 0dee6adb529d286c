package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topics        []string
	ClientID      string
	MaxRetries    int
	RetryInterval time.Duration
}

// Record is one consumed message
type Record struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64

	raw *kgo.Record
}

// Consumer wraps a franz-go consumer group client
type Consumer struct {
	client *kgo.Client
	config *ConsumerConfig
}

// NewConsumer creates a consumer group client and verifies connectivity
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka group id is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(cfg.RetryInterval)
		}
		if lastErr = client.Ping(ctx); lastErr == nil {
			return &Consumer{client: client, config: cfg}, nil
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to kafka after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// Poll fetches the next batch of records, blocking until at least one record
// arrives or the context ends
func (c *Consumer) Poll(ctx context.Context) ([]*Record, error) {
	fetches := c.client.PollFetches(ctx)
	if err := fetches.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to poll kafka: %w", err)
	}

	var records []*Record
	fetches.EachRecord(func(r *kgo.Record) {
		headers := make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
		records = append(records, &Record{
			Topic:   r.Topic,
			Key:     r.Key,
			Value:   r.Value,
			Headers: headers,
			Offset:  r.Offset,
			raw:     r,
		})
	})

	return records, nil
}

// CommitRecords commits offsets for processed records
func (c *Consumer) CommitRecords(ctx context.Context, records []*Record) error {
	raws := make([]*kgo.Record, 0, len(records))
	for _, r := range records {
		if r.raw != nil {
			raws = append(raws, r.raw)
		}
	}
	if len(raws) == 0 {
		return nil
	}
	if err := c.client.CommitRecords(ctx, raws...); err != nil {
		return fmt.Errorf("failed to commit offsets: %w", err)
	}
	return nil
}

// Close leaves the group and closes the client
func (c *Consumer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
