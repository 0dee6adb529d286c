package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/petalworks/flowershop-backend/internal/service"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/kafka"
	"github.com/petalworks/flowershop-backend/pkg/logger"
	"github.com/petalworks/flowershop-backend/pkg/retry"
	"go.uber.org/zap"
)

// StockAuditWorkerConfig holds configuration for the stock audit worker
type StockAuditWorkerConfig struct {
	BatchInterval time.Duration
	MaxBatchSize  int
}

// movement is one audit row waiting for the next flush
type movement struct {
	EventID    string
	EventType  string
	ProductID  int64
	Action     string
	Quantity   int
	StockAfter int
	Source     string
	OccurredAt time.Time
}

// StockAuditWorker consumes stock events and writes an audit trail of stock
// movements to PostgreSQL in batches. Inserts are keyed by event ID, so
// redelivered records land exactly once.
type StockAuditWorker struct {
	config   *StockAuditWorkerConfig
	consumer *kafka.Consumer
	db       *database.PostgresDB
	dlq      *retry.DLQPublisher
	log      *zap.Logger

	mu    sync.Mutex
	batch []movement
}

// NewStockAuditWorker creates a new stock audit worker. The DLQ publisher may
// be nil, in which case poison records are logged and skipped.
func NewStockAuditWorker(
	cfg *StockAuditWorkerConfig,
	consumer *kafka.Consumer,
	db *database.PostgresDB,
	dlq *retry.DLQPublisher,
) *StockAuditWorker {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 5 * time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1000
	}

	return &StockAuditWorker{
		config:   cfg,
		consumer: consumer,
		db:       db,
		dlq:      dlq,
		log:      logger.Get(),
	}
}

// Start consumes events until the context ends, then flushes what is left
func (w *StockAuditWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.BatchInterval)
	defer ticker.Stop()

	flushCh := make(chan struct{}, 1)
	go w.consumeLoop(ctx, flushCh)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stock audit worker stopping, flushing remaining batch")
			w.flushBatch(context.Background())
			return
		case <-ticker.C:
			w.flushBatch(ctx)
		case <-flushCh:
			w.flushBatch(ctx)
		}
	}
}

func (w *StockAuditWorker) consumeLoop(ctx context.Context, flushCh chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			records, err := w.consumer.Poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Error("failed to poll kafka", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(records) == 0 {
				continue
			}

			for _, record := range records {
				if err := w.processRecord(ctx, record); err != nil {
					w.log.Error("failed to process record",
						zap.String("topic", record.Topic),
						zap.Int64("offset", record.Offset),
						zap.Error(err),
					)
				}
			}

			if err := w.consumer.CommitRecords(ctx, records); err != nil {
				w.log.Error("failed to commit offsets", zap.Error(err))
			}

			w.mu.Lock()
			batchSize := len(w.batch)
			w.mu.Unlock()
			if batchSize >= w.config.MaxBatchSize {
				select {
				case flushCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// processRecord queues one event for the next flush. Records that cannot be
// decoded are parked on the dead letter topic.
func (w *StockAuditWorker) processRecord(ctx context.Context, record *kafka.Record) error {
	var event service.StockEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		w.park(ctx, record, err)
		return fmt.Errorf("failed to unmarshal stock event: %w", err)
	}
	if event.EventID == "" || event.ProductID == 0 {
		err := fmt.Errorf("stock event missing event_id or product_id")
		w.park(ctx, record, err)
		return err
	}

	w.mu.Lock()
	w.batch = append(w.batch, movement{
		EventID:    event.EventID,
		EventType:  event.EventType,
		ProductID:  event.ProductID,
		Action:     event.Action,
		Quantity:   event.Quantity,
		StockAfter: event.Stock,
		Source:     event.Source,
		OccurredAt: event.Timestamp,
	})
	w.mu.Unlock()
	return nil
}

func (w *StockAuditWorker) park(ctx context.Context, record *kafka.Record, cause error) {
	if w.dlq == nil {
		return
	}
	err := w.dlq.Publish(ctx, &retry.DLQMessage{
		OriginalTopic: record.Topic,
		OriginalKey:   string(record.Key),
		Payload:       record.Value,
		Headers:       record.Headers,
		Error:         cause.Error(),
		Attempts:      1,
	})
	if err != nil {
		w.log.Error("failed to publish to dlq", zap.Error(err))
	}
}

// flushBatch writes queued movements in one transaction, retrying transient
// failures. A batch that still cannot be written goes back in the queue.
func (w *StockAuditWorker) flushBatch(ctx context.Context) {
	w.mu.Lock()
	if len(w.batch) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.batch
	w.batch = nil
	w.mu.Unlock()

	result := retry.Do(ctx, &retry.Config{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}, func(ctx context.Context) error {
		return w.insertBatch(ctx, batch)
	})

	if result.Err != nil {
		w.log.Error("failed to flush stock movements",
			zap.Int("batch_size", len(batch)),
			zap.Error(result.LastError),
		)
		w.restore(batch)
		return
	}

	w.log.Info("flushed stock movements", zap.Int("batch_size", len(batch)))
}

func (w *StockAuditWorker) insertBatch(ctx context.Context, batch []movement) error {
	return database.WithinTx(ctx, w.db.Pool(), func(ctx context.Context, tx pgx.Tx) error {
		for _, m := range batch {
			_, err := tx.Exec(ctx, `
				INSERT INTO stock_movements
					(event_id, event_type, product_id, action, quantity, stock_after, source, occurred_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (event_id) DO NOTHING`,
				m.EventID, m.EventType, m.ProductID, m.Action,
				m.Quantity, m.StockAfter, m.Source, m.OccurredAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *StockAuditWorker) restore(batch []movement) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch = append(batch, w.batch...)
}

// PendingCount returns the number of movements waiting for the next flush
func (w *StockAuditWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batch)
}
