package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petalworks/flowershop-backend/internal/worker"
	"github.com/petalworks/flowershop-backend/pkg/config"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/kafka"
	"github.com/petalworks/flowershop-backend/pkg/logger"
	"github.com/petalworks/flowershop-backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: "stock-audit-worker",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting stock audit worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      int32(cfg.Database.MaxOpenConns),
		MinConns:      int32(cfg.Database.MaxIdleConns),
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		GroupID:       "stock-audit-worker",
		Topics:        []string{cfg.Kafka.Topic},
		ClientID:      "stock-audit-worker",
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to create Kafka consumer: %v", err))
	}
	defer consumer.Close()
	appLog.Info("Kafka consumer connected")

	// Producer only parks poison records on the dead letter topic
	var dlq *retry.DLQPublisher
	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Kafka.Brokers,
		ClientID:      "stock-audit-worker-dlq",
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("DLQ producer unavailable, poison records will be skipped: %v", err))
	} else {
		defer producer.Close()
		dlq = retry.NewDLQPublisher(producer, "stock-audit-worker")
	}

	auditWorker := worker.NewStockAuditWorker(&worker.StockAuditWorkerConfig{
		BatchInterval: 5 * time.Second,
		MaxBatchSize:  1000,
	}, consumer, db, dlq)

	go auditWorker.Start(ctx)
	appLog.Info(fmt.Sprintf("Consuming %s", cfg.Kafka.Topic))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down stock audit worker...")
	cancel()
	time.Sleep(time.Second)
	appLog.Info("Stock audit worker exited")
}
