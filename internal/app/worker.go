package app

import (
	"context"
	"errors"
	"time"

	"line-leave/internal/bootstrap"
	"line-leave/internal/config"
	"line-leave/internal/messaging/kafka"
	"line-leave/internal/messaging/kafka/producer"
	"line-leave/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka until the process is signalled.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	if cfg.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required")
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, connectRetries)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, producer.WorkerConfig{
			PollInterval: 3 * time.Second,
			BatchSize:    producer.DefaultBatchSize,
		})
	}()

	sig := bootstrap.WaitForSignal()
	logger.Info("worker shutting down", zap.String("signal", sig.String()))
	cancel()
	<-done

	return nil
}
