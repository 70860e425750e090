package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/order-submission-service/internal/analytics/application"
	analyticskafka "github.com/dmehra2102/order-submission-service/internal/analytics/infrastructure/kafka"
	analyticspg "github.com/dmehra2102/order-submission-service/internal/analytics/infrastructure/postgres"
	"github.com/dmehra2102/order-submission-service/internal/config"
	"github.com/dmehra2102/order-submission-service/pkg/idempotency"
	"github.com/dmehra2102/order-submission-service/pkg/logging"
	"github.com/dmehra2102/order-submission-service/pkg/shutdown"
	"github.com/dmehra2102/order-submission-service/pkg/tracing"
)

func main() {
	log := logging.New()
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_ADDR is required")
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "analytics-consumer", cfg.OTelExporterURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := analyticspg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("event log schema failed", "err", err)
		os.Exit(1)
	}
	svc := application.NewService(log, repo)

	var idem analyticskafka.Deduper
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	} else {
		log.Warn("REDIS_ADDR not set, duplicate deliveries will be recorded twice")
	}

	reader := analyticskafka.NewReader(cfg.KafkaBrokers, cfg.OrderTopic, cfg.ConsumerGroup)
	consumer := analyticskafka.NewConsumer(log, reader, svc, idem)

	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("analytics-consumer shutdown")
}
