package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	analyticsapp "github.com/dmehra2102/order-submission-service/internal/analytics/application"
	analyticsdom "github.com/dmehra2102/order-submission-service/internal/analytics/domain"
	analyticspg "github.com/dmehra2102/order-submission-service/internal/analytics/infrastructure/postgres"
	"github.com/dmehra2102/order-submission-service/internal/config"
	"github.com/dmehra2102/order-submission-service/internal/order/application"
	orderhttp "github.com/dmehra2102/order-submission-service/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/order-submission-service/internal/order/infrastructure/kafka"
	"github.com/dmehra2102/order-submission-service/internal/order/infrastructure/memory"
	orderpg "github.com/dmehra2102/order-submission-service/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/order-submission-service/internal/stock"
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

	tp, err := tracing.Init(ctx, "order-service", cfg.OTelExporterURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Order store and in-process analytics sink
	var (
		repo   application.OrderRepository
		events analyticsapp.EventLog
	)
	if cfg.PGURL == "memory" {
		log.Warn("using in-memory order store")
		repo = memory.NewRepository()
		events = logEventLog{log: log}
	} else {
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgRepo := orderpg.NewRepository(log, pool)
		eventLog := analyticspg.NewRepository(log, pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Error("order schema failed", "err", err)
			os.Exit(1)
		}
		if err := eventLog.EnsureSchema(ctx); err != nil {
			log.Error("event log schema failed", "err", err)
			os.Exit(1)
		}
		repo, events = pgRepo, eventLog
	}
	analytics := analyticsapp.NewService(log.With("component", "analytics"), events)

	// Broker sink, checked once
	var external application.ExternalSink
	if err := orderkafka.Probe(ctx, cfg.KafkaBrokers, cfg.BrokerProbeTimeout); err != nil {
		log.Warn("messaging not available, running in-process only", "err", err)
	} else {
		writer := orderkafka.NewWriter(cfg.KafkaBrokers, cfg.OrderTopic)
		defer writer.Close()
		external = orderkafka.NewSink(log, writer)
		log.Info("messaging enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderTopic)
	}
	publisher := application.NewPublisher(log, analytics, external)

	// Stock client
	var stockClient application.StockChecker
	if cfg.StockURL != "" {
		stockClient = stock.NewClient(log, cfg.StockURL, stock.WithRetry(cfg.StockMaxAttempts, cfg.StockBackoff))
	} else {
		log.Warn("stockService is not configured")
	}

	svc := application.NewService(log, application.Deps{
		Repo:      repo,
		Publisher: publisher,
		Stock:     stockClient,
	})

	var opts []orderhttp.Option
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)
		opts = append(opts, orderhttp.WithSubmitMiddleware(idempotency.Middleware(log, idem)))
	}
	handler := orderhttp.NewHandler(log, svc, opts...)

	// HTTP server
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}

// logEventLog stands in for the event log table when running without Postgres.
type logEventLog struct {
	log *slog.Logger
}

func (l logEventLog) Append(ctx context.Context, e analyticsdom.Entry) error {
	l.log.InfoContext(ctx, "order event", "entry_id", e.ID, "order_id", e.OrderID, "total", e.Total.String(), "source", e.Source)
	return nil
}
