//go:build integration

// Package integration starts throwaway Postgres and Kafka containers for
// tests that need the real backing services.
package integration

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type Env struct {
	PG     *postgres.PostgresContainer
	Kafka  *kafka.KafkaContainer
	PGURL  string
	KAddr  []string
	Cancel context.CancelFunc
}

// StartPostgres runs a Postgres container and returns its connection string.
func StartPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", err
	}
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(pgC)
		return nil, "", err
	}
	return pgC, pgURL, nil
}

// StartKafka runs a single-node Kafka container and returns its brokers.
func StartKafka(ctx context.Context) (*kafka.KafkaContainer, []string, error) {
	kafkaC, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("order-submission-test"),
	)
	if err != nil {
		return nil, nil, err
	}
	brokers, err := kafkaC.Brokers(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(kafkaC)
		return nil, nil, err
	}
	return kafkaC, brokers, nil
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)

	pgC, pgURL, err := StartPostgres(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	kafkaC, brokers, err := StartKafka(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(pgC)
		cancel()
		return nil, err
	}
	return &Env{
		PG:     pgC,
		Kafka:  kafkaC,
		PGURL:  pgURL,
		KAddr:  brokers,
		Cancel: cancel,
	}, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Kafka.Terminate(ctx)
	_ = e.PG.Terminate(ctx)
}
