package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderdom "github.com/dmehra2102/order-submission-service/internal/order/domain"
	"github.com/dmehra2102/order-submission-service/pkg/tracing"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Handler interface {
	OrderCompleted(ctx context.Context, ev orderdom.OrderCompleted) error
}

type Consumer struct {
	log    *slog.Logger
	reader MessageReader
	svc    Handler
	idem   Deduper
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

// NewConsumer takes a nil idem to disable duplicate detection.
func NewConsumer(log *slog.Logger, reader MessageReader, svc Handler, idem Deduper) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("analytics-consumer"),
	}
}

// Run consumes until ctx ends. It returns nil on cancellation. A fetch error
// or an unreachable dedup store stops it with the error; the failed message
// stays uncommitted so the group resumes from it.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	if c.idem != nil {
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.ErrorContext(ctx, "idempotency check failed", "key", key, "err", err)
			return fmt.Errorf("dedup %s: %w", key, err)
		}
		if seen {
			c.log.InfoContext(ctx, "duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			return nil
		}
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderSubmitted")
	defer span.End()

	if t := headerValue(msg.Headers, "event_type"); t != "" && t != orderdom.EventOrderSubmitted {
		c.log.InfoContext(msgCtx, "ignoring event", "type", t)
		_ = c.reader.CommitMessages(ctx, msg)
		return nil
	}

	var ev orderdom.OrderCompleted
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.ErrorContext(msgCtx, "unmarshal failed", "err", err)
		_ = c.reader.CommitMessages(ctx, msg)
		return nil
	}

	if err := c.svc.OrderCompleted(msgCtx, ev); err != nil {
		c.log.ErrorContext(msgCtx, "record order failed", "order_id", ev.OrderID, "err", err)
	}
	_ = c.reader.CommitMessages(ctx, msg)
	return nil
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
