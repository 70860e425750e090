package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
	"github.com/dmehra2102/order-submission-service/pkg/tracing"
)

const HeaderEventType = "event_type"

var ErrNoBrokers = errors.New("kafka: no brokers configured")

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string, topic string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.Writer.WriteMessages(ctx, msgs...)
}

// Probe dials the first reachable broker. It is used once at startup to
// decide whether the broker sink is enabled.
func Probe(ctx context.Context, brokers []string, timeout time.Duration) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return errors.Join(errs...)
}

// Sink publishes the broker copy of a submission, keyed by order ID.
type Sink struct {
	log      *slog.Logger
	producer Producer
}

func NewSink(log *slog.Logger, producer Producer) *Sink {
	return &Sink{log: log, producer: producer}
}

func (s *Sink) OrderCompleted(ctx context.Context, ev domain.OrderCompleted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	headers := []kafka.Header{{Key: HeaderEventType, Value: []byte(domain.EventOrderSubmitted)}}
	headers = tracing.InjectKafkaHeaders(ctx, headers)

	msg := kafka.Message{
		Key:     []byte(ev.OrderID),
		Value:   payload,
		Headers: headers,
	}
	if err := s.producer.WriteMessages(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "broker publish failed", "order_id", ev.OrderID, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "broker published", "order_id", ev.OrderID, "type", domain.EventOrderSubmitted)
	return nil
}
