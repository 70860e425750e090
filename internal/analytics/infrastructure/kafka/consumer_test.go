package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "github.com/dmehra2102/order-submission-service/internal/order/domain"
)

// sliceReader hands out queued messages, then blocks until ctx ends.
type sliceReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
	fetchErr  error
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.fetchErr != nil {
		r.mu.Unlock()
		return kafka.Message{}, r.fetchErr
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *sliceReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type mapDeduper struct {
	seen map[string]bool
	err  error
}

func (d *mapDeduper) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
}

func (d *mapDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

type recorder struct {
	mu  sync.Mutex
	got []orderdom.OrderCompleted
	err error
}

func (r *recorder) OrderCompleted(_ context.Context, ev orderdom.OrderCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	return r.err
}

func msg(offset int64, eventType, body string) kafka.Message {
	m := kafka.Message{Topic: "order.events", Offset: offset, Value: []byte(body)}
	if eventType != "" {
		m.Headers = []kafka.Header{{Key: "event_type", Value: []byte(eventType)}}
	}
	return m
}

func runUntilDrained(t *testing.T, c *Consumer, r *sliceReader, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.committed) >= want
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestConsumer_RecordsAndDedups(t *testing.T) {
	body := `{"orderId":"o-1","total":"25","customerId":"cust-1","completedAt":"2026-02-03T04:05:06Z"}`
	r := &sliceReader{msgs: []kafka.Message{
		msg(1, orderdom.EventOrderSubmitted, body),
		msg(1, orderdom.EventOrderSubmitted, body),
		msg(2, "", `{"orderId":"o-2","total":"1","customerId":"c","completedAt":"2026-02-03T04:05:06Z"}`),
	}}
	rec := &recorder{}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, rec, &mapDeduper{seen: map[string]bool{}})

	runUntilDrained(t, c, r, 3)

	require.Len(t, rec.got, 2)
	assert.Equal(t, "o-1", rec.got[0].OrderID)
	assert.Equal(t, "25", rec.got[0].Total.String())
	assert.Equal(t, "o-2", rec.got[1].OrderID)
	assert.True(t, r.closed)
}

func TestConsumer_SkipsBadAndForeignMessages(t *testing.T) {
	r := &sliceReader{msgs: []kafka.Message{
		msg(1, "OrderCancelled", `{"orderId":"x"}`),
		msg(2, orderdom.EventOrderSubmitted, `not json`),
	}}
	rec := &recorder{}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, rec, nil)

	runUntilDrained(t, c, r, 2)
	assert.Empty(t, rec.got)
}

func TestConsumer_HandlerErrorStillCommits(t *testing.T) {
	r := &sliceReader{msgs: []kafka.Message{msg(1, orderdom.EventOrderSubmitted, `{"orderId":"o-1"}`)}}
	rec := &recorder{err: errors.New("db down")}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, rec, nil)

	runUntilDrained(t, c, r, 1)
	assert.Len(t, rec.got, 1)
}

func TestConsumer_FetchErrorStops(t *testing.T) {
	fetchErr := errors.New("group coordinator not available")
	r := &sliceReader{fetchErr: fetchErr}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, &recorder{}, nil)

	assert.ErrorIs(t, c.Run(context.Background()), fetchErr)
	assert.True(t, r.closed)
}

func TestConsumer_DedupStoreDownStopsWithoutCommit(t *testing.T) {
	body := `{"orderId":"o-1","total":"25","customerId":"c","completedAt":"2026-02-03T04:05:06Z"}`
	r := &sliceReader{msgs: []kafka.Message{
		msg(1, orderdom.EventOrderSubmitted, body),
		msg(2, orderdom.EventOrderSubmitted, body),
	}}
	rec := &recorder{}
	storeErr := errors.New("redis: connection refused")
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, rec, &mapDeduper{seen: map[string]bool{}, err: storeErr})

	err := c.Run(context.Background())
	require.ErrorIs(t, err, storeErr)
	assert.Empty(t, rec.got)
	assert.Empty(t, r.committed)
	assert.Len(t, r.msgs, 1, "later messages are not fetched")
	assert.True(t, r.closed)
}
