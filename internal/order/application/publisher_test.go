package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
)

func sampleEvent() domain.SubmissionEvent {
	return domain.SubmissionEvent{
		OrderID:     "o-1",
		Total:       decimal.NewFromInt(25),
		ItemCount:   2,
		CustomerID:  "cust-1",
		SubmittedAt: fixedNow,
	}
}

func TestPublish_BothSinks(t *testing.T) {
	local, ext := &recordingLocal{}, &recordingExternal{}
	p := NewPublisher(discardLogger(), local, ext)

	out := p.Publish(context.Background(), sampleEvent())

	assert.True(t, out.Local.Delivered())
	assert.True(t, out.External.Delivered())
	assert.Len(t, local.events, 1)
	assert.Len(t, ext.events, 1)
}

func TestPublish_ExternalDisabled(t *testing.T) {
	local := &recordingLocal{}
	p := NewPublisher(discardLogger(), local, nil)

	out := p.Publish(context.Background(), sampleEvent())

	assert.False(t, p.HasExternal())
	assert.True(t, out.Local.Delivered())
	assert.False(t, out.External.Attempted)
	assert.NoError(t, out.External.Err)
}

func TestPublish_SinkFailuresAreIsolated(t *testing.T) {
	localErr := errors.New("disk full")
	local := &recordingLocal{err: localErr}
	ext := &recordingExternal{}
	p := NewPublisher(discardLogger(), local, ext)

	out := p.Publish(context.Background(), sampleEvent())

	var pe *PublishError
	require.ErrorAs(t, out.Local.Err, &pe)
	assert.Equal(t, "local", pe.Sink)
	assert.ErrorIs(t, out.Local.Err, localErr)
	assert.True(t, out.External.Delivered())
	assert.Len(t, ext.events, 1)
}

func TestPublish_LocalPanicIsContained(t *testing.T) {
	local := &recordingLocal{panic: true}
	ext := &recordingExternal{}
	p := NewPublisher(discardLogger(), local, ext)

	var out PublishOutcome
	require.NotPanics(t, func() { out = p.Publish(context.Background(), sampleEvent()) })

	assert.Error(t, out.Local.Err)
	assert.Contains(t, out.Local.Err.Error(), "panic")
	assert.True(t, out.External.Delivered())
}

func TestPublish_ExternalFailure(t *testing.T) {
	local := &recordingLocal{}
	ext := &recordingExternal{err: errors.New("leader not available")}
	p := NewPublisher(discardLogger(), local, ext)

	out := p.Publish(context.Background(), sampleEvent())

	assert.True(t, out.Local.Delivered())
	assert.True(t, out.External.Attempted)
	assert.Error(t, out.External.Err)
}
