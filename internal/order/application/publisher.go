package application

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-submission-service/internal/order/domain"
)

type SinkResult struct {
	Attempted bool
	Err       error
}

func (r SinkResult) Delivered() bool { return r.Attempted && r.Err == nil }

// PublishOutcome reports delivery per sink. It is informational only: the
// order total is already committed when publishing starts.
type PublishOutcome struct {
	Local    SinkResult
	External SinkResult
}

// Publisher fans a submission out to the local sink and, when one was
// available at startup, the external sink. Sinks never affect each other.
type Publisher struct {
	log      *slog.Logger
	local    LocalSink
	external ExternalSink
	tracer   trace.Tracer
}

// NewPublisher takes a nil external sink to mean broker delivery is disabled.
func NewPublisher(log *slog.Logger, local LocalSink, external ExternalSink) *Publisher {
	return &Publisher{
		log:      log,
		local:    local,
		external: external,
		tracer:   otel.Tracer("order-publisher"),
	}
}

func (p *Publisher) HasExternal() bool { return p.external != nil }

func (p *Publisher) Publish(ctx context.Context, ev domain.SubmissionEvent) PublishOutcome {
	ctx, span := p.tracer.Start(ctx, "PublishOrderSubmitted")
	defer span.End()

	var out PublishOutcome

	out.Local = p.deliver(ctx, "local", func(ctx context.Context) error {
		return p.local.OrderSubmitted(ctx, domain.NewOrderSubmitted(ev))
	})

	if p.external != nil {
		out.External = p.deliver(ctx, "external", func(ctx context.Context) error {
			return p.external.OrderCompleted(ctx, domain.NewOrderCompleted(ev))
		})
	}

	if out.Local.Err != nil || out.External.Err != nil {
		span.SetStatus(codes.Error, "sink delivery failed")
	}
	return out
}

func (p *Publisher) deliver(ctx context.Context, sink string, fn func(ctx context.Context) error) (res SinkResult) {
	res.Attempted = true
	defer func() {
		if r := recover(); r != nil {
			res.Err = &PublishError{Sink: sink, Panic: r}
			p.log.ErrorContext(ctx, "sink panicked", "sink", sink, "panic", r)
		}
	}()
	if err := fn(ctx); err != nil {
		res.Err = &PublishError{Sink: sink, Err: err}
		p.log.ErrorContext(ctx, "sink delivery failed", "sink", sink, "err", err)
	}
	return res
}
