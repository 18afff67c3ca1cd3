package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/ports"
)

const tracerName = "github.com/aretw0/durafsm/adapter"

type tracingAdapter[C any] struct {
	passthrough[C]
	tracer trace.Tracer
}

// Tracing opens one span per adapter call.
// A nil provider falls back to the global one set through otel.SetTracerProvider.
func Tracing[C any](provider trace.TracerProvider) Middleware[C] {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(tracerName)
	return func(next ports.Adapter[C]) ports.Adapter[C] {
		return &tracingAdapter[C]{passthrough: passthrough[C]{next: next}, tracer: tracer}
	}
}

func (t *tracingAdapter[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	ctx, span := t.tracer.Start(ctx, "Adapter.Load", trace.WithAttributes(
		attribute.String("fsm.actor_id", id),
	))
	defer span.End()

	snap, found, err := t.next.Load(ctx, id)
	span.SetAttributes(attribute.Bool("fsm.found", found))
	if found {
		span.SetAttributes(attribute.String("fsm.state", snap.State), attribute.Int64("fsm.version", snap.Version))
	}
	record(span, err)
	return snap, found, err
}

func (t *tracingAdapter[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	ctx, span := t.tracer.Start(ctx, "Adapter.Create", trace.WithAttributes(
		attribute.String("fsm.actor_id", id),
		attribute.String("fsm.state", state),
	))
	defer span.End()

	snap, err := t.next.Create(ctx, id, state, c)
	record(span, err)
	return snap, err
}

func (t *tracingAdapter[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	ctx, span := t.tracer.Start(ctx, "Adapter.Save", trace.WithAttributes(
		attribute.String("fsm.actor_id", snap.ID),
		attribute.String("fsm.state", snap.State),
		attribute.Int64("fsm.version", snap.Version),
	))
	defer span.End()

	err := t.next.Save(ctx, snap)
	record(span, err)
	return err
}

func record(span trace.Span, err error) {
	if err == nil {
		return
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		span.SetAttributes(attribute.Int64("fsm.actual_version", conflict.Actual))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
