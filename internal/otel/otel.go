package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/livegraph/internal/eventbus"
	events "github.com/hanpama/livegraph/internal/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers that
// map subscription lifecycles to spans. If endpoint is empty, no telemetry
// is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("livegraph")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer trace.Tracer
	spans  sync.Map // subscription id -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.SubscriptionStart) {
		_, span := s.tracer.Start(ctx, "live.subscription")
		span.SetAttributes(
			attribute.String("live.field", e.Field),
			attribute.String("live.type_ref", e.TypeRef),
		)
		s.spans.Store(e.ID, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SnapshotEmit) {
		v, ok := s.spans.Load(e.ID)
		if !ok {
			return
		}
		v.(trace.Span).AddEvent("snapshot",
			trace.WithAttributes(attribute.String("live.field", e.Field)))
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SubscriptionFinish) {
		v, ok := s.spans.LoadAndDelete(e.ID)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.SetAttributes(attribute.Int64("live.duration_ms", e.Duration.Milliseconds()))
		span.End()
	})
}
