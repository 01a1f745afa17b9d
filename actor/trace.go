package actor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sarchlab/sc2melee/actor"

func startSpan(
	ctx context.Context,
	name string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return otel.GetTracerProvider().
		Tracer(tracerName).
		Start(ctx, name, trace.WithAttributes(attrs...))
}
