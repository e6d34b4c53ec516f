// Package apm wires OTEL tracing behind small interfaces so the rest of
// the code never imports SDK types directly.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans and recovers them from contexts.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
	GetTracer() trace.Tracer
}

type tracer struct {
	inner trace.Tracer
}

// NewTracer returns a Tracer scoped to the given instrumentation name,
// backed by whatever tracer provider is installed globally.
func NewTracer(name string) Tracer {
	return &tracer{inner: otel.Tracer(name)}
}

func (t *tracer) StartSpanFromContext(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.inner.Start(ctx, name, opts...)
	return ctx, wrapSpan(span)
}

func (t *tracer) SpanFromContext(ctx context.Context) Span {
	return wrapSpan(trace.SpanFromContext(ctx))
}

func (t *tracer) GetTracer() trace.Tracer {
	return t.inner
}
