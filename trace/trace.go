// Package trace provides tracing instrumentation for wait operations.
package trace

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "extdriver"

// Tracer generates spans for waits and the page probes they run.
type Tracer struct {
	trace.Tracer

	metadata []attribute.KeyValue
}

// NewTracer creates a new Tracer from the given TracerProvider.
func NewTracer(tp trace.TracerProvider, metadata map[string]string, options ...trace.TracerOption) *Tracer {
	return &Tracer{
		Tracer:   tp.Tracer(tracerName, options...),
		metadata: buildMetadataAttributes(metadata),
	}
}

// NewNoopTracer returns a Tracer whose spans are discarded.
func NewNoopTracer() *Tracer {
	return NewTracer(noop.NewTracerProvider(), nil)
}

// Start overrides the underlying OTEL tracer method to include the tracer metadata.
func (t *Tracer) Start(
	ctx context.Context, spanName string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(t.metadata...))
	return t.Tracer.Start(ctx, spanName, opts...)
}

// TraceWait starts a span for a wait on the given condition kind and selector.
// It is the caller's responsibility to close the generated span.
func (t *Tracer) TraceWait(
	ctx context.Context, kind, selector string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("wait.kind", kind)}
	if selector != "" {
		attrs = append(attrs, attribute.String("wait.selector", selector))
	}
	opts = append(opts, trace.WithAttributes(attrs...))

	return t.Start(ctx, "wait", opts...)
}

// Fail records err on the span and marks the span as failed.
func Fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func buildMetadataAttributes(metadata map[string]string) []attribute.KeyValue {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(metadata))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, metadata[k]))
	}

	return attrs
}
