package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is a minimal tracing span handle so domain packages do not depend on
// the otel API directly.
type Span interface {
	End()
	SetAttribute(key, value string)
	RecordError(err error)
}

// Tracer starts spans around significant operations.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewOtel returns a Tracer backed by the global otel tracer provider.
func NewOtel(name string) Tracer {
	return &otelTracer{tracer: otel.Tracer(name)}
}

func (t *otelTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Noop returns a Tracer whose spans do nothing. Useful in tests.
func Noop() Tracer { return noopTracer{} }

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                     {}
func (noopSpan) SetAttribute(_, _ string) {}
func (noopSpan) RecordError(_ error)      {}
