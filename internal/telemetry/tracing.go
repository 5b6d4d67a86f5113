package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Tracer implements engine.Tracer over an OpenTelemetry trace.Tracer: one
// client-kind span per Invocation Engine call, carrying the task id and,
// on a domain failure, the error kind as attributes. Domain errors mark
// the span errored but are otherwise not logged anywhere; the span is
// their only diagnostic channel.
type Tracer struct {
	tr trace.Tracer
}

// NewTracer builds a Tracer emitting through tp. Callers own tp's
// lifecycle (Shutdown on session end); Tracer only starts spans on it.
func NewTracer(tp trace.TracerProvider) *Tracer {
	return &Tracer{tr: tp.Tracer("cryptoproxy/engine")}
}

// StartInvocation implements engine.Tracer.
func (t *Tracer) StartInvocation(ctx context.Context, task wire.TaskID) (context.Context, func(error)) {
	ctx, span := t.tr.Start(ctx, "cryptoproxy.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int64("cryptoproxy.task", int64(task))),
	)
	return ctx, func(err error) {
		var domainErr *wire.DomainError
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.As(err, &domainErr):
			span.SetAttributes(attribute.String("cryptoproxy.error_kind", domainErr.Kind.String()))
			span.SetStatus(codes.Error, domainErr.Kind.String())
		default:
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// NewStdoutTracerProvider builds a TracerProvider that writes spans to
// stdout. A library has no opinion about where a host application ships
// its traces; hosts with a collector pass their own provider to NewTracer
// instead.
func NewStdoutTracerProvider() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}
