package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bootlang/services/agent-api"

// GetTracer returns the tracer for this service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTurnSpan starts a span covering one conversation turn.
func StartTurnSpan(ctx context.Context, conversationID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "agent.turn",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
}

// StartIngestSpan starts a span covering one document ingestion.
func StartIngestSpan(ctx context.Context, filename, docType string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "document.ingest",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("document.filename", filename),
			attribute.String("document.type", docType),
		),
	)
}

// StartGenerationSpan starts a span covering one artifact generation.
// source distinguishes queue-driven runs from synchronous HTTP requests.
func StartGenerationSpan(ctx context.Context, conversationID, source string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "agent.generate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("generation.source", source),
		),
	)
}

// RecordError marks the span failed and records the error event.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
