package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "exception-server/assistant-api"
)

// GetTracer returns the tracer for the assistant-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// ChatAttributes returns common attributes for chat turn spans.
func ChatAttributes(tenantID, userID, sessionID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("chat.tenant_id", tenantID),
		attribute.String("chat.user_id", userID),
		attribute.String("chat.session_id", sessionID),
	}
}

// StartChatSpan starts a new span for one assistant turn.
func StartChatSpan(ctx context.Context, tenantID, userID, sessionID string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "assistant.chat",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(ChatAttributes(tenantID, userID, sessionID)...),
	)
	return ctx, span
}

// StartStageSpan starts a new span for one pipeline stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "assistant.stage."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("stage.name", stage)),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
