package server

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/sliderbind/pkg/protocol"
)

const defaultTracerName = "sliderbind"

// startMessageSpan starts the span covering one client message.
func (s *Session) startMessageSpan(msg *protocol.ClientMessage) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("sliderbind.session_id", s.ID),
		attribute.String("sliderbind.message_type", string(msg.Type)),
	}
	if msg.ID != "" {
		attrs = append(attrs, attribute.String("sliderbind.input_id", msg.ID))
	}
	if msg.Page != "" {
		attrs = append(attrs, attribute.String("sliderbind.page", msg.Page))
	}
	return s.server.tracer.Start(s.ctx, "sliderbind."+string(msg.Type),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(defaultTracerName)
}
