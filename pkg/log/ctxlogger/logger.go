package ctxlogger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type documentKey struct{}

type documentRef struct {
	id       string
	number   string
	typeCode string
}

// ContextWithDocument annotates the context with the document being processed.
func ContextWithDocument(ctx context.Context, id, number, typeCode string) context.Context {
	if id == "" && number == "" {
		return ctx
	}
	return context.WithValue(ctx, documentKey{}, documentRef{id: id, number: number, typeCode: typeCode})
}

// WithContext enriches the provided logger using metadata in the context.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil {
		return base
	}

	fields := make([]zap.Field, 0, 5)
	fields = append(fields, ExtractTrace(ctx)...)

	if ref, ok := ctx.Value(documentKey{}).(documentRef); ok {
		fields = append(fields, zap.String("document_id", ref.id))
		if ref.number != "" {
			fields = append(fields, zap.String("document_number", ref.number))
		}
		if ref.typeCode != "" {
			fields = append(fields, zap.String("document_type", ref.typeCode))
		}
	}

	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ExtractTrace pulls tracing identifiers from the context span. Nothing is
// returned when the context carries no valid span.
func ExtractTrace(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}

	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
