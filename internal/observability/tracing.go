package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"
)

// Span is a lightweight in-process trace span. End logs it through slog;
// there is no external exporter.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	Start     time.Time

	err error
}

type spanContextKey struct{}

// StartSpan opens a span, inheriting the trace ID of any span already in
// the context.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   generateID(),
		SpanID:    generateID(),
		Operation: operation,
		Start:     time.Now(),
	}

	if parent := GetSpan(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

// Fail marks the span as errored; End reports it at error level.
func (s *Span) Fail(err error) { s.err = err }

// End closes the span and logs it with any extra key-value attrs.
func (s *Span) End(logger *slog.Logger, attrs ...any) {
	duration := time.Since(s.Start)

	args := []any{
		"trace_id", s.TraceID,
		"span_id", s.SpanID,
		"operation", s.Operation,
		"duration", duration,
	}
	if s.ParentID != "" {
		args = append(args, "parent_id", s.ParentID)
	}
	args = append(args, attrs...)

	if s.err != nil {
		args = append(args, "error", s.err)
		logger.Error("span failed", args...)
		return
	}
	logger.Debug("span completed", args...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
