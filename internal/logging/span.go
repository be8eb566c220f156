package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Trace and span IDs only exist inside spans, so their context keys live here
// rather than in the package's public surface.
type traceIDKey struct{}
type spanIDKey struct{}

// Span marks a logical unit of work inside a request, such as an OAuth
// callback or an upload completion.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child context whose logger carries trace and span IDs.
// The first span in a request mints the trace ID; nested spans record their
// parent.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID, _ := ctx.Value(traceIDKey{}).(string)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = context.WithValue(ctx, traceIDKey{}, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentID, _ := ctx.Value(spanIDKey{}).(string); parentID != "" {
		logger = logger.With(slog.String("parent_span_id", parentID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = context.WithValue(ctx, spanIDKey{}, spanID)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End emits the span's completion entry with its duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
