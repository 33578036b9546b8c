package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

// WithWorkerContext injects a run-scoped logger for a long-lived worker goroutine.
// Dynamic fields only: run_id (generated when attrs has none), trace_id/span_id when ctx
// carries a valid span, plus caller-provided low-cardinality attributes such as "worker" and
// "role".
func WithWorkerContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.Or(tel).Logger()
	}

	fields := make([]observability.Field, 0, len(attrs)+3)

	runID := attrs["run_id"]
	if runID == "" {
		runID = uuid.NewString()
	}
	fields = append(fields, observability.F("run_id", runID))

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	for k, v := range attrs {
		if k == "run_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}
