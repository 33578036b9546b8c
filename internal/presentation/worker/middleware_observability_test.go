package workerpresentation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

type fieldLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l fieldLogger) With(fields ...observability.Field) observability.Logger {
	return fieldLogger{Logger: l.Logger, fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func fieldMap(l observability.Logger) map[string]any {
	m := make(map[string]any)
	for _, f := range l.(fieldLogger).fields {
		m[f.Key] = f.Value
	}
	return m
}

func Test_WithWorkerContext_GeneratesRunID(t *testing.T) {
	base := fieldLogger{Logger: observability.NopLogger()}

	ctx := WithWorkerContext(context.Background(), base, nil, map[string]string{
		"worker": "prod-1",
		"role":   "producer",
		"empty":  "",
	})

	logger := logctx.From(ctx)
	require.NotNil(t, logger)
	fields := fieldMap(logger)
	assert.NotEmpty(t, fields["run_id"])
	assert.Equal(t, "prod-1", fields["worker"])
	assert.Equal(t, "producer", fields["role"])
	assert.NotContains(t, fields, "empty")
	assert.NotContains(t, fields, "trace_id")
}

func Test_WithWorkerContext_KeepsGivenRunID(t *testing.T) {
	base := fieldLogger{Logger: observability.NopLogger()}

	ctx := WithWorkerContext(context.Background(), base, nil, map[string]string{"run_id": "r-1"})

	assert.Equal(t, "r-1", fieldMap(logctx.From(ctx))["run_id"])
}

func Test_WithWorkerContext_FallsBackToTelemetryLogger(t *testing.T) {
	ctx := WithWorkerContext(context.Background(), nil, nil, nil)

	assert.NotNil(t, logctx.From(ctx))
}
