package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}

func Test_FromOr_FallsBackWhenContextHasNoLogger(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}

	assert.Nil(t, From(context.Background()))
	assert.Same(t, fallback, FromOr(context.Background(), fallback))
}

func Test_With_StoresLogger(t *testing.T) {
	logger := &recordingLogger{Logger: observability.NopLogger()}
	ctx := With(context.Background(), logger)

	assert.Same(t, logger, From(ctx))
}

func Test_Enrich_BindsFieldsAndStoresResult(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}

	ctx, logger := Enrich(context.Background(), base, observability.F("worker", "prod-0"))

	got, ok := logger.(*recordingLogger)
	if assert.True(t, ok) {
		assert.Equal(t, []observability.Field{observability.F("worker", "prod-0")}, got.fields)
	}
	assert.Same(t, logger, From(ctx))
}

func Test_Enrich_WithoutAnyLoggerUsesNop(t *testing.T) {
	ctx, logger := Enrich(context.Background(), nil)

	assert.NotNil(t, logger)
	assert.NotNil(t, From(ctx))
}
