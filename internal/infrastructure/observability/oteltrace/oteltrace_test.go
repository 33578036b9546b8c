package oteltrace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func Test_Tracer_StartRecordsAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := FromProvider(tp, "")

	ctx, span := tr.Start(context.Background(), "UC.Publish", attribute.Int("producer_id", 3))
	_, child := tr.Start(ctx, "child")
	child.End()
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "child", ended[0].Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Contains(t, ended[1].Attributes(), attribute.Int("producer_id", 3))
}

func Test_InstallStdout_ExportsOnShutdown(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	tp, err := InstallStdout("marketplace-test", &buf)
	require.NoError(t, err)

	_, span := New("test").Start(context.Background(), "UC.NewCart")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "UC.NewCart")
	assert.Contains(t, buf.String(), "marketplace-test")
}
