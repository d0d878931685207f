package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// withRecorder installs a recording tracer provider for the duration of the test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("read_email").
		WithComponent(ComponentArchive).
		WithOperation(OperationReadMessage).
		WithMessageID("msg:0123456789abcdef").
		WithCount(3).
		WithReadOnly(true).
		Build()

	require.Len(t, attrs, 6)

	got := map[string]any{}
	for _, attr := range attrs {
		got[string(attr.Key)] = attr.Value.AsInterface()
	}
	assert.Equal(t, "read_email", got[SpanAttrTool])
	assert.Equal(t, "archive", got[SpanAttrComponent])
	assert.Equal(t, "read_message", got[SpanAttrOperation])
	assert.Equal(t, "msg:0123456789abcdef", got[SpanAttrMessageID])
	assert.Equal(t, int64(3), got[SpanAttrCount])
	assert.Equal(t, true, got[SpanAttrReadOnly])
}

func TestSpanAttributeBuilder_EmptyMessageID(t *testing.T) {
	attrs := NewSpanAttributeBuilder().WithTool("get_email_path").WithMessageID("").Build()
	assert.Len(t, attrs, 1)
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "read_thread")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	SetSpanSuccess(span)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "tool.read_thread", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
}

func TestStartStoreSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartStoreSpan(context.Background(), ComponentIndex, OperationResolvePath)
	SetSpanStatus(span, StatusNotFound, nil)
	span.End()

	_, failed := StartStoreSpan(context.Background(), ComponentAttachments, OperationExtract)
	SetSpanStatus(failed, StatusError, errors.New("disk full"))
	failed.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "mail.index.resolve_path", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	assert.Equal(t, "mail.attachments.extract", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "disk full", ended[1].Status().Description)
	require.Len(t, ended[1].Events(), 1)
}

func TestAddSpanEvent(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartSpan(context.Background(), "test")
	AddSpanEvent(span, "fallback_used")
	span.End()

	require.Len(t, recorder.Ended(), 1)
	events := recorder.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "fallback_used", events[0].Name)
}

func TestTraceIDs_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}
