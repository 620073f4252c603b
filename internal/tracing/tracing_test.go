package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
)

func TestInitProviderDisabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	RecordError(span, errors.New("boom"), ErrorTypeExtract)
	RecordError(span, nil, ErrorTypeExtract)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1, "nil错误不应再记录事件")
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("J"))
	assert.Equal(t, "J*", MaskPII("Jo"))
	assert.Equal(t, "J**n", MaskPII("John"))
	assert.Equal(t, "jo****************om", MaskPII("john.doe@example.com"))
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "jo****************om", SafeAttributeValue("contact.email", "john.doe@example.com", 10))
	assert.Equal(t, "abc...xyz", SafeAttributeValue("summary", "abcdefghijklmnopqrstuvwxyz", 9))
	assert.Equal(t, "short", SafeAttributeValue("summary", "short", 9))
}
