package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	orderID := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "order_fulfillment", "create_order",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrItemsCount, 3),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "order_fulfillment.create_order", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, orderID.String(), attrs[telemetry.SpanAttrOrderID].AsString())
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrItemsCount].AsInt64())
}

func TestSetAttributes_SkipsNonStringKeys(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "cash_session.close")
	telemetry.SetAttributes(span, "amount", 12.5, 42, "ignored", "open", true, "dangling")
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, 12.5, attrs["amount"].AsFloat64())
	assert.True(t, attrs["open"].AsBool())
	assert.Len(t, attrs, 2)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "debt.confirm_payment")
	telemetry.RecordError(span, errors.New("installment already paid"))
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "installment already paid", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestRecordError_NilErrorOrSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "noop")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(nil, errors.New("x"))
	telemetry.SetAttributes(nil, "k", "v")
	telemetry.AddEvent(nil, "e")
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "order_fulfillment.attempt")
	telemetry.AddEvent(span, "conflict_retry", telemetry.SpanAttrAttempt, 2)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "conflict_retry", events[0].Name)
	assert.Equal(t, int64(2), attrMap(events[0].Attributes)[telemetry.SpanAttrAttempt].AsInt64())
}

func TestGetTraceID(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "parent")
	defer span.End()
	assert.Len(t, telemetry.GetTraceID(ctx), 32)
}
