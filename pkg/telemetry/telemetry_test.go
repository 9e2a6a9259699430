package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetrics_RecordOnGlobalProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordRequest(ctx, "POST", "/chat", 200, 15*time.Millisecond)
		m.RecordProvider(ctx, "POWER", time.Second, errors.New("timeout"))
		m.RecordCache(ctx, "nasa", true)
		m.RecordCache(ctx, "nasa", false)
	})
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest(context.Background(), "GET", "/health", 200, time.Millisecond)
		m.RecordProvider(context.Background(), "x", time.Millisecond, nil)
		m.RecordCache(context.Background(), "x", false)
	})
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "node.locate")
	defer span.End()
	assert.NotNil(t, ctx)
	RecordError(span, errors.New("x"))
}
