package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/internal/logger"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })
	return &buf
}

func TestWithTrace_AddsTraceID(t *testing.T) {
	buf := capture(t)
	logger.Setup("info", "production")

	ctx := logger.WithTraceID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", logger.TraceIDFromContext(ctx))

	logger.WithTrace(ctx).WithField("customer_id", "CUST_1").Info("Prediction completed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["trace_id"])
	assert.Equal(t, "CUST_1", entry["customer_id"])
	assert.Equal(t, "Prediction completed", entry["msg"])
}

func TestSetup_Level(t *testing.T) {
	buf := capture(t)

	logger.Setup("warn", "production")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.WithEndpoint("/metrics").Warn("visible")
	assert.Contains(t, buf.String(), `"endpoint":"/metrics"`)

	logger.Setup("bogus", "production")
	buf.Reset()
	logger.Info("shown at default level")
	assert.NotZero(t, buf.Len())
}

func TestTraceIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, logger.TraceIDFromContext(context.Background()))
}
