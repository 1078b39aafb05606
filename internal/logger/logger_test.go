package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("order-service", &buf, slog.LevelDebug)

	log.Info("order_submitted", "Order stored", "req-1", map[string]interface{}{"order_id": "o-1"})

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "Order stored", rec["msg"])
	assert.Equal(t, "order-service", rec["service"])
	assert.Equal(t, "order_submitted", rec["action"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "o-1", rec["order_id"])
	assert.NotEmpty(t, rec["timestamp"])
}

func TestLogger_ErrorCarriesMessage(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("order-service", &buf, slog.LevelInfo)

	log.Debug("hidden", "below level", "", nil)
	log.Error("db_query_failed", "Failed to query", "req-2", errors.New("boom"), nil)

	var rec struct {
		Level string `json:"level"`
		Error struct {
			Msg string `json:"msg"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec.Level)
	assert.Equal(t, "boom", rec.Error.Msg)
}

func TestRequestIDFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-3")
	assert.Equal(t, "req-3", RequestIDFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(context.Background()))
}
