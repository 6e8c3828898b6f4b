package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_JSONCarriesCorrelationAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "debug", Format: "json", ServiceName: "tourney-client", Output: &buf})

	ctx := WithCorrelationID(context.Background(), "cid-42")
	log.WithFields(map[string]interface{}{"path": "/auth/me"}).Error(ctx, "request failed", errors.New("boom"), map[string]interface{}{"status": 500})

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "request failed", rec["msg"])
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "cid-42", rec["correlation_id"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, "/auth/me", rec["path"])
	assert.Equal(t, "tourney-client", rec["service"])
	assert.EqualValues(t, 500, rec["status"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLogger(LoggerConfig{Level: "warn", Format: "text", Output: &buf})

	log.Info(context.Background(), "hidden", nil)
	assert.Empty(t, buf.String())

	LogSessionEvent(context.Background(), log, "refresh", "u-1", false, nil)
	assert.Contains(t, buf.String(), "Session event failed: refresh")
}

func TestCorrelationID_Missing(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
}
