package logger

import (
	"bytes"
	"context"
	"testing"

	json "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Encoding: "json", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	WithRequestID(ctx, log).Info("hello")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestWithRequestID_NoID(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)

	assert.Same(t, log, WithRequestID(context.Background(), log))
	assert.Empty(t, RequestID(context.Background()))
}
