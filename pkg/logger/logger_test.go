package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndHelpers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Info("hello", zap.Int64("user_id", 1))
	Warn("dropped", zap.String("reason", "self_like"))
	Debug("noise")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, int64(1), entries[0].ContextMap()["user_id"])
	assert.Equal(t, "self_like", entries[1].ContextMap()["reason"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New("svc", "not-a-level", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestSetNilIsNop(t *testing.T) {
	Set(nil)
	assert.NotPanics(t, func() { Error("ignored") })
}
