package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"development", "production", "prod", ""} {
		l, err := New(mode, "debug")
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("production", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With("root", "ps-1")

	l.Warn("cycle detected", "path", "a → b → a")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cycle detected", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ps-1", fields["root"])
	assert.Equal(t, "a → b → a", fields["path"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("dropped", "k", 1)
	l.Sync()
}
