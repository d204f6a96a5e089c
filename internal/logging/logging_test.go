package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesKeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := New(zap.New(core)).With("session_id", "abc")

	logger.Info("scenario added", "scenario_id", "12-3")
	logger.Error("save failed", "error", "boom")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "scenario added", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["session_id"])
	assert.Equal(t, "12-3", entries[0].ContextMap()["scenario_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud", false)
	assert.Error(t, err)

	logger, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
