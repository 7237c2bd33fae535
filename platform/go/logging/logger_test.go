package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Component: "api-server", Level: "WARN", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("usage limit reached")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "WARNING", entry["severity"])
	require.Equal(t, "usage limit reached", entry["message"])
	require.Equal(t, "api-server", entry["component"])
	require.Contains(t, entry, "timestamp")
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	require.Error(t, err)

	_, err = NewLogger(Config{Format: "xml"})
	require.ErrorContains(t, err, "unknown log format")
}

func TestNewLoggerConsoleFormatAndDebugLevel(t *testing.T) {
	logger, err := NewLogger(Config{Format: "console", Level: "debug"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
