package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/excise-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRunLogger_File(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "run.log")
	cfg := &config.MainConfig{LogLevel: "debug", LogFile: logPath, LogFormat: config.LogFormatJSON}

	logger, err := NewRunLogger(cfg, "run-42")
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"run_id":"run-42"`)
	assert.Equal(t, "run-42", logger.RunID)
}

func TestNewRunLogger_ConsoleFileHasNoColour(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := &config.MainConfig{LogLevel: "info", LogFile: logPath, LogFormat: config.LogFormatConsole}

	logger, err := NewRunLogger(cfg, "run-1")
	require.NoError(t, err)
	logger.Info("started")
	logger.Debug("hidden")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO")
	assert.NotContains(t, string(data), "\x1b[")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewRunLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewRunLogger(&config.MainConfig{LogLevel: "bogus"}, "run-1")
	require.NoError(t, err)
	defer logger.Close()

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
