package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"serial-service/internal/config"
)

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "serial.log")
	logger, err := NewLogger(&config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		Output:     path,
		MaxSize:    1,
		MaxBackups: 1,
	})
	require.NoError(t, err)

	logger.Info("hello", zap.String("port", "/dev/ttyS0"))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"hello"`)
	assert.Contains(t, string(raw), `"port":"/dev/ttyS0"`)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(&config.LoggingConfig{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"fatal": zapcore.FatalLevel,
	} {
		got, err := parseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLogAPIRequestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewServiceLogger(zap.New(core), "http-server")

	sl.LogAPIRequest("GET", "/health", "req-1", "127.0.0.1", 200, 0)
	sl.LogAPIRequest("POST", "/api/v1/commands", "req-2", "127.0.0.1", 400, 0)
	sl.LogAPIRequest("POST", "/api/v1/commands", "req-3", "127.0.0.1", 502, 0)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "req-3", entries[2].ContextMap()["request_id"])
}

func TestCommandLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	NewCommandLogger(base, "command", zap.String("command", "AT")).Done(nil)
	NewCommandLogger(base, "write").Done(errors.New("boom"))

	require.Equal(t, 1, logs.FilterMessage("Command sent").Len())
	failed := logs.FilterMessage("Command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "write", failed[0].ContextMap()["command_kind"])
}
