package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigTransportLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, Config{Level: tt.level}.TransportLevel())
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{Level: " WARN", Format: "Console"}
	cfg.Normalize()

	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Level: "debug"}
	cfg.applyDefaults()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, 10, cfg.MaxSize)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 7, cfg.MaxAge)
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Config{Level: "warn"}, &buf)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", zap.String("font", "arial.ttf"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "arial.ttf")
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Config{Level: "info", Format: "json"}, &buf)
	defer closer.Close()

	logger.Info("saved", zap.String("output", "out.png"))
	require.NoError(t, logger.Sync())

	assert.Contains(t, buf.String(), `"message":"saved"`)
	assert.Contains(t, buf.String(), `"output":"out.png"`)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inked.log")

	var buf bytes.Buffer
	logger, closer := New(Config{Level: "info", File: path}, &buf)
	logger.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
	assert.Contains(t, buf.String(), "to file")
}
