package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		checkFunc func(t *testing.T, logger *Logger, output *bytes.Buffer)
	}{
		{
			name:   "json debug level keeps debug records",
			config: &Config{Level: "debug", Format: "json"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("session heartbeat", slog.String("session_id", "abc"))

				entry := decodeLine(t, strings.TrimSpace(output.String()))
				assert.Equal(t, "DEBUG", entry["level"])
				assert.Equal(t, "session heartbeat", entry["msg"])
				assert.Equal(t, "abc", entry["session_id"])
				assert.Contains(t, entry, "time")
			},
		},
		{
			name:   "json info level drops debug records",
			config: &Config{Level: "info", Format: "json"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("dropped")
				logger.Info("job enqueued", slog.String("topic", "meeting.process"))

				lines := strings.Split(strings.TrimSpace(output.String()), "\n")
				require.Len(t, lines, 1)
				entry := decodeLine(t, lines[0])
				assert.Equal(t, "INFO", entry["level"])
				assert.Equal(t, "meeting.process", entry["topic"])
			},
		},
		{
			name:   "json error level drops warnings",
			config: &Config{Level: "error", Format: "json"},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Warn("dropped")
				logger.Error("job failed", slog.String("error", "boom"))

				lines := strings.Split(strings.TrimSpace(output.String()), "\n")
				require.Len(t, lines, 1)
				entry := decodeLine(t, lines[0])
				assert.Equal(t, "ERROR", entry["level"])
				assert.Equal(t, "boom", entry["error"])
			},
		},
		{
			name:   "console format uses tint",
			config: &Config{Level: "info", Format: "console", NoColor: true, TimeFormat: time.Kitchen},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Info("console test")

				logOutput := output.String()
				assert.Contains(t, logOutput, "INF")
				assert.Contains(t, logOutput, "console test")
			},
		},
		{
			name:   "source location enabled",
			config: &Config{Level: "info", Format: "json", EnableSource: true},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Info("message with source")

				entry := decodeLine(t, strings.TrimSpace(output.String()))
				require.Contains(t, entry, "source")
				source := entry["source"].(map[string]interface{})
				assert.Contains(t, source, "file")
				assert.Contains(t, source, "line")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			cfg := *tt.config
			cfg.writer = output

			logger, err := New(&cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)

			tt.checkFunc(t, logger, output)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")

	logger, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("written to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestLogger_Derived(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{Level: "info", Format: "json", writer: output})
	require.NoError(t, err)

	t.Run("with group", func(t *testing.T) {
		output.Reset()
		logger.WithGroup("recording").Info("started", slog.String("mode", "cloud"))

		entry := decodeLine(t, strings.TrimSpace(output.String()))
		group := entry["recording"].(map[string]interface{})
		assert.Equal(t, "cloud", group["mode"])
	})

	t.Run("with attrs", func(t *testing.T) {
		output.Reset()
		logger.WithAttrs(slog.String("request_id", "12345")).Info("handled")

		entry := decodeLine(t, strings.TrimSpace(output.String()))
		assert.Equal(t, "12345", entry["request_id"])
	})

	t.Run("with args", func(t *testing.T) {
		output.Reset()
		logger.With(slog.Int("workers", 2)).Info("pool ready")

		entry := decodeLine(t, strings.TrimSpace(output.String()))
		assert.Equal(t, float64(2), entry["workers"])
	})

	t.Run("component", func(t *testing.T) {
		output.Reset()
		logger.Component("jobqueue").Info("started")

		entry := decodeLine(t, strings.TrimSpace(output.String()))
		assert.Equal(t, "jobqueue", entry["component"])
	})
}
