package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn", AppEnv: "staging"})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("rbac resolve failed, denying", slog.Int64("actor_id", 7))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "alumnihub", entry["service"])
	assert.Equal(t, "staging", entry["env"])
	assert.EqualValues(t, 7, entry["actor_id"])
	assert.Contains(t, entry, "source")
}

func TestLogLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, logLevel(nil))
	assert.Equal(t, slog.LevelInfo, logLevel(&Config{LogLevel: "loud"}))
	assert.Equal(t, slog.LevelDebug, logLevel(&Config{LogLevel: "debug"}))
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
