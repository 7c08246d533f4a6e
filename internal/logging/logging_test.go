package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	t.Setenv(LevelEnv, "")
	path := filepath.Join(t.TempDir(), "streamwatch.log")

	logger, err := New("info", path)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("capture started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "capture started")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	path := filepath.Join(t.TempDir(), "streamwatch.log")

	logger, err := New("error", path)
	require.NoError(t, err)
	logger.Debug("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}
