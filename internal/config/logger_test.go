package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/w3giveaway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesRelativeFileUnderDir(t *testing.T) {
	dir := t.TempDir()
	logger, err := config.NewLogger(config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		OutputPath: "logs/app.log",
	}, dir)
	require.NoError(t, err)

	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "logs", "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := config.NewLogger(config.LoggingConfig{Level: "loud"}, t.TempDir())
	assert.Error(t, err)
}

func TestNewLoggerDefaultsToStderr(t *testing.T) {
	logger, err := config.NewLogger(config.LoggingConfig{}, "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
