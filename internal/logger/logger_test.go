package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questHubAPI/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")

	log, err := New(&config.Config{LogLevel: "debug", LogPath: path, LogMaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("checkin recorded")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"checkin recorded"`)
	assert.Contains(t, string(raw), `"service":"questhub-api"`)
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(&config.Config{LogLevel: "loud"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(-1))
	assert.True(t, log.Core().Enabled(0))
}
