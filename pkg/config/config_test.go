package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	global = nil
	t.Cleanup(func() {
		viper.Reset()
		global = nil
	})
}

func TestInit(t *testing.T) {
	t.Run("should apply defaults without a config file", func(t *testing.T) {
		resetViper(t)

		require.NoError(t, Init(""))
		settings := Get()

		assert.Equal(t, "http://localhost:8000", settings.Server.URL)
		assert.Equal(t, 30*time.Second, settings.Server.Timeout)
		assert.Equal(t, "recent", settings.Chat.HistoryStrategy)
		assert.Equal(t, time.Duration(0), settings.Stream.StallTimeout)
		assert.Equal(t, "info", settings.Logging.Level)
	})

	t.Run("should load values from a config file", func(t *testing.T) {
		resetViper(t)

		dir := t.TempDir()
		path := filepath.Join(dir, "settings.yaml")
		content := `server:
  url: https://chat.example.com
  timeout: 10s
chat:
  model_id: llama3
  use_rag: true
stream:
  stall_timeout: 45s
logging:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		require.NoError(t, Init(path))
		settings := Get()

		assert.Equal(t, "https://chat.example.com", settings.Server.URL)
		assert.Equal(t, 10*time.Second, settings.Server.Timeout)
		assert.Equal(t, "llama3", settings.Chat.ModelID)
		assert.True(t, settings.Chat.UseRAG)
		assert.Equal(t, 45*time.Second, settings.Stream.StallTimeout)
		assert.Equal(t, "debug", settings.Logging.Level)
		assert.Equal(t, path, settings.ConfigFile)
	})

	t.Run("should fail on an unreadable explicit config file", func(t *testing.T) {
		resetViper(t)

		dir := t.TempDir()
		path := filepath.Join(dir, "settings.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0644))

		assert.Error(t, Init(path))
	})
}
