package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ":8080", config.HTTP.Addr)
	assert.Equal(t, 10*time.Second, config.Game.TimePerTurn)
	assert.Equal(t, "medium", config.Game.DefaultMode)
	assert.Empty(t, config.Redis.Addr)
	assert.Equal(t, "channel:events", config.Redis.Channel)
	assert.Equal(t, 2*time.Second, config.Redis.PublishTimeout)
	assert.False(t, config.Telemetry.Enabled)
	assert.Equal(t, "tictac", config.Telemetry.ServiceName)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
http:
  addr: ":9090"
game:
  time-per-turn: 30s
  default-mode: pvp
redis:
  addr: "localhost:6379"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ":9090", config.HTTP.Addr)
	assert.Equal(t, 30*time.Second, config.Game.TimePerTurn)
	assert.Equal(t, "pvp", config.Game.DefaultMode)
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "game:\n  time-per-turn: 5s\n")
	t.Setenv("GAME_TIME_PER_TURN", "7s")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, config.Game.TimePerTurn)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"turn too short", "game:\n  time-per-turn: 500ms\n"},
		{"turn too long", "game:\n  time-per-turn: 31s\n"},
		{"unknown mode", "game:\n  default-mode: hard\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	path := writeConfig(t, "game:\n  default-mode: hard\n")
	assert.Panics(t, func() { MustLoad(path) })
}
