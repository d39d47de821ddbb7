package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server {
  address = "0.0.0.0"
  port    = 9090
}

game {
  player_cards          = 7
  win_points            = 3
  max_players           = 6
  round_timeout_seconds = 60
  seed                  = 42
}

deck "base" {
  path = "decks/base.json"
}

deck "expansion" {
  path = "decks/expansion.json"
}
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.GetServerAddress())

	assert.Equal(t, 7, cfg.Game.PlayerCards)
	assert.Equal(t, 3, cfg.Game.WinPoints)
	assert.Equal(t, 6, cfg.Game.MaxPlayers)
	assert.Equal(t, 60, cfg.Game.RoundTimeoutSeconds)
	assert.Equal(t, int64(42), cfg.Game.Seed)

	require.Len(t, cfg.Decks, 2)
	assert.Equal(t, "base", cfg.Decks[0].Name)
	assert.Equal(t, "decks/expansion.json", cfg.Decks[1].Path)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, `
server {}
game {}
`))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Game.PlayerCards)
	assert.Equal(t, 5, cfg.Game.WinPoints)
	assert.Equal(t, 10, cfg.Game.MaxPlayers)
	assert.Equal(t, 120, cfg.Game.RoundTimeoutSeconds)
	require.Len(t, cfg.Decks, 1)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, `server { port = `))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero player cards", func(c *Config) { c.Game.PlayerCards = 0 }},
		{"zero win points", func(c *Config) { c.Game.WinPoints = 0 }},
		{"too few players", func(c *Config) { c.Game.MaxPlayers = 2 }},
		{"negative timeout", func(c *Config) { c.Game.RoundTimeoutSeconds = -1 }},
		{"no decks", func(c *Config) { c.Decks = nil }},
		{"deck without path", func(c *Config) { c.Decks = []DeckConfig{{Name: "x"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGameSettings(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, sampleConfig))
	require.NoError(t, err)

	s := cfg.GameSettings()
	assert.Equal(t, 7, s.PlayerCards.Value)
	assert.Equal(t, 3, s.WinPoints.Value)
	assert.Equal(t, 6, s.GamePlayerCount.Value)
}

func TestGameSettingsClampsToAdvisoryBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Game.PlayerCards = 999
	cfg.Game.MaxPlayers = 100

	s := cfg.GameSettings()
	assert.Equal(t, s.PlayerCards.Max, s.PlayerCards.Value)
	assert.Equal(t, s.GamePlayerCount.Max, s.GamePlayerCount.Value)
}

func TestGetDeckByName(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, sampleConfig))
	require.NoError(t, err)

	require.NotNil(t, cfg.GetDeckByName("expansion"))
	assert.Nil(t, cfg.GetDeckByName("missing"))
}
