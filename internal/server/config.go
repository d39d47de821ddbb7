package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardtsar/cardtsar/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameConfig     `hcl:"game,block"`
	Decks  []DeckConfig   `hcl:"deck,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameConfig contains the game tunables
type GameConfig struct {
	PlayerCards         int   `hcl:"player_cards,optional"`
	WinPoints           int   `hcl:"win_points,optional"`
	MaxPlayers          int   `hcl:"max_players,optional"`
	RoundTimeoutSeconds int   `hcl:"round_timeout_seconds,optional"`
	Seed                int64 `hcl:"seed,optional"`
}

// DeckConfig names a card bag to load at startup
type DeckConfig struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "cardtsar-server.log",
		},
		Game: GameConfig{
			PlayerCards:         10,
			WinPoints:           5,
			MaxPlayers:          10,
			RoundTimeoutSeconds: 120,
		},
		Decks: []DeckConfig{
			{Name: "starter", Path: "decks/starter.json"},
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = "cardtsar-server.log"
	}

	if config.Game.PlayerCards == 0 {
		config.Game.PlayerCards = 10
	}
	if config.Game.WinPoints == 0 {
		config.Game.WinPoints = 5
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = 10
	}
	if config.Game.RoundTimeoutSeconds == 0 {
		config.Game.RoundTimeoutSeconds = 120
	}

	if len(config.Decks) == 0 {
		config.Decks = DefaultConfig().Decks
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Game.PlayerCards < 1 {
		return fmt.Errorf("player_cards must be positive")
	}
	if c.Game.WinPoints < 1 {
		return fmt.Errorf("win_points must be positive")
	}
	if c.Game.MaxPlayers < 3 {
		return fmt.Errorf("max_players must be at least 3, a round needs a tsar and two players")
	}
	if c.Game.RoundTimeoutSeconds < 0 {
		return fmt.Errorf("round_timeout_seconds must not be negative")
	}

	if len(c.Decks) == 0 {
		return fmt.Errorf("at least one deck must be configured")
	}
	for _, deck := range c.Decks {
		if deck.Path == "" {
			return fmt.Errorf("deck %s: path is required", deck.Name)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameSettings converts the configured tunables into engine settings. The
// engine treats min/max as advisory; clamping out-of-range values is this
// layer's job.
func (c *Config) GameSettings() *game.Settings {
	s := game.DefaultSettings()
	clampSetting(&s.PlayerCards, c.Game.PlayerCards)
	clampSetting(&s.WinPoints, c.Game.WinPoints)
	clampSetting(&s.GamePlayerCount, c.Game.MaxPlayers)
	return s
}

func clampSetting(s *game.Setting, v int) {
	if v < s.Min {
		v = s.Min
	}
	if v > s.Max {
		v = s.Max
	}
	s.Value = v
}

// GetDeckByName returns a deck configuration by name
func (c *Config) GetDeckByName(name string) *DeckConfig {
	for _, deck := range c.Decks {
		if deck.Name == name {
			return &deck
		}
	}
	return nil
}
