package game

// Setting is one tunable value with its advisory bounds. Min, Max and
// Default are metadata for configuration layers; the engine itself only
// ever reads Value and never enforces the bounds.
type Setting struct {
	Value   int
	Min     int
	Max     int
	Default int
}

// Settings holds the game's tunables.
type Settings struct {
	// PlayerCards is the hand size each player is refilled to at dealing.
	PlayerCards Setting
	// WinPoints is the score that ends the game. The check is exact
	// equality, so scoring rules must only ever award single points.
	WinPoints Setting
	// GamePlayerCount is the maximum number of players allowed to join.
	GamePlayerCount Setting
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() *Settings {
	return &Settings{
		PlayerCards:     Setting{Value: 10, Min: 1, Max: 20, Default: 10},
		WinPoints:       Setting{Value: 5, Min: 1, Max: 100, Default: 5},
		GamePlayerCount: Setting{Value: 10, Min: 3, Max: 20, Default: 10},
	}
}
