package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"dirtyseven/internal/app"
)

// DefaultPath is where the server looks for an optional config file.
const DefaultPath = "data/game_config.json"

// GameConfig holds the tunables of a Dirty Seven deployment.
type GameConfig struct {
	MinPlayers int `json:"min_players" env:"DIRTYSEVEN_MIN_PLAYERS"`
	MaxSeats   int `json:"max_seats"   env:"DIRTYSEVEN_MAX_SEATS"`
	HandSize   int `json:"hand_size"   env:"DIRTYSEVEN_HAND_SIZE"`
	TickRate   int `json:"tick_rate"   env:"DIRTYSEVEN_TICK_RATE"`

	BotsEnabled    bool   `json:"bots_enabled"      env:"DIRTYSEVEN_BOTS_ENABLED"`
	BotBrain       string `json:"bot_brain"         env:"DIRTYSEVEN_BOT_BRAIN"`
	BotMinDelaySec int    `json:"bot_min_delay_sec" env:"DIRTYSEVEN_BOT_MIN_DELAY_SEC"`
	BotMaxDelaySec int    `json:"bot_max_delay_sec" env:"DIRTYSEVEN_BOT_MAX_DELAY_SEC"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds" env:"DIRTYSEVEN_BOT_AUTO_FILL_DELAY_SEC"`
	BotIdentitiesPath       string `json:"bot_identities_path"         env:"DIRTYSEVEN_BOT_IDENTITIES_PATH"`
}

// Default returns the standard table: three to four players, seven cards each.
func Default() GameConfig {
	return GameConfig{
		MinPlayers:              app.DefaultMinPlayers,
		MaxSeats:                app.DefaultMaxSeats,
		HandSize:                app.DefaultHandSize,
		TickRate:                5,
		BotBrain:                "smart",
		BotMinDelaySec:          1,
		BotMaxDelaySec:          3,
		BotAutoFillDelaySeconds: 10,
		BotIdentitiesPath:       "data/bot_identities.json",
	}
}

// Load layers the file at path (if it exists) and then environ over the
// defaults. environ is usually the Nakama runtime environment map.
func Load(path string, environ map[string]string) (GameConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return GameConfig{}, fmt.Errorf("failed to read game config: %w", err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
			}
		}
	}

	if environ == nil {
		environ = map[string]string{}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return GameConfig{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a playable table.
func (c GameConfig) Validate() error {
	switch {
	case c.MinPlayers < 2:
		return fmt.Errorf("min_players must be at least 2, got %d", c.MinPlayers)
	case c.MaxSeats < c.MinPlayers || c.MaxSeats > app.DefaultMaxSeats:
		return fmt.Errorf("max_seats must be between min_players and %d, got %d", app.DefaultMaxSeats, c.MaxSeats)
	case c.HandSize < 1 || c.HandSize*c.MaxSeats >= 52:
		return fmt.Errorf("hand_size %d does not leave a deck for %d seats", c.HandSize, c.MaxSeats)
	case c.TickRate < 1:
		return fmt.Errorf("tick_rate must be positive, got %d", c.TickRate)
	case c.BotMinDelaySec < 0 || c.BotMaxDelaySec < c.BotMinDelaySec:
		return fmt.Errorf("bot delays out of order: min %d, max %d", c.BotMinDelaySec, c.BotMaxDelaySec)
	case c.BotAutoFillDelaySeconds < 0:
		return fmt.Errorf("bot_auto_fill_delay_seconds must not be negative")
	case c.BotBrain != "basic" && c.BotBrain != "smart":
		return fmt.Errorf("unknown bot_brain %q", c.BotBrain)
	}
	return nil
}

// Rules returns the table limits enforced by the session service.
func (c GameConfig) Rules() app.Rules {
	return app.Rules{MinPlayers: c.MinPlayers, MaxSeats: c.MaxSeats, HandSize: c.HandSize}
}
