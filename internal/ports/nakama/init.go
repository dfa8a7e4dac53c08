package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"dirtyseven/internal/app"
	"dirtyseven/internal/bot"
	"dirtyseven/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := config.Load(config.DefaultPath, env)
	if err != nil {
		return fmt.Errorf("load game config: %w", err)
	}

	roster, err := bot.LoadIdentities(cfg.BotIdentitiesPath)
	if err != nil {
		logger.Warn("InitModule: Could not load bot identities, using built-in roster: %v", err)
		roster = bot.DefaultRoster()
	}

	registry := app.NewRegistry()

	if err := RegisterRPCs(initializer, cfg, registry); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameDirtySeven, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(cfg, roster, registry), nil
	}); err != nil {
		return err
	}

	logger.Info("Dirty Seven Go module loaded (min players %d, max seats %d, bots %v).", cfg.MinPlayers, cfg.MaxSeats, cfg.BotsEnabled)
	return nil
}
