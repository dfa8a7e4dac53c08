package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"dirtyseven/internal/app"
	"dirtyseven/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used for RPC errors.
const (
	codeInvalidArgument = 3
	codeInternal        = 13
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, cfg config.GameConfig, registry *app.Registry) error {
	if err := initializer.RegisterRpc(RpcJoinRoom, rpcJoinRoom(registry)); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch(cfg, registry))
}

// rpcJoinRoom resolves a room code to its match, creating the match the
// first time the code is used.
//
// Payload: {"code": "ABC123"}
// Returns: JoinRoomResponse as JSON.
func rpcJoinRoom(registry *app.Registry) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

		var req JoinRoomRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("payload must be {\"code\": string}", codeInvalidArgument)
		}
		code, err := app.NormalizeRoomCode(req.Code)
		if err != nil {
			return "", runtime.NewError(err.Error(), codeInvalidArgument)
		}

		matchID, created, err := resolveRoom(ctx, nk, registry, code)
		if err != nil {
			logger.Error("RpcJoinRoom [User:%s]: room %s: %v", userID, code, err)
			return "", runtime.NewError("could not open room", codeInternal)
		}
		if created {
			logger.Info("RpcJoinRoom [User:%s]: Created room %s as match %s", userID, code, matchID)
		}

		b, err := json.Marshal(JoinRoomResponse{MatchID: matchID, Code: code, Created: created})
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// resolveRoom returns the live match for code. A registration whose match
// is gone is dropped and replaced.
func resolveRoom(ctx context.Context, nk runtime.NakamaModule, registry *app.Registry, code string) (string, bool, error) {
	create := func(code string) (string, error) {
		return nk.MatchCreate(ctx, MatchNameDirtySeven, map[string]interface{}{"code": code})
	}

	if matchID, err := registry.Lookup(code); err == nil {
		if match, err := nk.MatchGet(ctx, matchID); err == nil && match != nil {
			return matchID, false, nil
		}
		registry.Destroy(code, matchID)
	}
	return registry.GetOrCreate(code, create)
}
