package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"dirtyseven/internal/app"
	"dirtyseven/internal/config"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// quickMatchQuery finds public lobbies of this game that still have a free seat.
var quickMatchQuery = fmt.Sprintf("+label.%s:%s +label.%s:T +label.%s:%s",
	MatchLabelKey_Game, GameLabel, MatchLabelKey_Open, MatchLabelKey_Phase, "lobby")

// rpcQuickMatch returns an open lobby, or opens a new room when none is listed.
func rpcQuickMatch(cfg config.GameConfig, registry *app.Registry) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		limit := 10
		authoritative := true
		minSize := 1
		maxSize := cfg.MaxSeats - 1

		matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery)
		if err != nil {
			logger.Error("MatchList error: %v", err)
			return "", err
		}

		for _, m := range matches {
			code := labelCode(m.GetLabel().GetValue())
			if code == "" {
				continue
			}
			b, _ := json.Marshal(QuickMatchResponse{MatchID: m.GetMatchId(), Code: code, IsNew: false})
			return string(b), nil
		}

		// No open lobby; open a fresh room under a random code.
		code := newRoomCode()
		matchID, _, err := resolveRoom(ctx, nk, registry, code)
		if err != nil {
			logger.Error("MatchCreate error: %v", err)
			return "", err
		}

		b, _ := json.Marshal(QuickMatchResponse{MatchID: matchID, Code: code, IsNew: true})
		return string(b), nil
	}
}

// newRoomCode returns a six character code made of hex digits.
func newRoomCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

func labelCode(label string) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(label), &parsed); err != nil {
		return ""
	}
	code, _ := parsed[MatchLabelKey_Code].(string)
	return code
}
