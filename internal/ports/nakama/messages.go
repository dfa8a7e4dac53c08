package nakama

import (
	"encoding/json"
	"fmt"

	"dirtyseven/internal/app"
	"dirtyseven/internal/domain"
)

// PlayCardRequest is the payload of OpPlayCard.
type PlayCardRequest struct {
	CardIndex    *int   `json:"card_index"`
	DeclaredSuit string `json:"declared_suit,omitempty"`
}

// decodePlayCard parses a play intent. Malformed payloads map to the
// invalid-index and invalid-suit rejections.
func decodePlayCard(data []byte) (int, domain.Suit, error) {
	var req PlayCardRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return 0, domain.SuitNone, fmt.Errorf("%w: %v", app.ErrInvalidCardIndex, err)
	}
	if req.CardIndex == nil {
		return 0, domain.SuitNone, fmt.Errorf("%w: card_index missing", app.ErrInvalidCardIndex)
	}
	if req.DeclaredSuit == "" {
		return *req.CardIndex, domain.SuitNone, nil
	}
	suit, err := domain.ParseSuit(req.DeclaredSuit)
	if err != nil {
		return 0, domain.SuitNone, fmt.Errorf("%w: %v", app.ErrInvalidSuit, err)
	}
	return *req.CardIndex, suit, nil
}

// ErrorMessage is sent privately to the player whose intent was rejected.
type ErrorMessage struct {
	Code    app.Code `json:"code"`
	Message string   `json:"message"`
}

// RoomPlayer is one seat in a room update.
type RoomPlayer struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Seat   int    `json:"seat"`
	IsBot  bool   `json:"is_bot"`
}

// RoomUpdate is broadcast whenever seat membership changes.
type RoomUpdate struct {
	Code       string       `json:"code"`
	Phase      domain.Phase `json:"phase"`
	Players    []RoomPlayer `json:"players"`
	MinPlayers int          `json:"min_players"`
	MaxSeats   int          `json:"max_seats"`
}

// JoinRoomRequest is the payload of the join_room RPC.
type JoinRoomRequest struct {
	Code string `json:"code"`
}

// JoinRoomResponse tells the client which match to join over the socket.
type JoinRoomResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
	Created bool   `json:"created"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
	IsNew   bool   `json:"is_new"`
}
