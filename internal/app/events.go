package app

import "dirtyseven/internal/domain"

// EventKind identifies emitted session events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined EventKind = "player_joined"
	EventPlayerLeft   EventKind = "player_left"
	EventGameStarted  EventKind = "game_started"
	EventCardPlayed   EventKind = "card_played"
	EventCardDrawn    EventKind = "card_drawn"
	EventTurnPassed   EventKind = "turn_passed"
	EventGameEnded    EventKind = "game_ended"
	EventRoundAborted EventKind = "round_aborted"
)

// Event is a session event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Seat   int    `json:"seat"`
}

type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type GameStartedPayload struct {
	Players         int    `json:"players"`
	FirstTurnUserID string `json:"first_turn_user_id"`
}

type CardPlayedPayload struct {
	UserID         string        `json:"user_id"`
	Seat           int           `json:"seat"`
	Card           domain.Card   `json:"card"`
	Effect         domain.Effect `json:"effect,omitempty"`
	NextTurnUserID string        `json:"next_turn_user_id,omitempty"`
}

// CardDrawnPayload is broadcast without the card itself; the drawer sees it in their snapshot.
type CardDrawnPayload struct {
	UserID     string `json:"user_id"`
	Seat       int    `json:"seat"`
	Forced     bool   `json:"forced"`
	StillOwed  int    `json:"still_owed"`
	Reshuffled bool   `json:"reshuffled"`
	Empty      bool   `json:"empty"`
}

type TurnPassedPayload struct {
	UserID         string `json:"user_id"`
	NextTurnUserID string `json:"next_turn_user_id"`
}

type GameEndedPayload struct {
	WinnerUserID string `json:"winner_user_id"`
	Winner       string `json:"winner"`
}

type RoundAbortedPayload struct {
	Reason string `json:"reason"`
}
