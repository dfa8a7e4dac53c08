package app

import "errors"

// Rejections. None of them leave a mark on the session state.
var (
	ErrOutOfTurn         = errors.New("not your turn")
	ErrInvalidMove       = errors.New("card cannot be played")
	ErrInvalidCardIndex  = errors.New("card index out of range")
	ErrInvalidSuit       = errors.New("declared suit is not a suit")
	ErrMustDrawOrDefend  = errors.New("must draw owed cards or defend before passing")
	ErrMustDrawFirst     = errors.New("must draw before passing")
	ErrAlreadyDrew       = errors.New("already drew this turn")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrNotInLobby        = errors.New("round already in progress")
	ErrNotPlaying        = errors.New("no round in progress")
	ErrUnknownPlayer     = errors.New("player not found")
	ErrRoomFull          = errors.New("room is full")
	ErrNameTaken         = errors.New("name already taken")
	ErrInvalidName       = errors.New("invalid player name")
	ErrInvalidRoomCode   = errors.New("invalid room code")
	ErrRoomNotRegistered = errors.New("room not registered")
)

// Code is a machine-readable rejection code sent to clients.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeNotYourTurn      Code = "NOT_YOUR_TURN"
	CodeInvalidMove      Code = "INVALID_MOVE"
	CodeInvalidCardIndex Code = "INVALID_CARD_INDEX"
	CodeInvalidSuit      Code = "INVALID_SUIT"
	CodeMustDrawOrDefend Code = "MUST_DRAW_OR_DEFEND"
	CodeMustDrawFirst    Code = "MUST_DRAW_FIRST"
	CodeAlreadyDrew      Code = "ALREADY_DREW"
	CodeNotEnoughPlayers Code = "NOT_ENOUGH_PLAYERS"
	CodeNotInLobby       Code = "NOT_IN_LOBBY"
	CodeNotPlaying       Code = "NOT_PLAYING"
	CodeUnknownPlayer    Code = "UNKNOWN_PLAYER"
	CodeRoomFull         Code = "ROOM_FULL"
	CodeNameTaken        Code = "NAME_TAKEN"
	CodeInvalidName      Code = "INVALID_NAME"
	CodeInvalidRoomCode  Code = "INVALID_ROOM_CODE"
	CodeRoomNotFound     Code = "ROOM_NOT_FOUND"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrOutOfTurn, CodeNotYourTurn},
	{ErrInvalidMove, CodeInvalidMove},
	{ErrInvalidCardIndex, CodeInvalidCardIndex},
	{ErrInvalidSuit, CodeInvalidSuit},
	{ErrMustDrawOrDefend, CodeMustDrawOrDefend},
	{ErrMustDrawFirst, CodeMustDrawFirst},
	{ErrAlreadyDrew, CodeAlreadyDrew},
	{ErrNotEnoughPlayers, CodeNotEnoughPlayers},
	{ErrNotInLobby, CodeNotInLobby},
	{ErrNotPlaying, CodeNotPlaying},
	{ErrUnknownPlayer, CodeUnknownPlayer},
	{ErrRoomFull, CodeRoomFull},
	{ErrNameTaken, CodeNameTaken},
	{ErrInvalidName, CodeInvalidName},
	{ErrInvalidRoomCode, CodeInvalidRoomCode},
	{ErrRoomNotRegistered, CodeRoomNotFound},
}

// CodeOf returns the code for err, unwrapping as needed.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
