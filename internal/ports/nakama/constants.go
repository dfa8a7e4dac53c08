package nakama

const (
	// RpcJoinRoom is the Nakama RPC id clients call to resolve a room code to a match.
	RpcJoinRoom = "join_room"
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// MatchNameDirtySeven is the authoritative match handler name registered with Nakama.
	MatchNameDirtySeven = "dirtyseven_match"

	// GameLabel identifies this game in match labels.
	GameLabel = "dirtyseven"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpPlayCard  int64 = 2
	OpDrawCard  int64 = 3
	OpPassTurn  int64 = 4
	OpRestart   int64 = 5

	// Server -> Client events
	OpRoomUpdate   int64 = 101
	OpGameState    int64 = 102 // send privately
	OpGameStarted  int64 = 103
	OpCardPlayed   int64 = 104
	OpCardDrawn    int64 = 105
	OpTurnPassed   int64 = 106
	OpGameOver     int64 = 107
	OpRoundAborted int64 = 108
	OpError        int64 = 199 // send privately
)

// idleSeconds is how long a match with nobody connected survives.
const idleSeconds = 120
