package app

// Default table limits used when the host does not override them.
const (
	DefaultMinPlayers = 3
	DefaultMaxSeats   = 4
	DefaultHandSize   = 7
)

// Input limits for user-supplied names and session codes.
const (
	MaxNameLength     = 20
	MaxRoomCodeLength = 10
)
