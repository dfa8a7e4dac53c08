package bot

import "dirtyseven/internal/app"

// Brain is the interface that all bot strategies must implement. A brain
// sees only its own player's snapshot, never the other hands.
type Brain interface {
	CalculateMove(snap app.Snapshot) Move
	OnEvent(ev app.Event, snap app.Snapshot)
}
