package bot

import "dirtyseven/internal/app"

// BasicBot plays the first legal card, otherwise draws, otherwise passes.
type BasicBot struct{}

func (b *BasicBot) CalculateMove(snap app.Snapshot) Move {
	if !snap.IsYourTurn {
		return fallback(snap)
	}
	if legal := playable(snap); len(legal) > 0 {
		i := legal[0]
		return Play(i, snap.Hand[i].Suit)
	}
	return fallback(snap)
}

func (b *BasicBot) OnEvent(app.Event, app.Snapshot) {}
