package bot

import (
	"dirtyseven/internal/app"
	"dirtyseven/internal/domain"
)

// MoveKind is the intent a bot sends on its turn.
type MoveKind int

const (
	MovePlay MoveKind = iota
	MoveDraw
	MovePass
)

func (k MoveKind) String() string {
	switch k {
	case MovePlay:
		return "play"
	case MoveDraw:
		return "draw"
	case MovePass:
		return "pass"
	default:
		return "unknown"
	}
}

// Move represents the decision made by the AI.
type Move struct {
	Kind      MoveKind
	CardIndex int
	Suit      domain.Suit // declared suit when the card is a jack
}

// Play returns a move that plays the card at index i.
func Play(i int, suit domain.Suit) Move { return Move{Kind: MovePlay, CardIndex: i, Suit: suit} }

// Draw returns a draw move.
func Draw() Move { return Move{Kind: MoveDraw} }

// Pass returns a pass move.
func Pass() Move { return Move{Kind: MovePass} }

// fallback draws when allowed and passes otherwise. It never returns a play.
func fallback(snap app.Snapshot) Move {
	if snap.CardsToDraw > 0 || !snap.HasDrawn {
		return Draw()
	}
	return Pass()
}

// playable lists legal hand indexes for the snapshot's owner.
func playable(snap app.Snapshot) []int {
	return domain.PlayableIndexes(snap.Hand, snap.TopCard, snap.CardsToDraw, snap.FirstRound, chainOf(snap))
}

func chainOf(snap app.Snapshot) *domain.PenaltyChain {
	if snap.Chain == nil {
		return nil
	}
	return &domain.PenaltyChain{
		TotalCards:   snap.Chain.TotalCards,
		OriginalSuit: snap.Chain.OriginalSuit,
		Source:       snap.Chain.SourceSeat,
		Target:       snap.Chain.TargetSeat,
	}
}
