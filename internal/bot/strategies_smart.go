package bot

import (
	"dirtyseven/internal/app"
	"dirtyseven/internal/domain"
)

// SmartBot answers penalties with reflections before stacking, saves jacks,
// attacks opponents close to going out and remembers which suits an
// opponent could not follow.
type SmartBot struct {
	voids map[string]map[domain.Suit]bool
}

func NewSmartBot() *SmartBot {
	return &SmartBot{voids: make(map[string]map[domain.Suit]bool)}
}

func (b *SmartBot) CalculateMove(snap app.Snapshot) Move {
	legal := playable(snap)
	if !snap.IsYourTurn || len(legal) == 0 {
		return fallback(snap)
	}

	best, bestScore := legal[0], -1<<31
	for _, i := range legal {
		if s := b.score(snap, i); s > bestScore {
			best, bestScore = i, s
		}
	}

	card := snap.Hand[best]
	suit := card.Suit
	if card.Rank == domain.RankJack && !snap.FirstRound {
		suit = b.declare(snap, best)
	}
	return Play(best, suit)
}

func (b *SmartBot) score(snap app.Snapshot, i int) int {
	card := snap.Hand[i]
	group := card.Rank.Group()

	if snap.FirstRound {
		// Effects are inert; keep the jack of clubs for later.
		if group == domain.GroupWild {
			return 0
		}
		return 10
	}

	if snap.CardsToDraw > 0 {
		if group == domain.GroupDefend {
			return 30
		}
		return 20
	}

	nextCount := 0
	if next, ok := nextPlayer(snap); ok {
		nextCount = next.CardCount
	}

	switch group {
	case domain.GroupAttack:
		s := 12
		if nextCount <= 3 {
			s += 10
		}
		return s
	case domain.GroupDefend:
		s := 11
		if nextCount <= 2 {
			s += 8
		}
		return s
	case domain.GroupWild:
		if len(snap.Hand) == 1 {
			return 100
		}
		return -5
	default:
		return 10 + suitCount(snap.Hand, card.Suit, i)
	}
}

// declare picks the suit the bot holds most of, breaking ties toward a
// suit the next player is known to lack.
func (b *SmartBot) declare(snap app.Snapshot, jackIndex int) domain.Suit {
	var void map[domain.Suit]bool
	if next, ok := nextPlayer(snap); ok {
		void = b.voids[next.UserID]
	}

	best, bestScore := domain.SuitHearts, -1
	for _, s := range domain.Suits {
		score := suitCount(snap.Hand, s, jackIndex) * 2
		if void[s] {
			score++
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return best
}

func (b *SmartBot) OnEvent(ev app.Event, snap app.Snapshot) {
	switch p := ev.Payload.(type) {
	case app.CardDrawnPayload:
		if p.Forced || p.Seat == snap.Seat || snap.TopCard == nil || snap.FirstRound {
			return
		}
		if b.voids[p.UserID] == nil {
			b.voids[p.UserID] = make(map[domain.Suit]bool)
		}
		b.voids[p.UserID][snap.TopCard.EffectiveSuit()] = true
	case app.CardPlayedPayload:
		if p.Card.Rank != domain.RankJack {
			delete(b.voids[p.UserID], p.Card.Suit)
		}
	case app.GameStartedPayload, app.GameEndedPayload, app.RoundAbortedPayload:
		b.voids = make(map[string]map[domain.Suit]bool)
	}
}

func nextPlayer(snap app.Snapshot) (app.PlayerView, bool) {
	if len(snap.Players) == 0 || snap.Seat < 0 {
		return app.PlayerView{}, false
	}
	return snap.Players[(snap.Seat+1)%len(snap.Players)], true
}

func suitCount(hand []domain.Card, s domain.Suit, skip int) int {
	n := 0
	for i, c := range hand {
		if i != skip && c.Suit == s {
			n++
		}
	}
	return n
}
