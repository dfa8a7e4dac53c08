package domain

import "math/rand"

// Phase represents the lifecycle stage of a Dirty Seven session.
type Phase string

const (
	// PhaseLobby is the pre-game state where players can join and leave.
	PhaseLobby Phase = "lobby"
	// PhasePlaying is the active round where intents are accepted.
	PhasePlaying Phase = "playing"
)

// Player holds the per-participant state of a session.
type Player struct {
	UserID string
	Name   string
	Seat   int // 0-based index into Game.Players, equal to turn order

	Hand []Card

	// CardsToDraw counts forced penalty draws still owed.
	CardsToDraw int
	// HasDrawnThisTurn gates the single voluntary draw and the draw-before-pass rule.
	HasDrawnThisTurn bool
	// FirstRoundSatisfied flips once the player has played or passed in the first round.
	FirstRoundSatisfied bool
}

// PenaltyChain tracks an outstanding attack while someone owes forced draws.
type PenaltyChain struct {
	TotalCards   int
	OriginalSuit Suit // suit a defending card must follow
	Source       int  // seat that most recently added to or redirected the chain
	Target       int  // seat obligated to draw TotalCards unless they defend
}

// Game is the authoritative state of a single session.
type Game struct {
	Phase   Phase
	Players []*Player

	CurrentSeat int
	Direction   int // +1 or -1

	Deck        []Card
	DiscardPile []Card

	FirstRound               bool
	FirstRoundPlaysRemaining int

	Chain *PenaltyChain

	// LastWinner is the name of whoever emptied their hand in the previous round.
	LastWinner string
}

// NewGame returns an empty session in the lobby.
func NewGame() *Game {
	return &Game{Phase: PhaseLobby, Direction: 1}
}

// Started reports whether a round is in progress.
func (g *Game) Started() bool {
	return g.Phase == PhasePlaying
}

// Current returns the player whose turn it is, or nil when nobody is seated.
func (g *Game) Current() *Player {
	if g.CurrentSeat < 0 || g.CurrentSeat >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentSeat]
}

// TopCard returns the card on top of the discard pile.
func (g *Game) TopCard() (Card, bool) {
	if len(g.DiscardPile) == 0 {
		return Card{}, false
	}
	return g.DiscardPile[len(g.DiscardPile)-1], true
}

// PlayerByUserID looks up a seated player.
func (g *Game) PlayerByUserID(userID string) (*Player, bool) {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return nil, false
}

// CardCount sums the cards held by the deck, the discard pile and every hand.
// While a round is in progress it always equals DeckSize.
func (g *Game) CardCount() int {
	n := len(g.Deck) + len(g.DiscardPile)
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	return n
}

// MarkFirstRoundAction records that p played or passed. Once every seat has
// acted the first round ends for good.
func (g *Game) MarkFirstRoundAction(p *Player) {
	if !g.FirstRound || p.FirstRoundSatisfied {
		return
	}
	p.FirstRoundSatisfied = true
	g.FirstRoundPlaysRemaining--
	if g.FirstRoundPlaysRemaining <= 0 {
		g.FirstRound = false
	}
}

// TakeFromDeck removes the next card from the deck. When the deck is empty the
// discard pile, minus its top card, is shuffled back in first. ok is false when
// no card is left anywhere outside the hands.
func (g *Game) TakeFromDeck(rng *rand.Rand) (card Card, ok bool, reshuffled bool) {
	if len(g.Deck) == 0 && len(g.DiscardPile) > 1 {
		g.recycleDiscards(rng)
		reshuffled = true
	}
	if len(g.Deck) == 0 {
		return Card{}, false, reshuffled
	}
	last := len(g.Deck) - 1
	card = g.Deck[last]
	g.Deck = g.Deck[:last]
	return card, true, reshuffled
}

func (g *Game) recycleDiscards(rng *rand.Rand) {
	top := g.DiscardPile[len(g.DiscardPile)-1]
	rest := g.DiscardPile[:len(g.DiscardPile)-1]

	deck := make([]Card, len(rest))
	for i, c := range rest {
		deck[i] = c.Identity()
	}
	Shuffle(rng, deck)

	g.Deck = deck
	g.DiscardPile = []Card{top}
}

// Reset returns the session to the lobby. Players keep their seats; all cards
// and per-round flags are cleared.
func (g *Game) Reset() {
	g.Phase = PhaseLobby
	g.Deck = nil
	g.DiscardPile = nil
	g.Chain = nil
	g.CurrentSeat = 0
	g.Direction = 1
	g.FirstRound = false
	g.FirstRoundPlaysRemaining = 0
	for _, p := range g.Players {
		p.Hand = nil
		p.CardsToDraw = 0
		p.HasDrawnThisTurn = false
		p.FirstRoundSatisfied = false
	}
}

// Reseat renumbers seats to match the order of Players.
func (g *Game) Reseat() {
	for i, p := range g.Players {
		p.Seat = i
	}
	if g.CurrentSeat >= len(g.Players) {
		g.CurrentSeat = 0
	}
}
