package domain

// AttackPenalty is the number of cards each seven adds to a penalty chain.
const AttackPenalty = 2

// Effect names what a played card did to turn order or the penalty chain.
type Effect string

const (
	EffectNone    Effect = ""
	EffectAttack  Effect = "attack"
	EffectReflect Effect = "reflect"
	EffectSkip    Effect = "skip"
	EffectWild    Effect = "wild"
)

// Outcome is the resolver's verdict on how the turn moves after a play.
type Outcome struct {
	Effect Effect
	// Redirected is set when NextSeat must replace the default one-seat advance.
	Redirected bool
	NextSeat   int
}

// ResolveEffect applies the special effect of card, just played by the seat
// actor, to the penalty chain and forced-draw counts. It must only be called
// for legal plays made outside the first round.
func (g *Game) ResolveEffect(actor int, card Card) Outcome {
	switch card.Rank.Group() {
	case GroupAttack:
		return g.attack(actor, card)
	case GroupDefend:
		if g.Chain != nil && g.Chain.TotalCards > 0 {
			return g.reflect(actor, card)
		}
		return Outcome{Effect: EffectSkip, Redirected: true, NextSeat: g.Step(actor, 2)}
	case GroupWild:
		return Outcome{Effect: EffectWild}
	default:
		return Outcome{}
	}
}

// attack opens a chain or stacks onto the active one; the chain always moves
// to the seat after the attacker.
func (g *Game) attack(actor int, card Card) Outcome {
	forward := g.Step(actor, 1)
	if g.Chain == nil {
		g.Chain = &PenaltyChain{TotalCards: AttackPenalty}
	} else {
		g.Chain.TotalCards += AttackPenalty
	}
	g.Chain.OriginalSuit = card.Suit
	g.Chain.Source = actor
	g.Chain.Target = forward

	g.Players[forward].CardsToDraw = g.Chain.TotalCards
	g.Players[actor].CardsToDraw = 0
	return Outcome{Effect: EffectAttack}
}

// reflect sends the whole chain back to whoever last fed it, and hands them the turn.
func (g *Game) reflect(actor int, card Card) Outcome {
	back := g.Chain.Source
	g.Players[back].CardsToDraw = g.Chain.TotalCards
	g.Players[actor].CardsToDraw = 0

	g.Chain.OriginalSuit = card.Suit
	g.Chain.Source = actor
	g.Chain.Target = back
	return Outcome{Effect: EffectReflect, Redirected: true, NextSeat: back}
}
