package domain

// CanPlay reports whether card may legally be placed on top of the discard
// pile. top is nil while the pile is empty. owedDraws is the acting player's
// outstanding forced-draw count and chain the active penalty chain, if any.
func CanPlay(card Card, top *Card, owedDraws int, firstRound bool, chain *PenaltyChain) bool {
	// Only clubs during the first round; special ranks are plain cards here.
	if firstRound {
		return card.EffectiveSuit() == SuitClubs
	}

	// A jack cannot dodge a pending penalty, even on an empty pile.
	if top == nil {
		return card.Rank != RankJack || owedDraws == 0
	}

	if owedDraws > 0 {
		if !canAnswerPenalty(card.Rank) {
			return false
		}
		if chain != nil {
			return card.Suit == chain.OriginalSuit
		}
		return matches(card, *top)
	}

	if card.Rank.Group() == GroupWild {
		return true
	}
	return matches(card, *top)
}

// HasPlayableCard reports whether any card in hand passes CanPlay.
func HasPlayableCard(hand []Card, top *Card, owedDraws int, firstRound bool, chain *PenaltyChain) bool {
	return len(PlayableIndexes(hand, top, owedDraws, firstRound, chain)) > 0
}

// PlayableIndexes returns the hand positions of every legal card, in hand order.
func PlayableIndexes(hand []Card, top *Card, owedDraws int, firstRound bool, chain *PenaltyChain) []int {
	var out []int
	for i, c := range hand {
		if CanPlay(c, top, owedDraws, firstRound, chain) {
			out = append(out, i)
		}
	}
	return out
}

func canAnswerPenalty(r Rank) bool {
	g := r.Group()
	return g == GroupAttack || g == GroupDefend
}

// matches is the ordinary follow rule: same effective suit or same rank.
func matches(card, top Card) bool {
	return card.Suit == top.EffectiveSuit() || card.Rank == top.Rank
}
