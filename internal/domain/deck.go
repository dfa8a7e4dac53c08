package domain

import "math/rand"

// DeckSize is the number of cards in a standard deck without jokers.
const DeckSize = 52

// NewDeck returns an ordered 52-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle permutes cards in place using rng.
func Shuffle(rng *rand.Rand, cards []Card) {
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// RemoveAt removes the card at index i and returns it with the remaining hand.
func RemoveAt(hand []Card, i int) (Card, []Card) {
	card := hand[i]
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	out = append(out, hand[i+1:]...)
	return card, out
}
