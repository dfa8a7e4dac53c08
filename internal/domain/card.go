package domain

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits. The zero value means "no suit".
type Suit int8

const (
	SuitNone Suit = iota
	SuitHearts
	SuitDiamonds
	SuitClubs
	SuitSpades
)

// Suits lists the four playable suits in deck order.
var Suits = [...]Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

var suitNames = [...]string{
	SuitNone:     "",
	SuitHearts:   "hearts",
	SuitDiamonds: "diamonds",
	SuitClubs:    "clubs",
	SuitSpades:   "spades",
}

func (s Suit) String() string {
	if s < SuitNone || int(s) >= len(suitNames) {
		return fmt.Sprintf("suit(%d)", int8(s))
	}
	return suitNames[s]
}

// Valid reports whether s is one of the four playable suits.
func (s Suit) Valid() bool {
	return s >= SuitHearts && s <= SuitSpades
}

// ParseSuit maps a suit name (case-insensitive) to a Suit.
func ParseSuit(name string) (Suit, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Suits {
		if suitNames[s] == n {
			return s, nil
		}
	}
	return SuitNone, fmt.Errorf("unknown suit %q", name)
}

func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = SuitNone
		return nil
	}
	parsed, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rank is a card rank. Number ranks use their face value; court cards and the
// ace follow in ascending order.
type Rank int8

const (
	RankTwo Rank = iota + 2
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
)

// Ranks lists all thirteen ranks in ascending order.
var Ranks = [...]Rank{
	RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight,
	RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
}

func (r Rank) String() string {
	switch {
	case r >= RankTwo && r <= RankTen:
		return fmt.Sprintf("%d", int8(r))
	case r == RankJack:
		return "jack"
	case r == RankQueen:
		return "queen"
	case r == RankKing:
		return "king"
	case r == RankAce:
		return "ace"
	default:
		return fmt.Sprintf("rank(%d)", int8(r))
	}
}

// Valid reports whether r is one of the thirteen ranks.
func (r Rank) Valid() bool {
	return r >= RankTwo && r <= RankAce
}

// ParseRank maps "2".."10", "jack", "queen", "king" or "ace" to a Rank.
func ParseRank(name string) (Rank, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, r := range Ranks {
		if r.String() == n {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", name)
}

func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RankGroup classifies ranks by the effect they trigger when played.
type RankGroup int

const (
	GroupPlain RankGroup = iota
	// GroupAttack opens or stacks a penalty chain (sevens).
	GroupAttack
	// GroupDefend reflects a chain, or skips a seat when no chain is active (tens and aces).
	GroupDefend
	// GroupWild lets the player declare the suit to follow (jacks).
	GroupWild
)

// Group returns the effect group of the rank.
func (r Rank) Group() RankGroup {
	switch r {
	case RankSeven:
		return GroupAttack
	case RankTen, RankAce:
		return GroupDefend
	case RankJack:
		return GroupWild
	default:
		return GroupPlain
	}
}

// Card is a single playing card. DeclaredSuit is only set on a jack once it
// has been played with a wild suit and overrides Suit for matching.
type Card struct {
	Suit         Suit `json:"suit"`
	Rank         Rank `json:"rank"`
	DeclaredSuit Suit `json:"declared_suit,omitempty"`
}

// EffectiveSuit returns the suit that governs matching against this card.
func (c Card) EffectiveSuit() Suit {
	if c.Rank == RankJack && c.DeclaredSuit.Valid() {
		return c.DeclaredSuit
	}
	return c.Suit
}

// Identity strips the transient declared suit, leaving the deck identity.
func (c Card) Identity() Card {
	return Card{Suit: c.Suit, Rank: c.Rank}
}

func (c Card) String() string {
	if c.DeclaredSuit.Valid() {
		return fmt.Sprintf("%s of %s (as %s)", c.Rank, c.Suit, c.DeclaredSuit)
	}
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}
