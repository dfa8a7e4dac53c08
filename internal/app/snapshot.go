package app

import "dirtyseven/internal/domain"

// PlayerView is the public part of a seated player.
type PlayerView struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Seat        int    `json:"seat"`
	CardCount   int    `json:"card_count"`
	CardsToDraw int    `json:"cards_to_draw"`
	IsTurn      bool   `json:"is_turn"`
}

// ChainView exposes the active penalty chain.
type ChainView struct {
	TotalCards   int         `json:"total_cards"`
	OriginalSuit domain.Suit `json:"original_suit"`
	SourceSeat   int         `json:"source_seat"`
	TargetSeat   int         `json:"target_seat"`
}

// Snapshot is the state as seen by one player. Only the viewer's own hand is included.
type Snapshot struct {
	Started     bool          `json:"started"`
	Seat        int           `json:"seat"`
	Hand        []domain.Card `json:"hand"`
	IsYourTurn  bool          `json:"is_your_turn"`
	HasDrawn    bool          `json:"has_drawn"`
	CardsToDraw int           `json:"cards_to_draw"`
	HasPlayable bool          `json:"has_playable"`
	MustDraw    bool          `json:"must_draw"`

	TopCard       *domain.Card `json:"top_card,omitempty"`
	EffectiveSuit domain.Suit  `json:"effective_suit,omitempty"`
	Players       []PlayerView `json:"players"`
	CurrentUserID string       `json:"current_user_id,omitempty"`
	DeckSize      int          `json:"deck_size"`
	FirstRound    bool         `json:"first_round"`
	Chain         *ChainView   `json:"chain,omitempty"`
	LastWinner    string       `json:"last_winner,omitempty"`
}

// SnapshotFor builds userID's view of game. Seat is -1 for spectators.
func SnapshotFor(game *domain.Game, userID string) Snapshot {
	snap := Snapshot{
		Started:    game.Started(),
		Seat:       -1,
		Hand:       []domain.Card{},
		DeckSize:   len(game.Deck),
		FirstRound: game.FirstRound,
		LastWinner: game.LastWinner,
		Players:    make([]PlayerView, 0, len(game.Players)),
	}

	if c, ok := game.TopCard(); ok {
		snap.TopCard = &c
		snap.EffectiveSuit = c.EffectiveSuit()
	}
	if game.Chain != nil {
		snap.Chain = &ChainView{
			TotalCards:   game.Chain.TotalCards,
			OriginalSuit: game.Chain.OriginalSuit,
			SourceSeat:   game.Chain.Source,
			TargetSeat:   game.Chain.Target,
		}
	}

	for _, p := range game.Players {
		isTurn := snap.Started && p.Seat == game.CurrentSeat
		snap.Players = append(snap.Players, PlayerView{
			UserID:      p.UserID,
			Name:        p.Name,
			Seat:        p.Seat,
			CardCount:   len(p.Hand),
			CardsToDraw: p.CardsToDraw,
			IsTurn:      isTurn,
		})
		if isTurn {
			snap.CurrentUserID = p.UserID
		}
	}

	me, ok := game.PlayerByUserID(userID)
	if !ok {
		return snap
	}
	snap.Seat = me.Seat
	snap.Hand = append(snap.Hand, me.Hand...)
	snap.HasDrawn = me.HasDrawnThisTurn
	snap.CardsToDraw = me.CardsToDraw
	if snap.Started {
		snap.IsYourTurn = me.Seat == game.CurrentSeat
		snap.HasPlayable = domain.HasPlayableCard(me.Hand, snap.TopCard, me.CardsToDraw, game.FirstRound, game.Chain)
		snap.MustDraw = snap.IsYourTurn && !snap.HasPlayable
	}
	return snap
}
