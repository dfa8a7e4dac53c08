package app

import (
	"math/rand"
	"time"

	"dirtyseven/internal/domain"
)

// Rules are the table limits a host may vary per deployment.
type Rules struct {
	MinPlayers int
	MaxSeats   int
	HandSize   int
}

// DefaultRules returns the standard three-to-four player table with seven-card hands.
func DefaultRules() Rules {
	return Rules{MinPlayers: DefaultMinPlayers, MaxSeats: DefaultMaxSeats, HandSize: DefaultHandSize}
}

// Service contains Dirty Seven use-cases operating on domain state.
// It is not safe for concurrent use on the same game; callers serialize per session.
type Service struct {
	rng   *rand.Rand
	rules Rules
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand, rules Rules) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, rules: rules}
}

// Rules returns the table limits the service enforces.
func (s *Service) Rules() Rules {
	return s.rules
}

// CheckJoin reports whether Join would seat userID under rawName, without
// changing the table.
func (s *Service) CheckJoin(game *domain.Game, userID, rawName string) error {
	if _, ok := game.PlayerByUserID(userID); ok {
		return nil
	}
	_, err := s.checkNewSeat(game, rawName)
	return err
}

func (s *Service) checkNewSeat(game *domain.Game, rawName string) (string, error) {
	if game.Started() {
		return "", ErrNotInLobby
	}
	if len(game.Players) >= s.rules.MaxSeats {
		return "", ErrRoomFull
	}
	name, err := NormalizeName(rawName)
	if err != nil {
		return "", err
	}
	for _, p := range game.Players {
		if p.Name == name {
			return "", ErrNameTaken
		}
	}
	return name, nil
}

// Join seats a player. A user already seated keeps their seat, which also
// covers reconnects during a round.
func (s *Service) Join(game *domain.Game, userID, rawName string) (*domain.Player, []Event, error) {
	if p, ok := game.PlayerByUserID(userID); ok {
		return p, nil, nil
	}
	name, err := s.checkNewSeat(game, rawName)
	if err != nil {
		return nil, nil, err
	}

	p := &domain.Player{UserID: userID, Name: name, Seat: len(game.Players)}
	game.Players = append(game.Players, p)

	return p, []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{UserID: userID, Name: name, Seat: p.Seat},
	}}, nil
}

// Leave removes a player's seat. Leaving mid-round sends everyone back to the
// lobby because the remaining hands no longer add up to a full deck.
func (s *Service) Leave(game *domain.Game, userID string) ([]Event, error) {
	idx := -1
	for i, p := range game.Players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownPlayer
	}
	left := game.Players[idx]
	wasPlaying := game.Started()

	game.Players = append(game.Players[:idx:idx], game.Players[idx+1:]...)
	if wasPlaying {
		game.Reset()
	}
	game.Reseat()

	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{UserID: left.UserID, Name: left.Name},
	}}
	if wasPlaying {
		events = append(events, Event{
			Kind:    EventRoundAborted,
			Payload: RoundAbortedPayload{Reason: left.Name + " left the table"},
		})
	}
	return events, nil
}

// StartGame shuffles a fresh deck and deals a hand to every seat.
func (s *Service) StartGame(game *domain.Game, actorUserID string) ([]Event, error) {
	if _, ok := game.PlayerByUserID(actorUserID); !ok {
		return nil, ErrUnknownPlayer
	}
	if game.Started() {
		return nil, ErrNotInLobby
	}
	if len(game.Players) < s.rules.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	deck := domain.NewDeck()
	domain.Shuffle(s.rng, deck)

	for _, p := range game.Players {
		p.Hand = append([]domain.Card(nil), deck[:s.rules.HandSize]...)
		deck = deck[s.rules.HandSize:]
		p.CardsToDraw = 0
		p.HasDrawnThisTurn = false
		p.FirstRoundSatisfied = false
	}

	game.Phase = domain.PhasePlaying
	game.Deck = deck
	game.DiscardPile = nil
	game.Chain = nil
	game.CurrentSeat = 0
	game.Direction = 1
	game.FirstRound = true
	game.FirstRoundPlaysRemaining = len(game.Players)

	return []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			Players:         len(game.Players),
			FirstTurnUserID: game.Current().UserID,
		},
	}}, nil
}

// PlayCard plays the card at cardIndex from the actor's hand. declared is only
// consulted for jacks; SuitNone keeps the jack's own suit.
func (s *Service) PlayCard(game *domain.Game, actorUserID string, cardIndex int, declared domain.Suit) ([]Event, error) {
	p, err := s.actor(game, actorUserID)
	if err != nil {
		return nil, err
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return nil, ErrInvalidCardIndex
	}
	if declared != domain.SuitNone && !declared.Valid() {
		return nil, ErrInvalidSuit
	}

	inFirstRound := game.FirstRound
	card := p.Hand[cardIndex]
	var top *domain.Card
	if c, ok := game.TopCard(); ok {
		top = &c
	}
	if !domain.CanPlay(card, top, p.CardsToDraw, inFirstRound, game.Chain) {
		return nil, ErrInvalidMove
	}

	card, p.Hand = domain.RemoveAt(p.Hand, cardIndex)
	if card.Rank == domain.RankJack {
		switch {
		case inFirstRound:
			card.DeclaredSuit = domain.SuitClubs
		case declared != domain.SuitNone:
			card.DeclaredSuit = declared
		}
	}
	game.DiscardPile = append(game.DiscardPile, card)
	game.MarkFirstRoundAction(p)

	group := card.Rank.Group()
	answeringChain := game.Chain != nil && (group == domain.GroupAttack || group == domain.GroupDefend)
	if !answeringChain {
		p.CardsToDraw = 0
	}

	// The play that closes the first round already takes effect.
	var outcome domain.Outcome
	if !game.FirstRound {
		outcome = game.ResolveEffect(p.Seat, card)
	}

	played := CardPlayedPayload{UserID: p.UserID, Seat: p.Seat, Card: card, Effect: outcome.Effect}

	if len(p.Hand) == 0 {
		game.LastWinner = p.Name
		game.Reset()
		return []Event{
			{Kind: EventCardPlayed, Payload: played},
			{Kind: EventGameEnded, Payload: GameEndedPayload{WinnerUserID: p.UserID, Winner: p.Name}},
		}, nil
	}

	p.HasDrawnThisTurn = false
	if outcome.Redirected {
		game.CurrentSeat = outcome.NextSeat
	} else {
		game.Advance()
	}
	next := game.Current()
	next.HasDrawnThisTurn = false
	played.NextTurnUserID = next.UserID

	return []Event{{Kind: EventCardPlayed, Payload: played}}, nil
}

// DrawCard takes one card from the deck. A player owing penalty cards may keep
// drawing; otherwise only one voluntary draw is allowed per turn. The turn
// does not move.
func (s *Service) DrawCard(game *domain.Game, actorUserID string) ([]Event, error) {
	p, err := s.actor(game, actorUserID)
	if err != nil {
		return nil, err
	}
	if p.CardsToDraw == 0 && p.HasDrawnThisTurn {
		return nil, ErrAlreadyDrew
	}

	forced := p.CardsToDraw > 0
	card, ok, reshuffled := game.TakeFromDeck(s.rng)
	if ok {
		p.Hand = append(p.Hand, card)
	}
	p.HasDrawnThisTurn = true

	if p.CardsToDraw > 0 {
		p.CardsToDraw--
		if p.CardsToDraw == 0 && game.Chain != nil && game.Chain.Target == p.Seat {
			game.Chain = nil
		}
	}

	return []Event{{
		Kind: EventCardDrawn,
		Payload: CardDrawnPayload{
			UserID:     p.UserID,
			Seat:       p.Seat,
			Forced:     forced,
			StillOwed:  p.CardsToDraw,
			Reshuffled: reshuffled,
			Empty:      !ok,
		},
	}}, nil
}

// PassTurn ends the actor's turn after at least one draw with nothing owed.
func (s *Service) PassTurn(game *domain.Game, actorUserID string) ([]Event, error) {
	p, err := s.actor(game, actorUserID)
	if err != nil {
		return nil, err
	}
	if p.CardsToDraw > 0 {
		return nil, ErrMustDrawOrDefend
	}
	if !p.HasDrawnThisTurn {
		return nil, ErrMustDrawFirst
	}

	p.HasDrawnThisTurn = false
	game.MarkFirstRoundAction(p)
	game.Advance()
	next := game.Current()
	next.HasDrawnThisTurn = false

	return []Event{{
		Kind:    EventTurnPassed,
		Payload: TurnPassedPayload{UserID: p.UserID, NextTurnUserID: next.UserID},
	}}, nil
}

// Restart abandons the round in progress and returns the table to the lobby.
func (s *Service) Restart(game *domain.Game, actorUserID string) ([]Event, error) {
	if _, ok := game.PlayerByUserID(actorUserID); !ok {
		return nil, ErrUnknownPlayer
	}
	if !game.Started() {
		return nil, ErrNotPlaying
	}
	game.Reset()
	return []Event{{
		Kind:    EventRoundAborted,
		Payload: RoundAbortedPayload{Reason: "restarted"},
	}}, nil
}

// actor resolves the user to a seated player and checks it is their turn.
func (s *Service) actor(game *domain.Game, userID string) (*domain.Player, error) {
	if !game.Started() {
		return nil, ErrNotPlaying
	}
	p, ok := game.PlayerByUserID(userID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if p.Seat != game.CurrentSeat {
		return nil, ErrOutOfTurn
	}
	return p, nil
}
