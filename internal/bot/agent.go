package bot

import (
	"errors"
	"fmt"

	"dirtyseven/internal/app"
	"dirtyseven/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	Identity BotIdentity
	Strategy Brain
}

// NewAgent builds an agent for identity, using the identity's own brain
// when it names one and defaultBrain otherwise.
func NewAgent(identity BotIdentity, defaultBrain string) (*Agent, error) {
	name := identity.Brain
	if name == "" {
		name = defaultBrain
	}
	brain, err := NewBrain(name)
	if err != nil {
		return nil, err
	}
	return &Agent{Identity: identity, Strategy: brain}, nil
}

// Play asks the agent for a move and applies it through svc. When the chosen
// move is rejected the agent falls back to drawing, then passing, so a bot
// never stalls the table.
func (a *Agent) Play(svc *app.Service, game *domain.Game) (Move, []app.Event, error) {
	snap := app.SnapshotFor(game, a.Identity.UserID)
	if snap.Seat < 0 {
		return Move{}, nil, fmt.Errorf("bot %s is not seated", a.Identity.UserID)
	}

	move := a.Strategy.CalculateMove(snap)
	events, err := apply(svc, game, a.Identity.UserID, move)
	if err == nil {
		return move, events, nil
	}
	if errors.Is(err, app.ErrOutOfTurn) || errors.Is(err, app.ErrNotPlaying) {
		return move, nil, err
	}

	for _, retry := range []Move{Draw(), Pass()} {
		if retry.Kind == move.Kind {
			continue
		}
		if events, rerr := apply(svc, game, a.Identity.UserID, retry); rerr == nil {
			return retry, events, nil
		}
	}
	return move, nil, fmt.Errorf("bot %s %s: %w", a.Identity.UserID, move.Kind, err)
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(ev app.Event, game *domain.Game) {
	a.Strategy.OnEvent(ev, app.SnapshotFor(game, a.Identity.UserID))
}

func apply(svc *app.Service, game *domain.Game, userID string, move Move) ([]app.Event, error) {
	switch move.Kind {
	case MovePlay:
		return svc.PlayCard(game, userID, move.CardIndex, move.Suit)
	case MoveDraw:
		return svc.DrawCard(game, userID)
	default:
		return svc.PassTurn(game, userID)
	}
}
