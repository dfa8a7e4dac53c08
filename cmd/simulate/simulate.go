package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"

	"dirtyseven/internal/app"
	"dirtyseven/internal/bot"
	"dirtyseven/internal/domain"
)

// maxActions caps a single round. Bots that keep drawing and passing on a
// thin deck can circle for a long time.
const maxActions = 5000

// Options configures a simulation run.
type Options struct {
	Rounds int
	Seats  int
	Brains []string // one per seat
	Rules  app.Rules
}

// SeatStats aggregates one seat's results.
type SeatStats struct {
	Name  string
	Brain string
	Wins  int
	Cards int // cards still held summed over rounds this seat lost
}

// Report is the outcome of a simulation run.
type Report struct {
	Rounds     int
	Actions    int
	Reshuffles int
	Stalled    int
	Seats      []SeatStats
}

// AverageActions returns the mean number of accepted actions per round.
func (r Report) AverageActions() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return float64(r.Actions) / float64(r.Rounds)
}

// Table renders the per-seat results with a header row.
func (r Report) Table() [][]string {
	rows := [][]string{{"Seat", "Bot", "Brain", "Wins", "Win %", "Cards left"}}
	for i, s := range r.Seats {
		pct := 0.0
		if r.Rounds > 0 {
			pct = 100 * float64(s.Wins) / float64(r.Rounds)
		}
		rows = append(rows, []string{
			strconv.Itoa(i), s.Name, s.Brain, strconv.Itoa(s.Wins),
			fmt.Sprintf("%.1f", pct), strconv.Itoa(s.Cards),
		})
	}
	return rows
}

// Simulate seats opts.Seats bots at one table and plays opts.Rounds rounds.
func Simulate(rng *rand.Rand, opts Options, logger *slog.Logger) (Report, error) {
	if opts.Seats < opts.Rules.MinPlayers || opts.Seats > opts.Rules.MaxSeats {
		return Report{}, fmt.Errorf("seats must be between %d and %d, got %d", opts.Rules.MinPlayers, opts.Rules.MaxSeats, opts.Seats)
	}
	roster := bot.DefaultRoster()
	if roster.Len() < opts.Seats {
		return Report{}, errors.New("not enough bot identities")
	}

	svc := app.NewService(rng, opts.Rules)
	game := domain.NewGame()
	agents := make(map[string]*bot.Agent, opts.Seats)
	report := Report{Seats: make([]SeatStats, opts.Seats)}

	for i := 0; i < opts.Seats; i++ {
		identity := roster.Pick(i)
		agent, err := bot.NewAgent(identity, opts.Brains[i])
		if err != nil {
			return Report{}, err
		}
		if _, _, err := svc.Join(game, identity.UserID, identity.DisplayName); err != nil {
			return Report{}, fmt.Errorf("seat %s: %w", identity.DisplayName, err)
		}
		agents[identity.UserID] = agent
		report.Seats[i] = SeatStats{Name: identity.DisplayName, Brain: opts.Brains[i]}
	}

	for round := 0; round < opts.Rounds; round++ {
		if err := playRound(svc, game, agents, &report, logger.With("round", round)); err != nil {
			return report, err
		}
		report.Rounds++
	}
	return report, nil
}

func playRound(svc *app.Service, game *domain.Game, agents map[string]*bot.Agent, report *Report, logger *slog.Logger) error {
	events, err := svc.StartGame(game, game.Players[0].UserID)
	if err != nil {
		return err
	}
	broadcast(agents, game, events)

	for actions := 0; game.Started(); actions++ {
		if actions == maxActions {
			logger.Warn("round stalled", "actions", actions, "deck", len(game.Deck))
			report.Stalled++
			events, err := svc.Restart(game, game.Players[0].UserID)
			broadcast(agents, game, events)
			return err
		}

		current := game.Current()
		// Snapshot the hands before a winning play resets them.
		held := make([]int, len(game.Players))
		for i, p := range game.Players {
			held[i] = len(p.Hand)
		}

		move, events, err := agents[current.UserID].Play(svc, game)
		if err != nil {
			return fmt.Errorf("%s could not move: %w", current.Name, err)
		}
		report.Actions++
		broadcast(agents, game, events)

		for _, ev := range events {
			switch p := ev.Payload.(type) {
			case app.CardDrawnPayload:
				if p.Reshuffled {
					report.Reshuffles++
				}
			case app.GameEndedPayload:
				for i := range report.Seats {
					if game.Players[i].UserID == p.WinnerUserID {
						report.Seats[i].Wins++
						continue
					}
					report.Seats[i].Cards += held[i]
				}
				logger.Debug("round won", "winner", p.Winner, "move", move.Kind.String())
			}
		}
	}
	return nil
}

func broadcast(agents map[string]*bot.Agent, game *domain.Game, events []app.Event) {
	for _, ev := range events {
		for _, agent := range agents {
			agent.OnGameEvent(ev, game)
		}
	}
}
