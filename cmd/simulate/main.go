// Command simulate plays bot-only rounds of Dirty Seven through the same
// service the Nakama match uses and prints a summary table.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"dirtyseven/internal/config"

	"github.com/pterm/pterm"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to game_config.json")
	games := flag.Int("games", 100, "number of rounds to play")
	players := flag.Int("players", 0, "seats to fill with bots (0 uses max_seats)")
	seed := flag.Int64("seed", 0, "random seed (0 picks one from the clock)")
	brains := flag.String("brains", "", "comma separated brain per seat, e.g. smart,basic")
	flag.Parse()

	// Create a new slog handler with the default PTerm logger
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	cfg, err := config.Load(*configPath, environ())
	if err != nil {
		logger.Error("failed to load game config", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	seats := *players
	if seats == 0 {
		seats = cfg.MaxSeats
	}

	opts := Options{
		Rounds: *games,
		Seats:  seats,
		Brains: splitBrains(*brains, seats, cfg.BotBrain),
		Rules:  cfg.Rules(),
	}
	logger.Info("simulating", "rounds", opts.Rounds, "seats", opts.Seats, "seed", *seed)

	report, err := Simulate(rand.New(rand.NewSource(*seed)), opts, logger)
	if err != nil {
		logger.Error("simulation failed", "error", err.Error())
		os.Exit(1)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(report.Table()).Render(); err != nil {
		logger.Error("failed to render table", "error", err.Error())
	}
	pterm.Info.Printfln("%d rounds, %.1f actions per round, %d reshuffles, %d stalled",
		report.Rounds, report.AverageActions(), report.Reshuffles, report.Stalled)
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// splitBrains expands a comma separated list to one entry per seat, padding
// with def.
func splitBrains(list string, seats int, def string) []string {
	out := make([]string, seats)
	parts := strings.Split(list, ",")
	for i := range out {
		out[i] = def
		if i < len(parts) && strings.TrimSpace(parts[i]) != "" {
			out[i] = strings.TrimSpace(parts[i])
		}
	}
	return out
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
	}
}
