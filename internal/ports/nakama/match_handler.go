package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"dirtyseven/internal/app"
	"dirtyseven/internal/bot"
	"dirtyseven/internal/config"
	"dirtyseven/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Code                 string                      `json:"code"`
	MatchID              string                      `json:"match_id"`
	Tick                 int64                       `json:"tick"`             // Current tick of the match for turn-based logic
	Presences            map[string]runtime.Presence `json:"-"`                // Map UserId -> Presence for targeted messaging
	App                  *app.Service                `json:"-"`                // Dirty Seven app service with game logic
	Game                 *domain.Game                `json:"-"`                // Seats and, while playing, the round in progress
	Bots                 map[string]*bot.Agent       `json:"-"`                // Active bot agents keyed by user id
	BotWaitUntil         int64                       `json:"bot_wait_until"`   // Tick when the bot should act
	LastSinglePlayerTick int64                       `json:"last_single_tick"` // Tick when a single player started waiting
	EmptySinceTick       int64                       `json:"empty_since_tick"` // Tick when the last human disconnected
	pendingNames         map[string]string           // names accepted by MatchJoinAttempt, keyed by user id
	rng                  *rand.Rand
}

// GetOccupiedSeatCount returns the number of seated players, bots included.
func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Game.Players)
}

// GetHumanPlayerCount returns the number of seated players that are not bots.
func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, p := range ms.Game.Players {
		if !ms.isBot(p.UserID) {
			count++
		}
	}
	return count
}

func (ms *MatchState) isBot(userID string) bool {
	_, ok := ms.Bots[userID]
	return ok
}

type matchHandler struct {
	cfg      config.GameConfig
	roster   *bot.Roster
	registry *app.Registry
}

func newMatchHandler(cfg config.GameConfig, roster *bot.Roster, registry *app.Registry) *matchHandler {
	return &matchHandler{cfg: cfg, roster: roster, registry: registry}
}

// newMatchState builds an empty lobby for code. rng may be nil.
func (mh *matchHandler) newMatchState(code string, rng *rand.Rand) *MatchState {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MatchState{
		Code:      code,
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(rand.New(rand.NewSource(rng.Int63())), mh.cfg.Rules()),
		Game:      domain.NewGame(),
		Bots:      make(map[string]*bot.Agent),
		rng:       rng,

		pendingNames: make(map[string]string),
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	code, _ := params["code"].(string)
	state := mh.newMatchState(code, nil)
	state.MatchID, _ = ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	label, err := buildLabel(code, domain.PhaseLobby, 0, mh.cfg.MaxSeats)
	if err != nil {
		logger.Error("MatchInit: %v", err)
		return nil, 0, ""
	}

	logger.Debug("MatchInit: room %s ready (tick rate %d).", code, mh.cfg.TickRate)
	return state, mh.cfg.TickRate, label
}

// MatchJoinAttempt only validates. The seat is taken in MatchJoin so a client
// that drops before joining never holds one.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()
	name := mh.displayName(matchState, metadata["name"], presence.GetUsername())
	err := matchState.App.CheckJoin(matchState.Game, userID, name)
	if errors.Is(err, app.ErrRoomFull) && mh.hasBot(matchState) && !matchState.Game.Started() {
		err = nil
	}
	if err != nil {
		logger.Info("MatchJoinAttempt: %s rejected from room %s: %v", userID, matchState.Code, err)
		return matchState, false, string(app.CodeOf(err))
	}

	matchState.pendingNames[userID] = name
	return matchState, true, ""
}

// displayName picks the requested name, then the username, and falls back to
// a guest name when neither is valid.
func (mh *matchHandler) displayName(state *MatchState, candidates ...string) string {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if _, err := app.NormalizeName(name); err == nil {
			return name
		}
		break
	}
	return app.FriendlyName(state.rng)
}

func (mh *matchHandler) hasBot(state *MatchState) bool {
	for _, p := range state.Game.Players {
		if state.isBot(p.UserID) {
			return true
		}
	}
	return false
}

// seat claims a seat for a human. A bot gives up its seat when the lobby is full.
func (mh *matchHandler) seat(state *MatchState, userID, name string, logger runtime.Logger) error {
	if _, seated := state.Game.PlayerByUserID(userID); !seated && !state.Game.Started() && state.GetOccupiedSeatCount() >= mh.cfg.MaxSeats {
		mh.evictBot(state, logger)
	}
	_, _, err := state.App.Join(state.Game, userID, name)
	return err
}

func (mh *matchHandler) evictBot(state *MatchState, logger runtime.Logger) {
	for i := len(state.Game.Players) - 1; i >= 0; i-- {
		userID := state.Game.Players[i].UserID
		if !state.isBot(userID) {
			continue
		}
		if _, err := state.App.Leave(state.Game, userID); err == nil {
			delete(state.Bots, userID)
			logger.Info("MatchJoin: Replacing bot %s with a human in room %s", userID, state.Code)
		}
		return
	}
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	var kicked []runtime.Presence
	for _, p := range presences {
		userID := p.GetUserId()
		name, pending := matchState.pendingNames[userID]
		delete(matchState.pendingNames, userID)
		if !pending {
			name = mh.displayName(matchState, p.GetUsername())
		}
		// Another join may have taken the last seat since the attempt.
		if err := mh.seat(matchState, userID, name, logger); err != nil {
			logger.Warn("MatchJoin: User %s lost their seat in room %s: %v", userID, matchState.Code, err)
			kicked = append(kicked, p)
			continue
		}
		matchState.Presences[userID] = p
	}
	if len(kicked) > 0 {
		if err := dispatcher.MatchKick(kicked); err != nil {
			logger.Error("MatchJoin: Failed to kick unseated presences: %v", err)
		}
	}
	matchState.EmptySinceTick = 0

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastRoom(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		mh.removePlayer(matchState, dispatcher, logger, p.GetUserId())
	}

	if matchState.GetHumanPlayerCount() == 0 {
		logger.Info("MatchLeave: Terminating room %s with no humans.", matchState.Code)
		mh.unregister(matchState)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastRoom(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) removePlayer(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	delete(state.Presences, userID)
	events, err := state.App.Leave(state.Game, userID)
	if err != nil {
		logger.Debug("MatchLeave: %s had no seat in room %s", userID, state.Code)
		return
	}
	logger.Debug("MatchLeave: User %s left room %s.", userID, state.Code)
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick
	if matchState.MatchID == "" {
		matchState.MatchID, _ = ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	}
	logger = logger.WithField("room", matchState.Code)

	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), msg.GetData())
	}

	if mh.cfg.BotsEnabled {
		mh.processBots(matchState, dispatcher, logger)
	}

	if len(matchState.Presences) == 0 {
		if matchState.EmptySinceTick == 0 {
			matchState.EmptySinceTick = tick
		}
		if tick-matchState.EmptySinceTick >= int64(idleSeconds*mh.cfg.TickRate) {
			logger.Info("MatchLoop: Closing idle room %s.", matchState.Code)
			mh.unregister(matchState)
			return nil
		}
	}

	return matchState
}

// handleMessage applies one client intent. Rejections go back to the sender
// only and leave the state untouched.
func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, data []byte) {
	var (
		events []app.Event
		err    error
	)

	switch opCode {
	case OpStartGame:
		events, err = state.App.StartGame(state.Game, userID)
	case OpPlayCard:
		var (
			index int
			suit  domain.Suit
		)
		if index, suit, err = decodePlayCard(data); err == nil {
			events, err = state.App.PlayCard(state.Game, userID, index, suit)
		}
	case OpDrawCard:
		events, err = state.App.DrawCard(state.Game, userID)
	case OpPassTurn:
		events, err = state.App.PassTurn(state.Game, userID)
	case OpRestart:
		events, err = state.App.Restart(state.Game, userID)
	default:
		logger.Warn("MatchLoop: Unknown opcode %d from %s", opCode, userID)
		return
	}

	if err != nil {
		seat := -1
		if p, ok := state.Game.PlayerByUserID(userID); ok {
			seat = p.Seat
		}
		logger.Warn("MatchLoop: op %d from %s (seat %d) rejected: %v", opCode, userID, seat, err)
		mh.sendError(state, dispatcher, logger, userID, err)
		return
	}

	mh.applyEvents(state, dispatcher, logger, events)
}

// applyEvents broadcasts accepted events, lets the bots observe them and
// refreshes every player's snapshot.
func (mh *matchHandler) applyEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	relabel := false
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
		for _, agent := range state.Bots {
			agent.OnGameEvent(ev, state.Game)
		}
		switch ev.Kind {
		case app.EventGameStarted, app.EventGameEnded, app.EventRoundAborted:
			relabel = true
		}
	}
	if relabel {
		mh.updateLabel(state, dispatcher, logger)
	}
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	ticksPerSecond := int64(mh.cfg.TickRate)

	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if !state.Game.Started() {
		if state.GetHumanPlayerCount() == 1 && state.GetOccupiedSeatCount() < mh.cfg.MaxSeats {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(mh.cfg.BotAutoFillDelaySeconds)*ticksPerSecond {
				if mh.fillWithBots(state, logger) {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastRoom(state, dispatcher, logger)
					mh.broadcastSnapshots(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		state.BotWaitUntil = 0
		return
	}

	// 2. Handle bot turns in-game
	current := state.Game.Current()
	agent, isBot := state.Bots[current.UserID]
	if !isBot {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := int64(mh.cfg.BotMinDelaySec)
		if spread := mh.cfg.BotMaxDelaySec - mh.cfg.BotMinDelaySec; spread > 0 {
			delay += int64(state.rng.Intn(spread + 1))
		}
		state.BotWaitUntil = state.Tick + delay*ticksPerSecond
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", current.UserID, current.Seat, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	move, events, err := agent.Play(state.App, state.Game)
	if err != nil {
		logger.Error("processBots: Bot %s failed to move: %v", current.UserID, err)
		return
	}
	logger.Debug("processBots: Bot %s chose %s", current.UserID, move.Kind)
	mh.applyEvents(state, dispatcher, logger, events)
}

// fillWithBots seats bots until the table is full and reports whether any sat down.
func (mh *matchHandler) fillWithBots(state *MatchState, logger runtime.Logger) bool {
	added := false
	for state.GetOccupiedSeatCount() < mh.cfg.MaxSeats {
		identity, ok := mh.roster.Available(func(id bot.BotIdentity) bool {
			if _, seated := state.Game.PlayerByUserID(id.UserID); seated {
				return true
			}
			for _, p := range state.Game.Players {
				if p.Name == id.DisplayName {
					return true
				}
			}
			return false
		})
		if !ok {
			logger.Warn("processBots: Bot roster exhausted in room %s", state.Code)
			break
		}

		agent, err := bot.NewAgent(identity, mh.cfg.BotBrain)
		if err != nil {
			logger.Error("Failed to create bot agent for %s: %v", identity.UserID, err)
			break
		}
		p, _, err := state.App.Join(state.Game, identity.UserID, identity.DisplayName)
		if err != nil {
			logger.Error("processBots: Bot %s could not sit down: %v", identity.UserID, err)
			break
		}
		state.Bots[identity.UserID] = agent
		logger.Info("processBots: Added bot %s (%s) to seat %d", identity.DisplayName, identity.UserID, p.Seat)
		added = true
	}
	return added
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	switch ev.Kind {
	case app.EventGameStarted:
		opCode = OpGameStarted
		logger.Info("StartGame: Room %s started with %d players.", state.Code, state.GetOccupiedSeatCount())
	case app.EventCardPlayed:
		opCode = OpCardPlayed
	case app.EventCardDrawn:
		opCode = OpCardDrawn
	case app.EventTurnPassed:
		opCode = OpTurnPassed
	case app.EventGameEnded:
		opCode = OpGameOver
		p := ev.Payload.(app.GameEndedPayload)
		logger.Info("GameOver: %s won in room %s.", p.Winner, state.Code)
	case app.EventRoundAborted:
		opCode = OpRoundAborted
		logger.Info("RoundAborted: Room %s back to lobby: %s", state.Code, ev.Payload.(app.RoundAbortedPayload).Reason)
	case app.EventPlayerJoined, app.EventPlayerLeft:
		// Covered by the room update.
		return
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Intended recipients that are not connected (e.g. bots) must not turn into a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// broadcastSnapshots sends each connected player their own view of the table.
// All views are built from the same state before the handler returns.
func (mh *matchHandler) broadcastSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID, presence := range state.Presences {
		bytes, err := json.Marshal(app.SnapshotFor(state.Game, userID))
		if err != nil {
			logger.Error("Failed to marshal snapshot for %s: %v", userID, err)
			continue
		}
		if err := dispatcher.BroadcastMessage(OpGameState, bytes, []runtime.Presence{presence}, nil, true); err != nil {
			logger.Error("Failed to send snapshot to %s: %v", userID, err)
		}
	}
}

func (mh *matchHandler) broadcastRoom(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	update := RoomUpdate{
		Code:       state.Code,
		Phase:      state.Game.Phase,
		Players:    make([]RoomPlayer, 0, len(state.Game.Players)),
		MinPlayers: mh.cfg.MinPlayers,
		MaxSeats:   mh.cfg.MaxSeats,
	}
	for _, p := range state.Game.Players {
		update.Players = append(update.Players, RoomPlayer{
			UserID: p.UserID,
			Name:   p.Name,
			Seat:   p.Seat,
			IsBot:  state.isBot(p.UserID),
		})
	}
	bytes, err := json.Marshal(update)
	if err != nil {
		logger.Error("Failed to marshal room update: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpRoomUpdate, bytes, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast room update: %v", err)
	}
}

// sendError sends an ErrorMessage to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	bytes, err := json.Marshal(ErrorMessage{Code: app.CodeOf(cause), Message: cause.Error()})
	if err != nil {
		logger.Error("Failed to marshal ErrorMessage: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(state.Code, state.Game.Phase, state.GetOccupiedSeatCount(), mh.cfg.MaxSeats)
	if err != nil {
		logger.Error("UpdateLabel: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) unregister(state *MatchState) {
	if state.Code != "" && state.MatchID != "" {
		mh.registry.Destroy(state.Code, state.MatchID)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	if matchState, ok := state.(*MatchState); ok {
		mh.unregister(matchState)
		logger.Debug("MatchTerminate: Room %s terminated (grace %ds)", matchState.Code, graceSeconds)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
