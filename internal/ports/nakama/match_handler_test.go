package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"dirtyseven/internal/app"
	"dirtyseven/internal/bot"
	"dirtyseven/internal/config"
	"dirtyseven/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// testPresence stubs the two presence fields the handler reads.
type testPresence struct {
	runtime.Presence
	userID string
}

func (p testPresence) GetUserId() string   { return p.userID }
func (p testPresence) GetUsername() string { return p.userID }

type sentMessage struct {
	opCode int64
	data   []byte
	to     []string // user ids; empty means broadcast
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent   []sentMessage
	labels []string
	kicked []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.to = append(msg.to, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	for _, p := range presences {
		md.kicked = append(md.kicked, p.GetUserId())
	}
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) byOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

func (md *mockDispatcher) reset() {
	md.sent = nil
	md.labels = nil
}

func testConfig() config.GameConfig {
	cfg := config.Default()
	cfg.BotMinDelaySec = 0
	cfg.BotMaxDelaySec = 0
	cfg.BotAutoFillDelaySeconds = 1
	return cfg
}

func newTestMatch(t *testing.T, cfg config.GameConfig) (*matchHandler, *MatchState, *mockDispatcher) {
	t.Helper()
	mh := newMatchHandler(cfg, bot.DefaultRoster(), app.NewRegistry())
	state := mh.newMatchState("ROOM1", rand.New(rand.NewSource(7)))
	return mh, state, &mockDispatcher{}
}

func join(t *testing.T, mh *matchHandler, state *MatchState, d *mockDispatcher, userID, name string) {
	t.Helper()
	p := testPresence{userID: userID}
	_, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, p, map[string]string{"name": name})
	if !ok {
		t.Fatalf("join %s rejected: %s", userID, reason)
	}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{p})
}

func decodeLabel(t *testing.T, label string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(label), &out); err != nil {
		t.Fatalf("label %q: %v", label, err)
	}
	return out
}

func TestMatchInitLabel(t *testing.T) {
	cfg := testConfig()
	mh := newMatchHandler(cfg, bot.DefaultRoster(), app.NewRegistry())

	state, tickRate, label := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{"code": "ABC"})
	if state == nil || tickRate != cfg.TickRate {
		t.Fatalf("MatchInit returned state=%v tickRate=%d", state, tickRate)
	}

	got := decodeLabel(t, label)
	if got[MatchLabelKey_Game] != GameLabel || got[MatchLabelKey_Code] != "ABC" || got[MatchLabelKey_Phase] != "lobby" {
		t.Fatalf("label = %v", got)
	}
	if got[MatchLabelKey_Open] != true || got[MatchLabelKey_OpenSeats] != float64(4) {
		t.Fatalf("label seats = %v", got)
	}
}

func TestBuildLabelClosedWhilePlaying(t *testing.T) {
	label, err := buildLabel("X1", domain.PhasePlaying, 3, 4)
	if err != nil {
		t.Fatalf("buildLabel: %v", err)
	}
	got := decodeLabel(t, label)
	if got[MatchLabelKey_Open] != false || got[MatchLabelKey_OpenSeats] != float64(1) {
		t.Fatalf("label = %v", got)
	}
}

func TestJoinAttemptRejections(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	for i, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
		join(t, mh, state, d, fmt.Sprintf("u%d", i+1), name)
	}

	_, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, testPresence{userID: "u5"}, map[string]string{"name": "Eve"})
	if ok || reason != string(app.CodeRoomFull) {
		t.Fatalf("full room: ok=%v reason=%q", ok, reason)
	}

	// A seated player may reconnect even mid-round.
	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)
	if !state.Game.Started() {
		t.Fatalf("game did not start")
	}
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, testPresence{userID: "u2"}, nil); !ok {
		t.Fatalf("rejoin rejected: %s", reason)
	}
}

func TestJoinAttemptLateJoinerAndGuestName(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	join(t, mh, state, d, "u1", "Alice")
	join(t, mh, state, d, "u2", "b@d n@me")

	p, ok := state.Game.PlayerByUserID("u2")
	if !ok {
		t.Fatalf("u2 not seated")
	}
	if _, err := app.NormalizeName(p.Name); err != nil || p.Name == "b@d n@me" {
		t.Fatalf("invalid name kept: %q", p.Name)
	}

	join(t, mh, state, d, "u3", "Carol")
	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)

	_, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, testPresence{userID: "late"}, map[string]string{"name": "Late"})
	if ok || reason != string(app.CodeNotInLobby) {
		t.Fatalf("late joiner: ok=%v reason=%q", ok, reason)
	}
}

func TestRejectionIsPrivate(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	join(t, mh, state, d, "u1", "Alice")
	join(t, mh, state, d, "u2", "Bob")
	d.reset()

	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)

	if state.Game.Started() {
		t.Fatalf("start with two players must be rejected")
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(d.sent))
	}
	msg := d.sent[0]
	if msg.opCode != OpError || len(msg.to) != 1 || msg.to[0] != "u1" {
		t.Fatalf("error message = %+v", msg)
	}
	var payload ErrorMessage
	if err := json.Unmarshal(msg.data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != app.CodeNotEnoughPlayers {
		t.Fatalf("code = %s", payload.Code)
	}
}

func TestStartSendsPrivateSnapshots(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		join(t, mh, state, d, fmt.Sprintf("u%d", i+1), name)
	}
	d.reset()

	mh.handleMessage(state, d, noopLogger{}, "u2", OpStartGame, nil)

	if got := d.byOp(OpGameStarted); len(got) != 1 || len(got[0].to) != 0 {
		t.Fatalf("game started broadcasts = %+v", got)
	}
	snaps := d.byOp(OpGameState)
	if len(snaps) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(snaps))
	}
	for _, m := range snaps {
		if len(m.to) != 1 {
			t.Fatalf("snapshot must be private, to=%v", m.to)
		}
		var snap app.Snapshot
		if err := json.Unmarshal(m.data, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		p, _ := state.Game.PlayerByUserID(m.to[0])
		if snap.Seat != p.Seat || len(snap.Hand) != 7 || !snap.Started || !snap.FirstRound {
			t.Fatalf("snapshot for %s = %+v", m.to[0], snap)
		}
		if snap.IsYourTurn != (p.Seat == 0) {
			t.Fatalf("turn flag wrong for seat %d", p.Seat)
		}
	}
	if len(d.labels) != 1 || decodeLabel(t, d.labels[0])[MatchLabelKey_Phase] != "playing" {
		t.Fatalf("labels = %v", d.labels)
	}
}

func TestPlayCardOverTheWire(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		join(t, mh, state, d, fmt.Sprintf("u%d", i+1), name)
	}
	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)

	giveClub(t, state.Game, state.Game.Players[0])
	d.reset()

	mh.handleMessage(state, d, noopLogger{}, "u1", OpPlayCard, []byte(`{"card_index":0}`))

	played := d.byOp(OpCardPlayed)
	if len(played) != 1 {
		t.Fatalf("card played broadcasts = %d (sent %+v)", len(played), d.sent)
	}
	var payload app.CardPlayedPayload
	if err := json.Unmarshal(played[0].data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Card.Suit != domain.SuitClubs || payload.NextTurnUserID != "u2" {
		t.Fatalf("payload = %+v", payload)
	}
	if state.Game.CurrentSeat != 1 {
		t.Fatalf("seat = %d", state.Game.CurrentSeat)
	}
}

// giveClub swaps a club into p.Hand[0] so the opening play is legal.
func giveClub(t *testing.T, g *domain.Game, p *domain.Player) {
	t.Helper()
	for i, c := range p.Hand {
		if c.Suit == domain.SuitClubs {
			p.Hand[0], p.Hand[i] = p.Hand[i], p.Hand[0]
			return
		}
	}
	for i, c := range g.Deck {
		if c.Suit == domain.SuitClubs {
			p.Hand[0], g.Deck[i] = c, p.Hand[0]
			return
		}
	}
	for _, other := range g.Players {
		for i, c := range other.Hand {
			if c.Suit == domain.SuitClubs {
				p.Hand[0], other.Hand[i] = c, p.Hand[0]
				return
			}
		}
	}
	t.Fatalf("no club left to hand out")
}

func TestDecodePlayCard(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantIndex int
		wantSuit  domain.Suit
		wantErr   error
	}{
		{name: "index only", data: `{"card_index":2}`, wantIndex: 2},
		{name: "declared suit", data: `{"card_index":0,"declared_suit":"Spades"}`, wantSuit: domain.SuitSpades},
		{name: "missing index", data: `{}`, wantErr: app.ErrInvalidCardIndex},
		{name: "garbage", data: `nope`, wantErr: app.ErrInvalidCardIndex},
		{name: "bad suit", data: `{"card_index":1,"declared_suit":"stars"}`, wantErr: app.ErrInvalidSuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, suit, err := decodePlayCard([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (index != tt.wantIndex || suit != tt.wantSuit) {
				t.Fatalf("got (%d, %v), want (%d, %v)", index, suit, tt.wantIndex, tt.wantSuit)
			}
		})
	}
}

func TestLeaveMidRoundAbortsRound(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		join(t, mh, state, d, fmt.Sprintf("u%d", i+1), name)
	}
	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)
	d.reset()

	next := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{testPresence{userID: "u2"}})
	if next == nil {
		t.Fatalf("match should survive while humans remain")
	}
	if state.Game.Started() || len(state.Game.Players) != 2 {
		t.Fatalf("started=%v players=%d", state.Game.Started(), len(state.Game.Players))
	}
	if len(d.byOp(OpRoundAborted)) != 1 || len(d.byOp(OpRoomUpdate)) != 1 {
		t.Fatalf("sent = %+v", d.sent)
	}
	if len(d.byOp(OpGameState)) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(d.byOp(OpGameState)))
	}
}

func TestLastHumanLeavingTerminates(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	state.MatchID = "m1"
	if _, _, err := mh.registry.GetOrCreate(state.Code, func(string) (string, error) { return "m1", nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	join(t, mh, state, d, "u1", "Alice")

	next := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{testPresence{userID: "u1"}})
	if next != nil {
		t.Fatalf("match should terminate")
	}
	if mh.registry.Len() != 0 {
		t.Fatalf("room still registered")
	}
}

func TestIdleRoomCloses(t *testing.T) {
	cfg := testConfig()
	mh, state, d := newTestMatch(t, cfg)

	if mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 1, state, nil) == nil {
		t.Fatalf("closed too early")
	}
	last := int64(1 + idleSeconds*cfg.TickRate)
	if mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, last, state, nil) != nil {
		t.Fatalf("idle room should close")
	}
}

func TestProcessBots_FillsSoloLobbyAndPlays(t *testing.T) {
	cfg := testConfig()
	cfg.BotsEnabled = true
	mh, state, d := newTestMatch(t, cfg)
	join(t, mh, state, d, "u1", "Alice")

	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 1, state, nil)
	if len(state.Game.Players) != 1 {
		t.Fatalf("bots joined before the delay")
	}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 1+int64(cfg.TickRate), state, nil)
	if len(state.Game.Players) != cfg.MaxSeats || len(state.Bots) != cfg.MaxSeats-1 {
		t.Fatalf("players=%d bots=%d", len(state.Game.Players), len(state.Bots))
	}

	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)
	if !state.Game.Started() {
		t.Fatalf("game did not start")
	}
	state.Game.CurrentSeat = 1
	d.reset()

	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 100, state, nil)
	if len(d.byOp(OpCardPlayed))+len(d.byOp(OpCardDrawn)) != 1 {
		t.Fatalf("bot did not act, sent %+v", d.sent)
	}
	if len(d.byOp(OpGameState)) != 1 {
		t.Fatalf("human should get one snapshot, got %d", len(d.byOp(OpGameState)))
	}
}

func TestHumanReplacesBotInFullLobby(t *testing.T) {
	cfg := testConfig()
	cfg.BotsEnabled = true
	mh, state, d := newTestMatch(t, cfg)
	join(t, mh, state, d, "u1", "Alice")
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 1, state, nil)
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, 1+int64(cfg.TickRate), state, nil)

	bob := testPresence{userID: "u2"}
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, bob, map[string]string{"name": "Bob"}); !ok {
		t.Fatalf("attempt rejected: %s", reason)
	}
	if len(state.Bots) != cfg.MaxSeats-1 {
		t.Fatalf("bot evicted before the join completed")
	}
	d.reset()

	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{bob})
	if len(state.Game.Players) != cfg.MaxSeats || len(state.Bots) != cfg.MaxSeats-2 {
		t.Fatalf("players=%d bots=%d", len(state.Game.Players), len(state.Bots))
	}
	if p, ok := state.Game.PlayerByUserID("u2"); !ok || p.Name != "Bob" {
		t.Fatalf("human not seated: %+v", p)
	}
	if len(d.byOp(OpRoomUpdate)) != 1 {
		t.Fatalf("eviction sent no room update")
	}
}

func TestAttemptWithoutJoinHoldsNoSeat(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	join(t, mh, state, d, "u1", "Alice")
	join(t, mh, state, d, "u2", "Bob")

	ghost := testPresence{userID: "u3"}
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, ghost, map[string]string{"name": "Carol"}); !ok {
		t.Fatalf("attempt rejected: %s", reason)
	}
	if len(state.Game.Players) != 2 {
		t.Fatalf("attempt alone seated a player: %d seats", len(state.Game.Players))
	}

	d.reset()
	mh.handleMessage(state, d, noopLogger{}, "u1", OpStartGame, nil)
	if state.Game.Started() {
		t.Fatalf("round started with a client that never joined")
	}
	var payload ErrorMessage
	if errs := d.byOp(OpError); len(errs) != 1 || json.Unmarshal(errs[0].data, &payload) != nil || payload.Code != app.CodeNotEnoughPlayers {
		t.Fatalf("errors = %+v", d.sent)
	}
}

func TestJoinKicksWhenLastSeatWasTaken(t *testing.T) {
	mh, state, d := newTestMatch(t, testConfig())
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		join(t, mh, state, d, fmt.Sprintf("u%d", i+1), name)
	}

	dave := testPresence{userID: "u4"}
	erin := testPresence{userID: "u5"}
	for _, p := range []testPresence{dave, erin} {
		if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, p, map[string]string{"name": "Guest " + p.userID}); !ok {
			t.Fatalf("attempt %s rejected: %s", p.userID, reason)
		}
	}

	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{dave})
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{erin})

	if len(state.Game.Players) != 4 {
		t.Fatalf("players = %d", len(state.Game.Players))
	}
	if _, ok := state.Presences["u5"]; ok {
		t.Fatalf("unseated presence kept")
	}
	if len(d.kicked) != 1 || d.kicked[0] != "u5" {
		t.Fatalf("kicked = %v", d.kicked)
	}
}
