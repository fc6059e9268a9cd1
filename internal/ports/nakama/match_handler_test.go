package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"mahjongg/internal/app"
	"mahjongg/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy
// the interface.
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

// broadcast records one dispatched message.
type broadcast struct {
	opCode     int64
	data       []byte
	recipients []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcasts   []broadcast
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcasts = append(md.broadcasts, broadcast{
		opCode:     opCode,
		data:       append([]byte(nil), data...),
		recipients: presences,
	})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) countOp(opCode int64) int {
	n := 0
	for _, b := range md.broadcasts {
		if b.opCode == opCode {
			n++
		}
	}
	return n
}

func (md *mockDispatcher) lastOp(opCode int64) *broadcast {
	for i := len(md.broadcasts) - 1; i >= 0; i-- {
		if md.broadcasts[i].opCode == opCode {
			return &md.broadcasts[i]
		}
	}
	return nil
}

// testPresence implements runtime.Presence.
type testPresence struct {
	userID string
}

func (p *testPresence) GetUserId() string { return p.userID }
func (p *testPresence) GetSessionId() string { return "session-" + p.userID }
func (p *testPresence) GetNodeId() string { return "node" }
func (p *testPresence) GetHidden() bool { return false }
func (p *testPresence) GetPersistence() bool { return true }
func (p *testPresence) GetUsername() string { return p.userID }
func (p *testPresence) GetStatus() string { return "" }
func (p *testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

// testMessage implements runtime.MatchData.
type testMessage struct {
	testPresence
	opCode int64
	data   []byte
}

func (m *testMessage) GetOpCode() int64 { return m.opCode }
func (m *testMessage) GetData() []byte { return m.data }
func (m *testMessage) GetReliable() bool { return true }
func (m *testMessage) GetReceiveTime() int64 { return 0 }

func message(userID string, opCode int64, payload interface{}) *testMessage {
	var data []byte
	if payload != nil {
		data, _ = json.Marshal(payload)
	}
	return &testMessage{testPresence: testPresence{userID: userID}, opCode: opCode, data: data}
}

func TestFindFirstHumanSeat(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{name: "first human after bot", seats: []string{"bot-0", "user-1", "", ""}, want: 1},
		{name: "all bots", seats: []string{"bot-0", "bot-1", "", ""}, want: -1},
		{name: "all empty", seats: []string{"", "", "", ""}, want: -1},
		{name: "human in seat zero", seats: []string{"user-1", "bot-0", "user-2", ""}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findFirstHumanSeat(tt.seats); got != tt.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMatchStateCounts(t *testing.T) {
	state := &MatchState{Seats: [domain.NumSeats]string{"user-1", "bot-0", "", ""}}
	if got := state.GetOpenSeatsCount(); got != 2 {
		t.Fatalf("GetOpenSeatsCount() = %d, want 2", got)
	}
	if got := state.GetHumanPlayerCount(); got != 1 {
		t.Fatalf("GetHumanPlayerCount() = %d, want 1", got)
	}
}

func TestRandomInviteCode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	code := randomInviteCode(rng, 5)
	if len(code) != 5 {
		t.Fatalf("code length = %d, want 5", len(code))
	}
	for _, c := range code {
		if !strings.ContainsRune(inviteCodeAlphabet, c) {
			t.Fatalf("code %q contains %q outside the alphabet", code, c)
		}
	}
}

func TestEventOpCodeCoversAllKinds(t *testing.T) {
	kinds := []app.EventKind{
		app.EventPlayerJoined, app.EventPlayerLeft, app.EventGameStarted,
		app.EventHandDealt, app.EventCharlestonStarted, app.EventCharlestonUpdated,
		app.EventPassResolved, app.EventTilesReceived, app.EventVoteUpdated,
		app.EventVoteResolved, app.EventCourtesyResolved, app.EventCharlestonComplete,
	}
	seen := make(map[int64]bool)
	for _, kind := range kinds {
		op, ok := eventOpCode(kind)
		if !ok {
			t.Fatalf("no opcode for event kind %s", kind)
		}
		if seen[op] {
			t.Fatalf("opcode %d used twice", op)
		}
		seen[op] = true
	}
}

func newHumanTable() *MatchState {
	state := &MatchState{
		Seats:      [domain.NumSeats]string{"user-0", "user-1", "user-2", "user-3"},
		OwnerSeat:  0,
		InviteCode: "ABCDE",
		Presences:  make(map[string]runtime.Presence),
		App:        app.NewService(rand.New(rand.NewSource(7)), app.Options{Rules: domain.DefaultRules()}),
		Bots:       nil,
	}
	for _, userID := range state.Seats {
		state.Presences[userID] = &testPresence{userID: userID}
	}
	return state
}

func TestMatchJoinSeatsAndOwner(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := &MatchState{
		OwnerSeat:  -1,
		InviteCode: "ABCDE",
		Presences:  make(map[string]runtime.Presence),
		App:        app.NewService(rand.New(rand.NewSource(7)), app.Options{Rules: domain.DefaultRules()}),
	}

	out := mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.Presence{&testPresence{userID: "user-0"}, &testPresence{userID: "user-1"}})
	state = out.(*MatchState)

	if state.Seats[0] != "user-0" || state.Seats[1] != "user-1" {
		t.Fatalf("seats = %v", state.Seats)
	}
	if state.OwnerSeat != 0 {
		t.Fatalf("owner seat = %d, want 0", state.OwnerSeat)
	}
	if dispatcher.labelUpdates == 0 {
		t.Fatal("label not updated after join")
	}
	if got := dispatcher.countOp(OpPlayerJoined); got != 2 {
		t.Fatalf("player_joined broadcasts = %d, want 2", got)
	}
	if dispatcher.countOp(OpTableState) == 0 {
		t.Fatal("table state not broadcast after join")
	}

	var label Label
	if err := json.Unmarshal([]byte(dispatcher.lastLabel), &label); err != nil {
		t.Fatalf("label unmarshal failed: %v", err)
	}
	if label.Open != 2 || label.Game != "mahjongg" || label.Code != "ABCDE" {
		t.Fatalf("label = %+v", label)
	}
}

func TestMatchLeaveTerminatesWithNoHumans(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newHumanTable()
	state.Seats = [domain.NumSeats]string{"user-0", "", "", ""}

	out := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.Presence{&testPresence{userID: "user-0"}})
	if out != nil {
		t.Fatal("match not terminated after the last human left")
	}
}

func TestMatchLeaveReassignsOwner(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newHumanTable()

	out := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.Presence{&testPresence{userID: "user-0"}})
	state = out.(*MatchState)

	if state.Seats[0] != "" {
		t.Fatalf("seat 0 = %q, want freed", state.Seats[0])
	}
	if state.OwnerSeat != 1 {
		t.Fatalf("owner seat = %d, want 1", state.OwnerSeat)
	}
}

func TestStartGameOwnerOnly(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newHumanTable()

	out := mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.MatchData{message("user-2", OpStartGame, nil)})
	state = out.(*MatchState)

	if state.Game != nil {
		t.Fatal("non-owner started the game")
	}

	out = mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state,
		[]runtime.MatchData{message("user-0", OpStartGame, nil)})
	state = out.(*MatchState)

	if state.Game == nil || state.Game.Phase != domain.PhaseCharleston {
		t.Fatalf("game = %+v, want charleston in progress", state.Game)
	}
	if dispatcher.countOp(OpHandDealt) != domain.NumSeats {
		t.Fatalf("hand_dealt broadcasts = %d, want %d", dispatcher.countOp(OpHandDealt), domain.NumSeats)
	}
	if dispatcher.countOp(OpCharlestonStarted) != 1 {
		t.Fatal("charleston_started not broadcast")
	}

	// Private deals go to exactly one presence each.
	deal := dispatcher.lastOp(OpHandDealt)
	if len(deal.recipients) != 1 {
		t.Fatalf("hand_dealt recipients = %d, want 1", len(deal.recipients))
	}
}

// selection returns a legal pass selection for the seat from live game state.
func selection(state *MatchState, seat domain.Seat) []domain.Tile {
	hand := state.Game.PlayerAtSeat(seat).Hand
	tiles := make([]domain.Tile, 0, domain.PassSelectionSize)
	for _, tile := range hand {
		if tile.IsJoker() {
			continue
		}
		tiles = append(tiles, tile)
		if len(tiles) == domain.PassSelectionSize {
			break
		}
	}
	return tiles
}

func TestCharlestonRoundOverWire(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newHumanTable()

	out := mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.MatchData{message("user-0", OpStartGame, nil)})
	state = out.(*MatchState)

	// All four seats select and ready over the wire.
	for seat := domain.Seat(0); seat < domain.NumSeats; seat++ {
		userID := state.Seats[seat]
		out = mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2,
			state, []runtime.MatchData{
				message(userID, OpCharlestonSelect, SelectRequest{Tiles: selection(state, seat)}),
				message(userID, OpCharlestonReady, nil),
			})
		state = out.(*MatchState)
	}

	if state.Game.Charleston.Phase != domain.PhasePassAcross {
		t.Fatalf("phase = %s, want %s", state.Game.Charleston.Phase, domain.PhasePassAcross)
	}
	if dispatcher.countOp(OpPassResolved) != 1 {
		t.Fatalf("pass_resolved broadcasts = %d, want 1", dispatcher.countOp(OpPassResolved))
	}
	if dispatcher.countOp(OpTilesReceived) != domain.NumSeats {
		t.Fatalf("tiles_received broadcasts = %d, want %d", dispatcher.countOp(OpTilesReceived), domain.NumSeats)
	}

	var resolved app.PassResolvedPayload
	if err := json.Unmarshal(dispatcher.lastOp(OpPassResolved).data, &resolved); err != nil {
		t.Fatalf("pass_resolved unmarshal failed: %v", err)
	}
	if !resolved.Converged || resolved.Phase != domain.PhasePassAcross {
		t.Fatalf("pass_resolved payload = %+v", resolved)
	}
}

func TestRuleErrorSentToSenderOnly(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newHumanTable()

	out := mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.MatchData{message("user-0", OpStartGame, nil)})
	state = out.(*MatchState)

	// Two tiles where three are required.
	bad := selection(state, 0)[:2]
	out = mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state,
		[]runtime.MatchData{message("user-0", OpCharlestonSelect, SelectRequest{Tiles: bad})})
	state = out.(*MatchState)

	errMsg := dispatcher.lastOp(OpGameError)
	if errMsg == nil {
		t.Fatal("no error broadcast for an invalid selection")
	}
	if len(errMsg.recipients) != 1 || errMsg.recipients[0].GetUserId() != "user-0" {
		t.Fatalf("error recipients = %+v, want only the sender", errMsg.recipients)
	}

	var payload app.RuleErrorPayload
	if err := json.Unmarshal(errMsg.data, &payload); err != nil {
		t.Fatalf("error payload unmarshal failed: %v", err)
	}
	if payload.Code != domain.CodeWrongSelectionCount {
		t.Fatalf("error code = %s, want %s", payload.Code, domain.CodeWrongSelectionCount)
	}
	if len(state.Game.Charleston.Seats[0].Selected) != 0 {
		t.Fatal("rejected selection was stored")
	}
}

func TestJoinAttemptRejectsMismatchedInviteToken(t *testing.T) {
	mh := &matchHandler{}
	state := newHumanTable()
	state.Invites = app.NewInviteService("secret", "mahjongg", 0)
	state.Seats = [domain.NumSeats]string{"user-0", "", "", ""}

	token, err := state.Invites.GenerateToken("some-match", "WRONG", "user-9")
	if err != nil {
		t.Fatalf("GenerateToken() = %v", err)
	}

	_, allowed, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 1,
		state, &testPresence{userID: "user-9"}, map[string]string{"invite_token": token})
	if allowed {
		t.Fatalf("join allowed with a token for another table (reason %q)", reason)
	}

	token, err = state.Invites.GenerateToken("some-match", state.InviteCode, "user-9")
	if err != nil {
		t.Fatalf("GenerateToken() = %v", err)
	}
	_, allowed, _ = mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 1,
		state, &testPresence{userID: "user-9"}, map[string]string{"invite_token": token})
	if !allowed {
		t.Fatal("join refused with a valid invite token")
	}
}

func TestJoinAttemptRejectsFullTable(t *testing.T) {
	mh := &matchHandler{}
	state := newHumanTable()
	state.Game, _, _ = state.App.StartGame(state.Seats)

	_, allowed, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 1,
		state, &testPresence{userID: "user-9"}, nil)
	if allowed {
		t.Fatal("join allowed into a full in-game table")
	}
}
