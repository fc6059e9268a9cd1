package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"mahjongg/internal/app"
	"mahjongg/internal/bot"
	"mahjongg/internal/config"
	"mahjongg/internal/domain"
	"mahjongg/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match
// handler. Game snapshots are replaced wholesale on every transition, so a
// reader of state.Game never sees a half-applied round.
type MatchState struct {
	Seats      [domain.NumSeats]string     `json:"seats"`       // user IDs, "" means empty
	OwnerSeat  int                         `json:"owner_seat"`  // seat index of the table owner
	Tick       int64                       `json:"tick"`        // current match tick
	InviteCode string                      `json:"invite_code"` // code players join the table by
	Presences  map[string]runtime.Presence `json:"-"`
	App        *app.Service                `json:"-"`
	Invites    *app.InviteService          `json:"-"`
	Game       *domain.Game                `json:"-"`
	Audit      ports.AuditPort             `json:"-"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`
}

// GetOpenSeatsCount returns how many seats are unoccupied.
func (ms *MatchState) GetOpenSeatsCount() int {
	return domain.NumSeats - domain.OccupiedSeats(&ms.Seats)
}

// GetHumanPlayerCount returns how many seats hold connected humans.
func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !bot.IsBot(seat) {
			count++
		}
	}
	return count
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !bot.IsBot(userID)
}

// findFirstHumanSeat returns the first seat index with a human occupant or
// -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !bot.IsBot(userID) {
			return i
		}
	}
	return -1
}

const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomInviteCode(rng *rand.Rand, length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = inviteCodeAlphabet[rng.Intn(len(inviteCodeAlphabet))]
	}
	return string(code)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	cfg := config.GetGameConfig()
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg.ApplyEnv(env)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := &MatchState{
		Tick:       time.Now().Unix(),
		OwnerSeat:  -1,
		InviteCode: randomInviteCode(rng, 5),
		Presences:  make(map[string]runtime.Presence),
		App: app.NewService(rng, app.Options{
			Rules:          cfg.Rules(),
			SkipCharleston: cfg.SkipCharleston,
		}),
		Invites:          app.NewInviteService(env["mahjongg_invite_secret"], env["mahjongg_invite_issuer"], 0),
		Audit:            NewNakamaAuditAdapter(nk),
		Bots:             make(map[string]*bot.Agent),
		BotMinDelay:      cfg.BotMinDelaySeconds,
		BotMaxDelay:      cfg.BotMaxDelaySeconds,
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
	}

	if val, ok := env["mahjongg_bots_enabled"]; ok {
		state.BotsEnabled = val == "true" || val == "1"
	}
	if val, ok := env["mahjongg_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["mahjongg_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["mahjongg_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}

	// Defaults if not set
	if state.BotMinDelay == 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay == 0 {
		state.BotMaxDelay = 3
	}
	if state.BotAutoFillDelay == 0 {
		state.BotAutoFillDelay = 5
	}

	labelBytes, err := json.Marshal(Label{
		Open:  state.GetOpenSeatsCount(),
		Game:  "mahjongg",
		Phase: string(domain.PhaseLobby),
		Code:  state.InviteCode,
	})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// An invite token, when supplied, must have been issued for this table.
	if token := metadata["invite_token"]; token != "" {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		tokenMatch, code, err := matchState.Invites.VerifyToken(token)
		if err != nil {
			logger.Warn("MatchJoinAttempt: Invalid invite token from %s: %v", presence.GetUserId(), err)
			return state, false, "invalid invite token"
		}
		if code != matchState.InviteCode || (matchID != "" && tokenMatch != matchID) {
			return state, false, "invite token is for a different table"
		}
	}

	// Allow join if there is an empty seat, or a bot to replace before the
	// game starts.
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Game == nil {
			for _, seat := range matchState.Seats {
				if bot.IsBot(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Table full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		assigned := domain.SeatOf(&matchState.Seats, p.GetUserId()).Valid() // rejoin keeps the seat
		if !assigned {
			if seat := domain.LowestAvailableSeat(&matchState.Seats); seat.Valid() {
				matchState.Seats[seat] = p.GetUserId()
				assigned = true
			}
		}

		if !assigned && matchState.Game == nil {
			for i, seatUserID := range matchState.Seats {
				if bot.IsBot(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, p.GetUserId(), i)
					delete(matchState.Bots, seatUserID)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", p.GetUserId())
		}
	}

	// The owner seat always belongs to a human.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	for _, p := range presences {
		seat := domain.SeatOf(&matchState.Seats, p.GetUserId())
		if !seat.Valid() {
			continue
		}
		mh.broadcastEvent(ctx, matchState, dispatcher, logger, app.Event{
			Kind: app.EventPlayerJoined,
			Payload: app.PlayerJoinedPayload{
				UserID: p.GetUserId(),
				Seat:   seat,
				Owner:  int(seat) == matchState.OwnerSeat,
			},
		})
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastTableState(matchState, dispatcher, logger)

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
		delete(matchState.Presences, p.GetUserId())
		mh.broadcastEvent(ctx, matchState, dispatcher, logger, app.Event{
			Kind:    app.EventPlayerLeft,
			Payload: app.PlayerLeftPayload{UserID: p.GetUserId()},
		})

		for i, seatUserID := range matchState.Seats {
			if seatUserID != p.GetUserId() {
				continue
			}
			if matchState.Game != nil && matchState.BotsEnabled {
				// Hand the seat to a bot so the Charleston can finish;
				// every remaining seat still has to act for the round to
				// resolve.
				mh.seatBot(ctx, matchState, i, logger)
				logger.Info("MatchLeave: User %s left mid-game, seat %d handed to bot.", p.GetUserId(), i)
			} else {
				matchState.Seats[i] = ""
				logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), i)
			}
			break
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
	}

	if findFirstHumanSeat(matchState.Seats[:]) == -1 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

// seatBot installs a bot agent in the given seat, carrying over any in-game
// player identity so hands stay attached to the seat.
func (mh *matchHandler) seatBot(ctx context.Context, state *MatchState, seatIndex int, logger runtime.Logger) {
	identity := bot.GetBotIdentity(seatIndex)
	botID := identity.UserID

	if state.Game != nil {
		if p := state.Game.PlayerAtSeat(domain.Seat(seatIndex)); p != nil {
			// Transfer hand ownership to the bot identity.
			next := state.Game.Clone()
			player := next.Players[p.UserID]
			delete(next.Players, p.UserID)
			player.UserID = botID
			next.Players[botID] = player
			next.Seats[seatIndex] = botID
			state.Game = next
		}
	}
	state.Seats[seatIndex] = botID

	agent, err := bot.NewAgent(botID)
	if err != nil {
		logger.Error("seatBot: Failed to create bot agent for %s: %v", botID, err)
		return
	}
	state.Bots[botID] = agent
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpCharlestonSelect:
			mh.handleSelect(ctx, matchState, dispatcher, logger, msg)
		case OpCharlestonReady:
			mh.handleReady(ctx, matchState, dispatcher, logger, msg)
		case OpCharlestonVote:
			mh.handleVote(ctx, matchState, dispatcher, logger, msg)
		case OpCourtesyOffer:
			mh.handleCourtesy(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// senderSeat resolves the seat index a message sender occupies, or -1.
func senderSeat(state *MatchState, userID string) int {
	return int(domain.SeatOf(&state.Seats, userID))
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := senderSeat(state, senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d)", senderID, seat, state.OwnerSeat)

	if seat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}
	if state.Game != nil {
		logger.Warn("StartGame: Game already in progress.")
		return
	}

	// Fill any empty seats with bots; the Charleston needs a full table.
	if state.BotsEnabled {
		for i, seatUserID := range state.Seats {
			if seatUserID == "" {
				mh.seatBot(ctx, state, i, logger)
			}
		}
	}

	game, events, err := state.App.StartGame(state.Seats)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}

	logger.Info("StartGame: Game started, phase=%s.", game.Phase)
}

func (mh *matchHandler) handleSelect(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := senderSeat(state, senderID)

	var req SelectRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSelect: Invalid payload from %s: %v", senderID, err)
		return
	}

	var blind *domain.BlindPass
	if req.BlindCount != nil {
		blind = &domain.BlindPass{Count: *req.BlindCount}
	}

	game, events, err := state.App.Select(state.Game, domain.Seat(seat), req.Tiles, blind)
	if err != nil {
		logger.Warn("handleSelect: User %s (seat %d) rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleReady(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := senderSeat(state, senderID)

	game, events, err := state.App.MarkReady(state.Game, domain.Seat(seat))
	if err != nil {
		logger.Warn("handleReady: User %s (seat %d) rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	mh.advanceCharleston(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleVote(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := senderSeat(state, senderID)

	var req VoteRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleVote: Invalid payload from %s: %v", senderID, err)
		return
	}

	game, events, err := state.App.CastVote(state.Game, domain.Seat(seat), domain.VoteChoice(req.Choice))
	if err != nil {
		logger.Warn("handleVote: User %s (seat %d) rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleCourtesy(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := senderSeat(state, senderID)

	var req CourtesyRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleCourtesy: Invalid payload from %s: %v", senderID, err)
		return
	}

	game, events, err := state.App.ProposeCourtesy(state.Game, domain.Seat(seat), req.Tiles, domain.Seat(req.Target))
	if err != nil {
		logger.Warn("handleCourtesy: User %s (seat %d) rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// advanceCharleston resolves rounds while every seat is ready, publishing
// each new snapshot and auditing the transition.
func (mh *matchHandler) advanceCharleston(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for {
		game, events, resolved, err := state.App.Advance(state.Game)
		if err != nil {
			logger.Error("advanceCharleston: Round refused: %v", err)
			return
		}
		if !resolved {
			return
		}

		state.Game = game
		for _, ev := range events {
			mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
			mh.auditEvent(ctx, state, logger, ev)
		}
		if game.Phase != domain.PhaseCharleston {
			mh.updateLabel(state, dispatcher, logger)
			return
		}
	}
}

// auditEvent appends transition records for resolution events.
func (mh *matchHandler) auditEvent(ctx context.Context, state *MatchState, logger runtime.Logger, ev app.Event) {
	if state.Audit == nil {
		return
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	var record *ports.TransitionRecord
	switch p := ev.Payload.(type) {
	case app.PassResolvedPayload:
		record = &ports.TransitionRecord{
			Kind:       "pass",
			Phase:      string(p.Phase),
			PassNumber: p.PassNumber,
			Converged:  p.Converged,
		}
	case app.VoteResolvedPayload:
		record = &ports.TransitionRecord{
			Kind:  "vote",
			Phase: string(p.Phase),
			Detail: map[string]interface{}{
				"yes":       p.Tally.Yes,
				"no":        p.Tally.No,
				"continued": p.Continued,
			},
		}
	case app.CourtesyResolvedPayload:
		record = &ports.TransitionRecord{
			Kind:   "courtesy",
			Phase:  string(p.Phase),
			Detail: map[string]interface{}{"trades": p.Trades},
		}
	default:
		return
	}

	record.MatchID = matchID
	if err := state.Audit.RecordTransition(ctx, *record); err != nil {
		logger.Warn("auditEvent: Failed to record transition: %v", err)
	}
}

// processBots fills lonely lobbies and plays the Charleston for bot seats.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Auto-fill the lobby when a single human has been waiting.
	if state.Game == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat == "" {
						mh.seatBot(ctx, state, i, logger)
						logger.Info("processBots: Added bot %s to seat %d", state.Seats[i], i)
						added = true
					}
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastTableState(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	if state.Game.Phase != domain.PhaseCharleston || state.Game.Charleston == nil {
		state.BotWaitUntil = 0
		return
	}

	seat := mh.nextBotActionSeat(state)
	if seat < 0 {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	mh.runBotAction(ctx, state, dispatcher, logger, seat)
	mh.advanceCharleston(ctx, state, dispatcher, logger)
}

// nextBotActionSeat returns the first bot seat that still owes an action in
// the current round, or -1.
func (mh *matchHandler) nextBotActionSeat(state *MatchState) int {
	session := state.Game.Charleston
	for i, userID := range state.Seats {
		if !bot.IsBot(userID) {
			continue
		}
		if !session.Seats[i].Ready {
			return i
		}
	}
	return -1
}

// runBotAction performs one bot seat's pending Charleston action.
func (mh *matchHandler) runBotAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seatIndex int) {
	botID := state.Seats[seatIndex]
	agent, exists := state.Bots[botID]
	if !exists {
		var err error
		agent, err = bot.NewAgent(botID)
		if err != nil {
			logger.Error("runBotAction: Failed to create fallback agent: %v", err)
			return
		}
		state.Bots[botID] = agent
	}

	seat := domain.Seat(seatIndex)
	session := state.Game.Charleston

	apply := func(game *domain.Game, events []app.Event, err error) bool {
		if err != nil {
			logger.Error("runBotAction: Bot %s (seat %d) action rejected: %v", botID, seatIndex, err)
			return false
		}
		state.Game = game
		for _, ev := range events {
			mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
		}
		return true
	}

	switch {
	case session.Phase.IsPassPhase():
		if len(session.Seats[seat].Selected) == 0 && session.Seats[seat].Blind == nil {
			tiles, blind, ok := agent.SelectPass(state.Game, seat, state.App.Rules())
			if !ok || !apply(state.App.Select(state.Game, seat, tiles, blind)) {
				return
			}
		}
		apply(state.App.MarkReady(state.Game, seat))

	case session.Phase == domain.PhaseVote:
		if session.Seats[seat].Vote == "" {
			choice, ok := agent.Vote(state.Game, seat)
			if !ok || !apply(state.App.CastVote(state.Game, seat, choice)) {
				return
			}
		}
		apply(state.App.MarkReady(state.Game, seat))

	case session.Phase == domain.PhaseCourtesy:
		if offer, ok := agent.Courtesy(state.Game, seat); ok && offer != nil && session.Seats[seat].Courtesy == nil {
			if !apply(state.App.ProposeCourtesy(state.Game, seat, offer.Tiles, offer.Target)) {
				return
			}
		}
		apply(state.App.MarkReady(state.Game, seat))
	}
}

// TableStatePayload is the lobby/table snapshot broadcast after joins.
type TableStatePayload struct {
	Seats      []string           `json:"seats"`
	OwnerSeat  int                `json:"owner_seat"`
	InviteCode string             `json:"invite_code"`
	Phase      string             `json:"phase"`
	Players    []TablePlayerState `json:"players"`
}

// TablePlayerState is one seat's public view in the table snapshot.
type TablePlayerState struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	IsOwner     bool   `json:"is_owner"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	TileCount   int    `json:"tile_count"`
}

func (mh *matchHandler) broadcastTableState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := domain.PhaseLobby
	if state.Game != nil {
		phase = state.Game.Phase
	}

	var players []TablePlayerState
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}

		username := bot.GetBotUsername(userID)
		displayName := bot.GetBotDisplayName(userID)
		if p, exists := state.Presences[userID]; exists {
			username = p.GetUsername()
			displayName = p.GetUsername()
		}
		if displayName == "" {
			displayName = userID
		}

		tileCount := 0
		if state.Game != nil {
			if p := state.Game.PlayerAtSeat(domain.Seat(i)); p != nil {
				tileCount = len(p.Hand)
			}
		}

		players = append(players, TablePlayerState{
			UserID:      userID,
			Seat:        i,
			IsOwner:     i == state.OwnerSeat,
			Username:    username,
			DisplayName: displayName,
			TileCount:   tileCount,
		})
	}

	payload := TableStatePayload{
		Seats:      state.Seats[:],
		OwnerSeat:  state.OwnerSeat,
		InviteCode: state.InviteCode,
		Phase:      string(phase),
		Players:    players,
	}
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("broadcastTableState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpTableState, bytes, nil, nil, true)
}

// broadcastEvent converts and dispatches an app event to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCode(ev.Kind)
	if !ok {
		logger.Warn("broadcastEvent: Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := marshalEvent(ev)
	if err != nil {
		logger.Error("broadcastEvent: Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Targeted events whose recipients are all disconnected (bots)
		// must not fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendError sends a rule-error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, err error) {
	payload := app.RuleErrorPayload{Code: "invalid_request", Message: err.Error()}
	if ruleErr, ok := err.(*domain.RuleError); ok {
		payload.Code = ruleErr.Code
		payload.Message = ruleErr.Message
	}

	bytes, merr := json.Marshal(payload)
	if merr != nil {
		logger.Error("sendError: Failed to marshal: %v", merr)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send error to %s: presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := domain.PhaseLobby
	if state.Game != nil {
		phase = state.Game.Phase
	}

	labelBytes, err := json.Marshal(Label{
		Open:  state.GetOpenSeatsCount(),
		Game:  "mahjongg",
		Phase: string(phase),
		Code:  state.InviteCode,
	})
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
