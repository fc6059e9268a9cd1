package app

import (
	"errors"
	"math/rand"
	"time"

	"mahjongg/internal/domain"
)

var (
	ErrTableNotFull  = errors.New("all four seats must be occupied to start")
	ErrNoGame        = errors.New("no game in progress")
	ErrNotCharleston = errors.New("game is not in the charleston phase")
	ErrUnknownPlayer = errors.New("player not found")
)

// Options configures a Service for one table.
type Options struct {
	Rules domain.Rules
	// SkipCharleston deals hands and drops straight into the play phase.
	SkipCharleston bool
}

// Service contains the Charleston use-cases operating on domain state. Every
// entry point computes the entire next game snapshot on a clone and returns
// it; the caller publishes the snapshot with a single swap, so a concurrent
// reader never observes a half-applied round.
type Service struct {
	rng  *rand.Rand
	opts Options
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand, opts Options) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, opts: opts}
}

// Rules exposes the table rule set in force.
func (s *Service) Rules() domain.Rules { return s.opts.Rules }

// StartGame builds the wall, deals every seat its starting hand and opens
// the Charleston (or jumps straight to play when configured to skip it).
// seats lists userIDs in seat order; every seat must be occupied.
func (s *Service) StartGame(seats [domain.NumSeats]string) (*domain.Game, []Event, error) {
	if domain.OccupiedSeats(&seats) < RequiredPlayers {
		return nil, nil, ErrTableNotFull
	}

	wall := domain.NewWall()
	s.rng.Shuffle(len(wall), func(i, j int) { wall[i], wall[j] = wall[j], wall[i] })

	game := &domain.Game{
		Phase:   domain.PhaseCharleston,
		Players: make(map[string]*domain.Player, domain.NumSeats),
		Seats:   seats,
	}

	events := make([]Event, 0, domain.NumSeats+1)
	for seat := domain.Seat(0); seat < domain.NumSeats; seat++ {
		hand := append([]domain.Tile(nil), wall[:domain.HandSize]...)
		wall = wall[domain.HandSize:]
		userID := seats[seat]
		game.Players[userID] = &domain.Player{UserID: userID, Seat: seat, Hand: hand}
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: seat, Hand: hand},
			Recipients: []string{userID},
		})
	}
	game.Wall = wall

	if s.opts.SkipCharleston {
		game.Phase = domain.PhasePlaying
		events = append(events, Event{
			Kind:    EventGameStarted,
			Payload: GameStartedPayload{Phase: game.Phase},
		})
		return game, events, nil
	}

	game.Charleston = domain.NewSession()
	events = append(events, Event{
		Kind: EventCharlestonStarted,
		Payload: CharlestonStartedPayload{
			Phase:        game.Charleston.Phase,
			PassNumber:   game.Charleston.PassNumber,
			Instructions: domain.PhaseInstructions(game.Charleston.Phase),
		},
	})
	return game, events, nil
}

// charlestonGame validates that a charleston entry point can run and returns
// the acting player looked up on the clone.
func charlestonGame(game *domain.Game, seat domain.Seat) (*domain.Player, error) {
	if game == nil {
		return nil, ErrNoGame
	}
	if game.Phase != domain.PhaseCharleston || game.Charleston == nil {
		return nil, ErrNotCharleston
	}
	p := game.PlayerAtSeat(seat)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

// Select records a seat's proposed selection for the current pass round.
func (s *Service) Select(game *domain.Game, seat domain.Seat, tiles []domain.Tile, blind *domain.BlindPass) (*domain.Game, []Event, error) {
	next := game.Clone()
	p, err := charlestonGame(next, seat)
	if err != nil {
		return game, nil, err
	}
	if err := next.Charleston.Select(seat, tiles, blind, p.Hand, s.opts.Rules); err != nil {
		return game, nil, err
	}
	return next, []Event{progressEvent(next.Charleston)}, nil
}

// MarkReady locks a seat in for the current round.
func (s *Service) MarkReady(game *domain.Game, seat domain.Seat) (*domain.Game, []Event, error) {
	next := game.Clone()
	if _, err := charlestonGame(next, seat); err != nil {
		return game, nil, err
	}
	if err := next.Charleston.MarkReady(seat); err != nil {
		return game, nil, err
	}
	return next, []Event{progressEvent(next.Charleston)}, nil
}

// CastVote records a seat's vote on playing a second Charleston.
func (s *Service) CastVote(game *domain.Game, seat domain.Seat, choice domain.VoteChoice) (*domain.Game, []Event, error) {
	next := game.Clone()
	if _, err := charlestonGame(next, seat); err != nil {
		return game, nil, err
	}
	if err := next.Charleston.CastVote(seat, choice); err != nil {
		return game, nil, err
	}

	payload := VoteUpdatedPayload{}
	for i := range next.Charleston.Seats {
		st := &next.Charleston.Seats[i]
		if st.Vote != "" {
			payload.Cast++
		}
		payload.Locked[i] = st.VoteLocked
	}
	return next, []Event{{Kind: EventVoteUpdated, Payload: payload}}, nil
}

// ProposeCourtesy stores a seat's courtesy trade offer.
func (s *Service) ProposeCourtesy(game *domain.Game, seat domain.Seat, tiles []domain.Tile, target domain.Seat) (*domain.Game, []Event, error) {
	next := game.Clone()
	p, err := charlestonGame(next, seat)
	if err != nil {
		return game, nil, err
	}
	if err := next.Charleston.ProposeCourtesy(seat, tiles, target, p.Hand); err != nil {
		return game, nil, err
	}
	return next, []Event{progressEvent(next.Charleston)}, nil
}

// Advance resolves the current round when every seat is ready: pass rounds
// through the resolver, the vote through its branch, the courtesy phase
// through the trade matcher. It reports resolved=false when there is nothing
// to do. Callers invoke it after every successful mutation; the session
// itself never polls.
func (s *Service) Advance(game *domain.Game) (*domain.Game, []Event, bool, error) {
	if game == nil || game.Phase != domain.PhaseCharleston || game.Charleston == nil {
		return game, nil, false, nil
	}
	if !game.Charleston.AllReady() {
		return game, nil, false, nil
	}

	next := game.Clone()
	session := next.Charleston
	var events []Event

	switch {
	case session.Phase.IsPassPhase():
		hands := next.Hands()
		result, err := domain.ResolvePass(session, &hands, s.opts.Rules)
		if err != nil {
			return game, nil, false, err
		}
		if result == nil {
			return game, nil, false, nil
		}
		next.SetHands(hands)
		events = append(events, Event{
			Kind: EventPassResolved,
			Payload: PassResolvedPayload{
				Phase:        result.Phase,
				PassNumber:   session.PassNumber,
				Converged:    result.Converged,
				Instructions: domain.PhaseInstructions(result.Phase),
			},
		})
		for seat := domain.Seat(0); seat < domain.NumSeats; seat++ {
			p := next.PlayerAtSeat(seat)
			events = append(events, Event{
				Kind: EventTilesReceived,
				Payload: TilesReceivedPayload{
					Seat:  seat,
					Tiles: result.Received[seat],
					Hand:  p.Hand,
				},
				Recipients: []string{p.UserID},
			})
		}

	case session.Phase == domain.PhaseVote:
		result := domain.ResolveVote(session, s.opts.Rules)
		if result == nil {
			return game, nil, false, nil
		}
		events = append(events, Event{
			Kind: EventVoteResolved,
			Payload: VoteResolvedPayload{
				Tally:        result.Tally,
				Continued:    result.Continued,
				Phase:        result.Phase,
				Instructions: domain.PhaseInstructions(result.Phase),
			},
		})

	case session.Phase == domain.PhaseCourtesy:
		hands := next.Hands()
		trades, err := domain.ExecuteCourtesy(session, &hands)
		if err != nil {
			return game, nil, false, err
		}
		next.SetHands(hands)
		events = append(events, Event{
			Kind:    EventCourtesyResolved,
			Payload: CourtesyResolvedPayload{Trades: len(trades), Phase: session.Phase},
		})
		for _, trade := range trades {
			for i, seat := range trade.Seats {
				p := next.PlayerAtSeat(seat)
				events = append(events, Event{
					Kind: EventTilesReceived,
					Payload: TilesReceivedPayload{
						Seat:  seat,
						Tiles: trade.Tiles[1-i], // what the seat gained
						Hand:  p.Hand,
					},
					Recipients: []string{p.UserID},
				})
			}
		}

	default:
		return game, nil, false, nil
	}

	if session.Completed {
		next.Phase = domain.PhasePlaying
		events = append(events, Event{
			Kind:    EventCharlestonComplete,
			Payload: CharlestonCompletePayload{Phase: next.Phase},
		})
	}

	return next, events, true, nil
}

// progressEvent builds the broadcast that keeps all seats in sync on round
// progress without leaking anyone's selection.
func progressEvent(session *domain.Session) Event {
	payload := CharlestonUpdatedPayload{
		Phase:      session.Phase,
		PassNumber: session.PassNumber,
	}
	for i := range session.Seats {
		payload.Ready[i] = session.Seats[i].Ready
		payload.SelectionSizes[i] = len(session.Seats[i].Selected)
	}
	return Event{Kind: EventCharlestonUpdated, Payload: payload}
}
