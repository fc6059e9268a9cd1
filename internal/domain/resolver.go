package domain

import "errors"

// blindPassIterationCap bounds the fixed-point iteration. The seating ring
// has length 4, so the computation settles within 4 iterations; the cap
// leaves headroom and turns a modeling bug into a logged anomaly instead of
// an infinite loop.
const blindPassIterationCap = 8

var (
	// ErrConservation reports that applying a round would change the total
	// tile count across the four hands. The round is refused; this is an
	// internal consistency failure, never a legitimate game state.
	ErrConservation = errors.New("tile conservation violated")
	// ErrSelectionLost reports that a previously validated selection is no
	// longer present in the owning hand at resolution time.
	ErrSelectionLost = errors.New("selected tiles missing from hand")
)

// PassResult summarizes one executed pass round.
type PassResult struct {
	// Received holds the tiles each seat gained this round, in the order
	// they were folded in (staged before forwarded).
	Received [NumSeats][]Tile
	// Converged is false when the blind-pass fixed point hit the iteration
	// cap; the round still resolves with the last computed state.
	Converged bool
	// Phase is the session phase after the round advanced.
	Phase CharlestonPhase
}

// ResolvePass executes the current pass round: stages every seat's selection,
// resolves blind-pass forwarding to a fixed point, applies the movement to
// all four hands and advances the session to the next phase. It is a no-op
// (nil, nil) unless the session is in a pass phase with all seats ready.
//
// The entire next state is computed on copies first; the session and hands
// are only touched once every invariant has been checked, so a failed round
// leaves no partially applied state behind.
func ResolvePass(s *Session, hands *[NumSeats][]Tile, rules Rules) (*PassResult, error) {
	if s == nil || s.Completed || !s.Phase.IsPassPhase() || !s.AllReady() {
		return nil, nil
	}

	// Stage: what each seat is parting with.
	var staged [NumSeats][]Tile
	for i := range staged {
		staged[i] = append([]Tile(nil), s.Seats[i].Selected...)
	}

	blindCount := func(seat Seat) (int, bool) {
		if b := s.Seats[seat].Blind; b != nil {
			return b.Count, true
		}
		return 0, false
	}

	// incoming folds staged tiles in before previously forwarded ones: the
	// fixed deterministic tie-break that keeps blind keeps reproducible.
	incoming := func(seat Seat, forwarded *[NumSeats][]Tile) []Tile {
		src := PassSource(seat, s.Phase)
		in := make([]Tile, 0, len(staged[src])+len(forwarded[src]))
		in = append(in, staged[src]...)
		in = append(in, forwarded[src]...)
		return in
	}

	// Resolve blind-pass forwarding to a fixed point. A non-blind seat keeps
	// everything it receives, so nothing is ever forwarded through it.
	var forwarded [NumSeats][]Tile
	converged := false
	for iter := 0; iter < blindPassIterationCap; iter++ {
		var next [NumSeats][]Tile
		for seat := Seat(0); seat < NumSeats; seat++ {
			count, blind := blindCount(seat)
			if !blind {
				continue
			}
			in := incoming(seat, &forwarded)
			if count > len(in) {
				count = len(in)
			}
			next[seat] = in[count:]
		}
		if forwardsEqual(&next, &forwarded) {
			converged = true
			break
		}
		forwarded = next
	}

	// Finalize receiving from the settled forward state.
	var received [NumSeats][]Tile
	for seat := Seat(0); seat < NumSeats; seat++ {
		in := incoming(seat, &forwarded)
		if count, blind := blindCount(seat); blind {
			if count > len(in) {
				count = len(in)
			}
			in = in[:count]
		}
		received[seat] = in
	}

	// Apply on copies, then verify conservation before publishing anything.
	var nextHands [NumSeats][]Tile
	before, after := 0, 0
	for seat := Seat(0); seat < NumSeats; seat++ {
		removed := RemoveTiles(hands[seat], staged[seat])
		if len(removed) != len(hands[seat])-len(staged[seat]) {
			return nil, ErrSelectionLost
		}
		nextHands[seat] = append(removed, received[seat]...)
		before += len(hands[seat])
		after += len(nextHands[seat])
	}
	if before != after {
		return nil, ErrConservation
	}
	for seat := Seat(0); seat < NumSeats; seat++ {
		if count, blind := blindCount(seat); blind && len(received[seat]) != count {
			return nil, ErrConservation
		}
	}

	*hands = nextHands
	s.resetSeats()
	s.PassNumber++
	s.Phase = nextPassPhase(s.Phase)
	if s.Phase == PhaseCourtesy && !rules.CourtesyEnabled {
		s.complete()
	}

	return &PassResult{Received: received, Converged: converged, Phase: s.Phase}, nil
}

// complete marks the session finished; no further mutation is accepted.
func (s *Session) complete() {
	s.Phase = PhaseComplete
	s.Completed = true
	s.resetSeats()
}

func forwardsEqual(a, b *[NumSeats][]Tile) bool {
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}
