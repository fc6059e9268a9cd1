package domain

import "testing"

// fixtureHands deals four distinct 13-tile hands whose contents stay within
// the wall's copy limits.
func fixtureHands() [NumSeats][]Tile {
	return [NumSeats][]Tile{
		{"1C", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "N", "E", "W", "S"},
		{"1B", "2B", "3B", "4B", "5B", "6B", "7B", "8B", "9B", "N", "E", "W", "S"},
		{"1D", "2D", "3D", "4D", "5D", "6D", "7D", "8D", "9D", "RD", "GD", "WD", "F"},
		{"1C", "2C", "3C", "4C", "5C", "6C", "7C", "8C", "9C", "RD", "GD", "WD", "F"},
	}
}

func selectAndReady(t *testing.T, s *Session, seat Seat, hands *[NumSeats][]Tile, tiles []Tile, blind *BlindPass) {
	t.Helper()
	if err := s.Select(seat, tiles, blind, hands[seat], DefaultRules()); err != nil {
		t.Fatalf("Select(seat %d) = %v", seat, err)
	}
	if err := s.MarkReady(seat); err != nil {
		t.Fatalf("MarkReady(seat %d) = %v", seat, err)
	}
}

func totalTiles(hands *[NumSeats][]Tile) int {
	total := 0
	for i := range hands {
		total += len(hands[i])
	}
	return total
}

func tilesEqual(a, b []Tile) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolvePassNoOpUntilAllReady(t *testing.T) {
	s := NewSession()
	hands := fixtureHands()

	selectAndReady(t, s, 0, &hands, []Tile{"1C", "2C", "3C"}, nil)

	result, err := ResolvePass(s, &hands, DefaultRules())
	if err != nil {
		t.Fatalf("ResolvePass() = %v", err)
	}
	if result != nil {
		t.Fatal("round resolved with three seats pending")
	}
	if s.Phase != PhasePassRight {
		t.Fatalf("phase advanced to %s with seats pending", s.Phase)
	}
}

func TestResolvePassRightRotation(t *testing.T) {
	s := NewSession()
	hands := fixtureHands()

	staged := [NumSeats][]Tile{
		{"1C", "2C", "3C"},
		{"1B", "2B", "3B"},
		{"1D", "2D", "3D"},
		{"7C", "8C", "9C"},
	}
	for seat := Seat(0); seat < NumSeats; seat++ {
		selectAndReady(t, s, seat, &hands, staged[seat], nil)
	}

	result, err := ResolvePass(s, &hands, DefaultRules())
	if err != nil {
		t.Fatalf("ResolvePass() = %v", err)
	}
	if result == nil {
		t.Fatal("round did not resolve with all seats ready")
	}
	if !result.Converged {
		t.Fatal("plain round reported non-convergence")
	}
	if result.Phase != PhasePassAcross || s.Phase != PhasePassAcross {
		t.Fatalf("phase = %s, want %s", s.Phase, PhasePassAcross)
	}
	if s.PassNumber != 2 {
		t.Fatalf("pass number = %d, want 2", s.PassNumber)
	}

	// Passing right: each seat receives what the seat before it staged.
	for seat := Seat(0); seat < NumSeats; seat++ {
		src := PassSource(seat, PhasePassRight)
		if !tilesEqual(result.Received[seat], staged[src]) {
			t.Errorf("seat %d received %v, want %v", seat, result.Received[seat], staged[src])
		}
		if len(hands[seat]) != HandSize {
			t.Errorf("seat %d hand size = %d, want %d", seat, len(hands[seat]), HandSize)
		}
		if !ContainsAll(hands[seat], staged[src]) {
			t.Errorf("seat %d hand missing received tiles %v", seat, staged[src])
		}
	}
	if totalTiles(&hands) != NumSeats*HandSize {
		t.Fatalf("total tiles = %d, want %d", totalTiles(&hands), NumSeats*HandSize)
	}

	// Seat state is reset for the next round.
	for i := range s.Seats {
		if s.Seats[i].Ready || len(s.Seats[i].Selected) != 0 {
			t.Fatalf("seat %d round state not reset: %+v", i, s.Seats[i])
		}
	}
}

func TestResolvePassSingleBlindSeat(t *testing.T) {
	s := NewSession()
	s.Phase = PhasePassLeft
	hands := fixtureHands()

	// Seat 0 blind passes keeping one unseen tile; the rest pass normally.
	selectAndReady(t, s, 0, &hands, []Tile{"1C"}, &BlindPass{Count: 1})
	selectAndReady(t, s, 1, &hands, []Tile{"1B", "2B", "3B"}, nil)
	selectAndReady(t, s, 2, &hands, []Tile{"1D", "2D", "3D"}, nil)
	selectAndReady(t, s, 3, &hands, []Tile{"7C", "8C", "9C"}, nil)

	result, err := ResolvePass(s, &hands, DefaultRules())
	if err != nil {
		t.Fatalf("ResolvePass() = %v", err)
	}
	if result == nil || !result.Converged {
		t.Fatalf("result = %+v, want converged resolution", result)
	}

	// Passing left, seat 0 receives from seat 1. The blind keep is the
	// first staged tile; the other two travel on to seat 0's target.
	if !tilesEqual(result.Received[0], []Tile{"1B"}) {
		t.Fatalf("blind seat received %v, want [1B]", result.Received[0])
	}
	target := PassTarget(0, PhasePassLeft)
	wantForwarded := []Tile{"1C", "2B", "3B"} // own staged first, then the pass-through
	if !tilesEqual(result.Received[target], wantForwarded) {
		t.Fatalf("seat %d received %v, want %v", target, result.Received[target], wantForwarded)
	}

	for seat := Seat(0); seat < NumSeats; seat++ {
		if len(hands[seat]) != HandSize {
			t.Errorf("seat %d hand size = %d, want %d", seat, len(hands[seat]), HandSize)
		}
	}
}

func TestResolvePassAllBlind(t *testing.T) {
	s := NewSession()
	s.Phase = PhasePassLeft
	hands := fixtureHands()

	staged := [NumSeats][]Tile{
		{"1C", "2C"},
		{"1B", "2B"},
		{"1D", "2D"},
		{"8C", "9C"},
	}
	for seat := Seat(0); seat < NumSeats; seat++ {
		selectAndReady(t, s, seat, &hands, staged[seat], &BlindPass{Count: 2})
	}

	result, err := ResolvePass(s, &hands, DefaultRules())
	if err != nil {
		t.Fatalf("ResolvePass() = %v", err)
	}
	if result == nil || !result.Converged {
		t.Fatalf("result = %+v, want converged resolution", result)
	}

	// Every seat keeps exactly as many tiles as it staged, so the blind
	// keeps absorb each source's staged tiles whole and nothing circulates.
	for seat := Seat(0); seat < NumSeats; seat++ {
		src := PassSource(seat, PhasePassLeft)
		if !tilesEqual(result.Received[seat], staged[src]) {
			t.Errorf("seat %d received %v, want %v", seat, result.Received[seat], staged[src])
		}
		if len(hands[seat]) != HandSize {
			t.Errorf("seat %d hand size = %d, want %d", seat, len(hands[seat]), HandSize)
		}
	}
}

func TestResolvePassBlindRelayChain(t *testing.T) {
	s := NewSession()
	s.Phase = PhasePassLeft
	hands := fixtureHands()

	// Seats 0 and 3 blind pass keeping nothing, so seat 1's tiles relay
	// through both of them and land on seat 2.
	selectAndReady(t, s, 0, &hands, nil, &BlindPass{Count: 0})
	selectAndReady(t, s, 1, &hands, []Tile{"1B", "2B", "3B"}, nil)
	selectAndReady(t, s, 2, &hands, []Tile{"1D", "2D", "3D"}, nil)
	selectAndReady(t, s, 3, &hands, nil, &BlindPass{Count: 0})

	result, err := ResolvePass(s, &hands, DefaultRules())
	if err != nil {
		t.Fatalf("ResolvePass() = %v", err)
	}
	if result == nil || !result.Converged {
		t.Fatalf("result = %+v, want converged resolution", result)
	}

	if len(result.Received[0]) != 0 || len(result.Received[3]) != 0 {
		t.Fatalf("blind keep-nothing seats received tiles: %v / %v", result.Received[0], result.Received[3])
	}
	if !tilesEqual(result.Received[1], []Tile{"1D", "2D", "3D"}) {
		t.Fatalf("seat 1 received %v, want seat 2's staged tiles", result.Received[1])
	}
	if !tilesEqual(result.Received[2], []Tile{"1B", "2B", "3B"}) {
		t.Fatalf("seat 2 received %v, want seat 1's tiles relayed through the blind seats", result.Received[2])
	}

	if len(hands[0]) != HandSize || len(hands[3]) != HandSize {
		t.Fatalf("blind seat hand sizes = %d/%d, want %d", len(hands[0]), len(hands[3]), HandSize)
	}
	if totalTiles(&hands) != NumSeats*HandSize {
		t.Fatalf("total tiles = %d, want %d", totalTiles(&hands), NumSeats*HandSize)
	}
}

func TestResolvePassSelectionLost(t *testing.T) {
	s := NewSession()
	hands := fixtureHands()

	for seat := Seat(0); seat < NumSeats; seat++ {
		selectAndReady(t, s, seat, &hands, hands[seat][:3], nil)
	}

	// Corrupt one hand after selection to simulate a stale snapshot.
	hands[2] = []Tile{"F", "F"}

	if _, err := ResolvePass(s, &hands, DefaultRules()); err != ErrSelectionLost {
		t.Fatalf("ResolvePass() = %v, want ErrSelectionLost", err)
	}
	if s.Phase != PhasePassRight || s.PassNumber != 1 {
		t.Fatalf("failed round mutated session: phase=%s pass=%d", s.Phase, s.PassNumber)
	}
}

func TestResolvePassCompletesWhenCourtesyDisabled(t *testing.T) {
	s := NewSession()
	s.Phase = PhasePassRight2
	s.PassNumber = 6
	hands := fixtureHands()

	rules := DefaultRules()
	rules.CourtesyEnabled = false

	for seat := Seat(0); seat < NumSeats; seat++ {
		selectAndReady(t, s, seat, &hands, hands[seat][:3], nil)
	}

	result, err := ResolvePass(s, &hands, rules)
	if err != nil {
		t.Fatalf("ResolvePass() = %v", err)
	}
	if result == nil {
		t.Fatal("final round did not resolve")
	}
	if !s.Completed || s.Phase != PhaseComplete {
		t.Fatalf("session = phase %s completed %v, want complete", s.Phase, s.Completed)
	}
}
