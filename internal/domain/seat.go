package domain

// Seat identifies one of the four fixed positions on the table ring.
// "Right", "across" and "left" are relative offsets +1, +2 and +3 mod 4.
type Seat int

// NumSeats is the size of the seating ring. The Charleston is only defined
// for a full table.
const NumSeats = 4

// Valid reports whether the seat index is on the ring.
func (s Seat) Valid() bool { return s >= 0 && s < NumSeats }

// passOffset returns the ring offset a passing phase moves tiles by, or 0
// for phases where no tiles move.
func passOffset(p CharlestonPhase) int {
	switch p {
	case PhasePassRight, PhasePassRight2:
		return 1
	case PhasePassAcross, PhasePassAcross2:
		return 2
	case PhasePassLeft, PhasePassLeft2:
		return 3
	default:
		return 0
	}
}

// PassTarget returns the seat that receives s's tiles in the given phase.
// For non-passing phases it returns s itself; callers gate on IsPassPhase.
func PassTarget(s Seat, p CharlestonPhase) Seat {
	return (s + Seat(passOffset(p))) % NumSeats
}

// PassSource returns the seat whose tiles s receives in the given phase.
// It is derived as the algebraic inverse of PassTarget rather than tabulated,
// so PassSource(PassTarget(s, p), p) == s holds by construction.
func PassSource(s Seat, p CharlestonPhase) Seat {
	return (s + Seat(NumSeats-passOffset(p))) % NumSeats
}
