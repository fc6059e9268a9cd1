package domain

import "fmt"

// CharlestonPhase is one stage of the fixed Charleston sequence. Phases are
// traversed strictly forward; the only branch point is the vote, which routes
// either into the second round of passes or straight to the courtesy trade.
type CharlestonPhase string

const (
	PhasePassRight   CharlestonPhase = "pass_right"
	PhasePassAcross  CharlestonPhase = "pass_across"
	PhasePassLeft    CharlestonPhase = "pass_left"
	PhaseVote        CharlestonPhase = "vote"
	PhasePassLeft2   CharlestonPhase = "pass_left_2"
	PhasePassAcross2 CharlestonPhase = "pass_across_2"
	PhasePassRight2  CharlestonPhase = "pass_right_2"
	PhaseCourtesy    CharlestonPhase = "courtesy"
	PhaseComplete    CharlestonPhase = "complete"
)

// IsPassPhase reports whether tiles move between seats in this phase.
func (p CharlestonPhase) IsPassPhase() bool { return passOffset(p) != 0 }

// nextPassPhase maps each passing phase to its successor in the fixed
// sequence. The vote branch is resolved by ResolveVote, not here.
func nextPassPhase(p CharlestonPhase) CharlestonPhase {
	switch p {
	case PhasePassRight:
		return PhasePassAcross
	case PhasePassAcross:
		return PhasePassLeft
	case PhasePassLeft:
		return PhaseVote
	case PhasePassLeft2:
		return PhasePassAcross2
	case PhasePassAcross2:
		return PhasePassRight2
	case PhasePassRight2:
		return PhaseCourtesy
	default:
		return p
	}
}

// PhaseInstructions returns the static player-facing prompt for a phase.
func PhaseInstructions(p CharlestonPhase) string {
	switch p {
	case PhasePassRight:
		return "First Charleston: select 3 tiles to pass to the player on your right."
	case PhasePassAcross:
		return "First Charleston: select 3 tiles to pass across the table."
	case PhasePassLeft:
		return "First Charleston: select 3 tiles to pass to the player on your left. A blind pass is allowed this round."
	case PhaseVote:
		return "Vote whether to play a second Charleston."
	case PhasePassLeft2:
		return "Second Charleston: select 3 tiles to pass to the player on your left."
	case PhasePassAcross2:
		return "Second Charleston: select 3 tiles to pass across the table."
	case PhasePassRight2:
		return "Second Charleston: select 3 tiles to pass to the player on your right. A blind pass is allowed this round."
	case PhaseCourtesy:
		return "Optional courtesy: offer up to 3 tiles to trade with one other player, or pass."
	case PhaseComplete:
		return "The Charleston is complete."
	default:
		return ""
	}
}

// Rule error codes returned to the acting seat. These are recoverable
// validation failures; nothing is mutated when one is returned.
const (
	CodeCharlestonInactive  = "charleston_inactive"
	CodeWrongPhase          = "wrong_phase"
	CodeJokerForbidden      = "joker_forbidden"
	CodeBlindPassNotAllowed = "blind_pass_not_allowed"
	CodeWrongSelectionCount = "wrong_selection_count"
	CodeTileNotOwned        = "tile_not_owned"
	CodeSelectionRequired   = "selection_required"
	CodeVoteMissing         = "vote_missing"
	CodeVoteLocked          = "vote_locked"
	CodeSeatReady           = "seat_already_ready"
	CodeInvalidSeat         = "invalid_seat"
)

// RuleError is a recoverable rule violation. It is returned to the caller
// and never escalates into the resolver; sessions are only mutated after
// validation has fully passed.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Code + ": " + e.Message }

func ruleErr(code, format string, args ...interface{}) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// PassSelectionSize is the number of tiles a seat passes in a normal round.
const PassSelectionSize = 3

// MaxBlindCount is the most tiles a blind-passing seat may keep back.
const MaxBlindCount = 2

// BlindPass marks a seat as blind-passing for the current round: the seat
// selects Count tiles from its own hand and keeps Count tiles, sight unseen,
// out of whatever it receives, forwarding the remainder to its target.
type BlindPass struct {
	Count int `json:"count"`
}

// VoteChoice is a seat's stance on playing a second Charleston.
type VoteChoice string

const (
	VoteYes VoteChoice = "yes"
	VoteNo  VoteChoice = "no"
)

// CourtesyOffer is a proposed bilateral trade after the final pass round.
// Tiles only move when the target seat makes a reciprocal offer of equal size.
type CourtesyOffer struct {
	Tiles  []Tile `json:"tiles"`
	Target Seat   `json:"target"`
}

// SeatRoundState is one seat's transient state for the current round. It is
// created fresh when a round starts and destroyed when the round resolves.
type SeatRoundState struct {
	Selected   []Tile         `json:"selected"`
	Ready      bool           `json:"ready"`
	Blind      *BlindPass     `json:"blind,omitempty"`
	Vote       VoteChoice     `json:"vote,omitempty"`
	VoteLocked bool           `json:"vote_locked"`
	Courtesy   *CourtesyOffer `json:"courtesy,omitempty"`
}

// VoteTally is the recorded outcome of the second-Charleston vote.
type VoteTally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Session is the authoritative per-game Charleston record. It is exclusively
// owned by the enclosing game state; entry points receive it by pointer and
// mutate only through the validated operations below.
type Session struct {
	Phase      CharlestonPhase          `json:"phase"`
	PassNumber int                      `json:"pass_number"`
	Seats      [NumSeats]SeatRoundState `json:"seats"`
	Completed  bool                     `json:"completed"`
	LastVotes  *VoteTally               `json:"last_votes,omitempty"`
}

// NewSession returns a fresh session at the first pass round.
func NewSession() *Session {
	return &Session{
		Phase:      PhasePassRight,
		PassNumber: 1,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	for i := range out.Seats {
		out.Seats[i].Selected = append([]Tile(nil), s.Seats[i].Selected...)
		if b := s.Seats[i].Blind; b != nil {
			copied := *b
			out.Seats[i].Blind = &copied
		}
		if c := s.Seats[i].Courtesy; c != nil {
			copied := CourtesyOffer{
				Tiles:  append([]Tile(nil), c.Tiles...),
				Target: c.Target,
			}
			out.Seats[i].Courtesy = &copied
		}
	}
	if s.LastVotes != nil {
		tally := *s.LastVotes
		out.LastVotes = &tally
	}
	return &out
}

// resetSeats destroys all transient per-seat round state.
func (s *Session) resetSeats() {
	s.Seats = [NumSeats]SeatRoundState{}
}

// active returns a rule error unless the session exists and is not complete.
func (s *Session) active() *RuleError {
	if s == nil {
		return ruleErr(CodeCharlestonInactive, "no charleston in progress")
	}
	if s.Completed {
		return ruleErr(CodeCharlestonInactive, "charleston already complete")
	}
	return nil
}

// blindAllowed reports whether a blind pass may be declared in the current
// phase. Only the third and sixth pass rounds permit it, unless the table
// rules open every pass round to blind passing.
func (s *Session) blindAllowed(rules Rules) bool {
	if rules.BlindPassAll {
		return s.Phase.IsPassPhase()
	}
	return s.Phase == PhasePassLeft || s.Phase == PhasePassRight2
}

// Select records a seat's proposed tile selection for the current pass round.
// The hand is read for ownership validation only; nothing moves until the
// round resolves. A repeated Select from the same seat supersedes the prior
// one as long as the seat has not marked ready.
func (s *Session) Select(seat Seat, tiles []Tile, blind *BlindPass, hand []Tile, rules Rules) error {
	if err := s.active(); err != nil {
		return err
	}
	if !seat.Valid() {
		return ruleErr(CodeInvalidSeat, "seat %d is not at the table", seat)
	}
	if !s.Phase.IsPassPhase() {
		return ruleErr(CodeWrongPhase, "cannot select tiles during %s", s.Phase)
	}
	if s.Seats[seat].Ready {
		return ruleErr(CodeSeatReady, "seat %d already locked in for this round", seat)
	}
	if ContainsJoker(tiles) {
		return ruleErr(CodeJokerForbidden, "jokers cannot be passed")
	}
	if blind != nil {
		if !s.blindAllowed(rules) {
			return ruleErr(CodeBlindPassNotAllowed, "blind pass not allowed during %s", s.Phase)
		}
		if blind.Count < 0 || blind.Count > MaxBlindCount {
			return ruleErr(CodeWrongSelectionCount, "blind pass keeps 0 to %d tiles, got %d", MaxBlindCount, blind.Count)
		}
		if len(tiles) != blind.Count {
			return ruleErr(CodeWrongSelectionCount, "blind pass of %d requires selecting %d tiles, got %d", blind.Count, blind.Count, len(tiles))
		}
	} else if len(tiles) != PassSelectionSize {
		return ruleErr(CodeWrongSelectionCount, "select exactly %d tiles, got %d", PassSelectionSize, len(tiles))
	}
	if !ContainsAll(hand, tiles) {
		return ruleErr(CodeTileNotOwned, "selection contains tiles not in hand")
	}

	s.Seats[seat].Selected = append([]Tile(nil), tiles...)
	if blind != nil {
		copied := *blind
		s.Seats[seat].Blind = &copied
	} else {
		s.Seats[seat].Blind = nil
	}
	s.Seats[seat].Ready = false
	return nil
}

// MarkReady locks a seat in for the current round. In a pass phase the seat
// must have a selection (or an active blind pass, which may legitimately
// select zero tiles); in the vote phase it must have cast a vote, which is
// locked as a side effect.
func (s *Session) MarkReady(seat Seat) error {
	if err := s.active(); err != nil {
		return err
	}
	if !seat.Valid() {
		return ruleErr(CodeInvalidSeat, "seat %d is not at the table", seat)
	}

	st := &s.Seats[seat]
	switch {
	case s.Phase.IsPassPhase():
		if len(st.Selected) == 0 && st.Blind == nil {
			return ruleErr(CodeSelectionRequired, "select tiles before readying up")
		}
	case s.Phase == PhaseVote:
		if st.Vote == "" {
			return ruleErr(CodeVoteMissing, "cast a vote before readying up")
		}
		st.VoteLocked = true
	case s.Phase == PhaseCourtesy:
		// A seat may ready with no offer; that simply declines to trade.
	default:
		return ruleErr(CodeWrongPhase, "nothing to ready up for during %s", s.Phase)
	}

	st.Ready = true
	return nil
}

// AllReady reports whether every seat is locked in for the current round.
// It is the sole trigger external callers use to invoke resolution; the
// session itself never polls or blocks.
func (s *Session) AllReady() bool {
	if s == nil {
		return false
	}
	for i := range s.Seats {
		if !s.Seats[i].Ready {
			return false
		}
	}
	return true
}
