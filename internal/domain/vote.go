package domain

// CastVote records a seat's stance on playing a second Charleston. Votes are
// freely overwritable until the seat readies up, which locks them.
func (s *Session) CastVote(seat Seat, choice VoteChoice) error {
	if err := s.active(); err != nil {
		return err
	}
	if !seat.Valid() {
		return ruleErr(CodeInvalidSeat, "seat %d is not at the table", seat)
	}
	if s.Phase != PhaseVote {
		return ruleErr(CodeWrongPhase, "cannot vote during %s", s.Phase)
	}
	if choice != VoteYes && choice != VoteNo {
		return ruleErr(CodeVoteMissing, "vote must be yes or no, got %q", choice)
	}
	if s.Seats[seat].VoteLocked {
		return ruleErr(CodeVoteLocked, "seat %d's vote is already locked", seat)
	}

	s.Seats[seat].Vote = choice
	return nil
}

// LockVote fixes a seat's cast vote so it can no longer change. MarkReady
// performs this as a side effect; the explicit entry point exists for
// callers that lock without readying.
func (s *Session) LockVote(seat Seat) error {
	if err := s.active(); err != nil {
		return err
	}
	if !seat.Valid() {
		return ruleErr(CodeInvalidSeat, "seat %d is not at the table", seat)
	}
	if s.Phase != PhaseVote {
		return ruleErr(CodeWrongPhase, "cannot lock a vote during %s", s.Phase)
	}
	if s.Seats[seat].Vote == "" {
		return ruleErr(CodeVoteMissing, "no vote cast to lock")
	}

	s.Seats[seat].VoteLocked = true
	return nil
}

// TallyVotes counts the votes that matter under the rule in force: locked
// votes only for the majority rule, every cast vote for the legacy
// stop-threshold rule.
func (s *Session) TallyVotes(rules Rules) VoteTally {
	var tally VoteTally
	for i := range s.Seats {
		st := &s.Seats[i]
		if rules.VoteRule == VoteRuleLockedMajority && !st.VoteLocked {
			continue
		}
		switch st.Vote {
		case VoteYes:
			tally.Yes++
		case VoteNo:
			tally.No++
		}
	}
	return tally
}

// continueToSecondRound applies the configured threshold rule to a tally.
func continueToSecondRound(tally VoteTally, rules Rules) bool {
	if rules.VoteRule == VoteRuleStopOnThreeNo {
		return tally.No < 3
	}
	return tally.Yes > tally.No
}

// VoteResult summarizes a resolved second-Charleston vote.
type VoteResult struct {
	Tally     VoteTally
	Continued bool
	Phase     CharlestonPhase
}

// ResolveVote tallies the vote, records it on the session and branches the
// phase: into the second round of passes when the table votes to continue,
// otherwise to the courtesy trade (or straight to complete when courtesy is
// disabled). All seat round state is reset on either branch. It is a no-op
// (nil, nil) outside the vote phase or before every seat is ready.
func ResolveVote(s *Session, rules Rules) *VoteResult {
	if s == nil || s.Completed || s.Phase != PhaseVote || !s.AllReady() {
		return nil
	}

	tally := s.TallyVotes(rules)
	s.LastVotes = &tally
	s.resetSeats()

	if continueToSecondRound(tally, rules) {
		s.Phase = PhasePassLeft2
	} else if rules.CourtesyEnabled {
		s.Phase = PhaseCourtesy
	} else {
		s.complete()
	}

	return &VoteResult{
		Tally:     tally,
		Continued: s.Phase == PhasePassLeft2,
		Phase:     s.Phase,
	}
}
