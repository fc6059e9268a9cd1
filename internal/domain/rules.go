package domain

// VoteRule selects which historical rule decides the second-Charleston vote.
type VoteRule string

const (
	// VoteRuleLockedMajority counts only locked votes and continues into the
	// second Charleston when yes strictly outnumbers no.
	VoteRuleLockedMajority VoteRule = "locked_majority"
	// VoteRuleStopOnThreeNo counts every cast vote, locked or not, and stops
	// the Charleston as soon as three seats vote no.
	VoteRuleStopOnThreeNo VoteRule = "stop_on_three_no"
)

// Rules carries the table-level variant switches that shape a Charleston.
// They are fixed for the lifetime of a session.
type Rules struct {
	// VoteRule picks the threshold rule for the second-round vote.
	VoteRule VoteRule
	// CourtesyEnabled allows the optional courtesy trade after the final
	// pass round. When false the Charleston completes directly.
	CourtesyEnabled bool
	// BlindPassAll opens every pass round to blind passing instead of only
	// the third and sixth.
	BlindPassAll bool
}

// DefaultRules returns the standard tournament rule set.
func DefaultRules() Rules {
	return Rules{
		VoteRule:        VoteRuleLockedMajority,
		CourtesyEnabled: true,
	}
}
