package ports

import "context"

// TransitionRecord captures one Charleston state transition for the
// append-only audit log. Records are written, never interpreted here.
type TransitionRecord struct {
	MatchID    string                 `json:"match_id"`
	Kind       string                 `json:"kind"` // "pass", "vote", "courtesy"
	Phase      string                 `json:"phase"`
	PassNumber int                    `json:"pass_number"`
	Converged  bool                   `json:"converged"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// AuditPort is the sink for Charleston state-transition records.
type AuditPort interface {
	// RecordTransition appends one record to the audit log.
	RecordTransition(ctx context.Context, record TransitionRecord) error
}
