package nakama

import (
	"encoding/json"

	"mahjongg/internal/app"
	"mahjongg/internal/domain"
)

// SelectRequest is the client payload for OpCharlestonSelect. A non-nil
// BlindCount declares a blind pass keeping that many tiles.
type SelectRequest struct {
	Tiles      []domain.Tile `json:"tiles"`
	BlindCount *int          `json:"blind_count,omitempty"`
}

// VoteRequest is the client payload for OpCharlestonVote.
type VoteRequest struct {
	Choice string `json:"choice"` // "yes" or "no"
}

// CourtesyRequest is the client payload for OpCourtesyOffer.
type CourtesyRequest struct {
	Tiles  []domain.Tile `json:"tiles"`
	Target int           `json:"target"`
}

// Label is the match label advertised for list queries.
type Label struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
	Code  string `json:"code"`
}

// eventOpCode maps an app event kind to its wire opcode; ok is false for
// kinds with no client-facing message.
func eventOpCode(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventPlayerJoined:
		return OpPlayerJoined, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	case app.EventGameStarted:
		return OpGameStarted, true
	case app.EventHandDealt:
		return OpHandDealt, true
	case app.EventCharlestonStarted:
		return OpCharlestonStarted, true
	case app.EventCharlestonUpdated:
		return OpCharlestonUpdated, true
	case app.EventPassResolved:
		return OpPassResolved, true
	case app.EventTilesReceived:
		return OpTilesReceived, true
	case app.EventVoteUpdated:
		return OpVoteUpdated, true
	case app.EventVoteResolved:
		return OpVoteResolved, true
	case app.EventCourtesyResolved:
		return OpCourtesyResolved, true
	case app.EventCharlestonComplete:
		return OpCharlestonComplete, true
	default:
		return 0, false
	}
}

// marshalEvent encodes an event payload for dispatch.
func marshalEvent(ev app.Event) ([]byte, error) {
	return json.Marshal(ev.Payload)
}
