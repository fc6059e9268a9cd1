package app

import "mahjongg/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined        EventKind = "player_joined"
	EventPlayerLeft          EventKind = "player_left"
	EventGameStarted         EventKind = "game_started"
	EventHandDealt           EventKind = "hand_dealt"
	EventCharlestonStarted   EventKind = "charleston_started"
	EventCharlestonUpdated   EventKind = "charleston_updated"
	EventPassResolved        EventKind = "pass_resolved"
	EventTilesReceived       EventKind = "tiles_received"
	EventVoteUpdated         EventKind = "vote_updated"
	EventVoteResolved        EventKind = "vote_resolved"
	EventCourtesyResolved    EventKind = "courtesy_resolved"
	EventCharlestonComplete  EventKind = "charleston_complete"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string      `json:"user_id"`
	Seat   domain.Seat `json:"seat"`
	Owner  bool        `json:"owner"`
}

type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
}

type GameStartedPayload struct {
	Phase domain.Phase `json:"phase"`
}

type HandDealtPayload struct {
	Seat domain.Seat   `json:"seat"`
	Hand []domain.Tile `json:"hand"`
}

type CharlestonStartedPayload struct {
	Phase        domain.CharlestonPhase `json:"phase"`
	PassNumber   int                    `json:"pass_number"`
	Instructions string                 `json:"instructions"`
}

// CharlestonUpdatedPayload advertises per-seat progress without revealing
// which tiles anyone selected.
type CharlestonUpdatedPayload struct {
	Phase          domain.CharlestonPhase `json:"phase"`
	PassNumber     int                    `json:"pass_number"`
	Ready          [domain.NumSeats]bool  `json:"ready"`
	SelectionSizes [domain.NumSeats]int   `json:"selection_sizes"`
}

type PassResolvedPayload struct {
	Phase        domain.CharlestonPhase `json:"phase"`
	PassNumber   int                    `json:"pass_number"`
	Converged    bool                   `json:"converged"`
	Instructions string                 `json:"instructions"`
}

// TilesReceivedPayload is sent privately to one seat after a pass or trade.
type TilesReceivedPayload struct {
	Seat  domain.Seat   `json:"seat"`
	Tiles []domain.Tile `json:"tiles"`
	Hand  []domain.Tile `json:"hand"`
}

type VoteUpdatedPayload struct {
	Cast   int                   `json:"cast"`
	Locked [domain.NumSeats]bool `json:"locked"`
}

type VoteResolvedPayload struct {
	Tally        domain.VoteTally       `json:"tally"`
	Continued    bool                   `json:"continued"`
	Phase        domain.CharlestonPhase `json:"phase"`
	Instructions string                 `json:"instructions"`
}

type CourtesyResolvedPayload struct {
	Trades int                    `json:"trades"`
	Phase  domain.CharlestonPhase `json:"phase"`
}

type CharlestonCompletePayload struct {
	Phase domain.Phase `json:"phase"`
}

// RuleErrorPayload reports a rejected request back to the acting user.
type RuleErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
