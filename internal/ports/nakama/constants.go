package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a
	// lobby-capable table.
	RpcQuickMatch = "quick_match"

	// RpcJoinByCode is the Nakama RPC id clients call to resolve an invite
	// code into a match ID plus a signed invite token.
	RpcJoinByCode = "join_by_code"

	// MatchNameMahjongg is the authoritative match handler name registered
	// with Nakama.
	MatchNameMahjongg = "mahjongg_match"
)

// Data files read from the Nakama runtime working directory.
const (
	botIdentitiesPath = "data/bot_identities.json"
	gameConfigPath    = "data/game_config.json"
)

// Match label keys used in list queries.
const (
	MatchLabelKeyOpenSeats  = "open"
	MatchLabelKeyGame       = "game"
	MatchLabelKeyPhase      = "phase"
	MatchLabelKeyInviteCode = "code"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame        int64 = 1
	OpCharlestonSelect int64 = 2
	OpCharlestonReady  int64 = 3
	OpCharlestonVote   int64 = 4
	OpCourtesyOffer    int64 = 5

	// Server -> Client events
	OpTableState         int64 = 100
	OpPlayerJoined       int64 = 101
	OpPlayerLeft         int64 = 102
	OpGameStarted        int64 = 103
	OpHandDealt          int64 = 104 // sent privately
	OpCharlestonStarted  int64 = 105
	OpCharlestonUpdated  int64 = 106
	OpPassResolved       int64 = 107
	OpTilesReceived      int64 = 108 // sent privately
	OpVoteUpdated        int64 = 109
	OpVoteResolved       int64 = 110
	OpCourtesyResolved   int64 = 111
	OpCharlestonComplete int64 = 112
	OpGameError          int64 = 120
)
