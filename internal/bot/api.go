package bot

import "mahjongg/internal/domain"

// Brain is the interface all bot strategies implement. Each method decides
// one Charleston action for the bot's seat; implementations must be
// deterministic so replays stay reproducible.
type Brain interface {
	// SelectPass picks the tiles to pass this round and, when the strategy
	// wants one and the round allows it, a blind pass declaration.
	SelectPass(player *domain.Player, session *domain.Session, rules domain.Rules) ([]domain.Tile, *domain.BlindPass)
	// Vote decides the second-Charleston vote.
	Vote(player *domain.Player) domain.VoteChoice
	// Courtesy proposes a trade after the final round, or nil to decline.
	Courtesy(player *domain.Player) *domain.CourtesyOffer
}
