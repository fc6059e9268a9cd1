package bot

import "mahjongg/internal/domain"

// Agent represents an autonomous bot player at one seat.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// SelectPass asks the agent for its pass selection in the current round.
func (a *Agent) SelectPass(game *domain.Game, seat domain.Seat, rules domain.Rules) ([]domain.Tile, *domain.BlindPass, bool) {
	player := game.PlayerAtSeat(seat)
	if player == nil || player.UserID != a.ID || game.Charleston == nil {
		return nil, nil, false
	}
	tiles, blind := a.Strategy.SelectPass(player, game.Charleston, rules)
	return tiles, blind, true
}

// Vote asks the agent for its second-Charleston vote.
func (a *Agent) Vote(game *domain.Game, seat domain.Seat) (domain.VoteChoice, bool) {
	player := game.PlayerAtSeat(seat)
	if player == nil || player.UserID != a.ID {
		return "", false
	}
	return a.Strategy.Vote(player), true
}

// Courtesy asks the agent for its courtesy offer; nil declines the trade.
func (a *Agent) Courtesy(game *domain.Game, seat domain.Seat) (*domain.CourtesyOffer, bool) {
	player := game.PlayerAtSeat(seat)
	if player == nil || player.UserID != a.ID {
		return nil, false
	}
	return a.Strategy.Courtesy(player), true
}
