package bot

import (
	"sort"

	"mahjongg/internal/domain"
)

// SteadyBot is the simplest strategy: it passes the first three non-joker
// tiles of its hand, never blind passes, always votes for a second round and
// never trades.
type SteadyBot struct{}

func (b *SteadyBot) SelectPass(player *domain.Player, session *domain.Session, rules domain.Rules) ([]domain.Tile, *domain.BlindPass) {
	tiles := make([]domain.Tile, 0, domain.PassSelectionSize)
	for _, t := range player.Hand {
		if t.IsJoker() {
			continue
		}
		tiles = append(tiles, t)
		if len(tiles) == domain.PassSelectionSize {
			break
		}
	}
	return tiles, nil
}

func (b *SteadyBot) Vote(player *domain.Player) domain.VoteChoice { return domain.VoteYes }

func (b *SteadyBot) Courtesy(player *domain.Player) *domain.CourtesyOffer { return nil }

// KeeperBot protects duplicates: it passes the tiles it holds fewest copies
// of, on the reasoning that pairs and triples anchor most rule-card hands.
// When the round allows it and the hand has fewer than three loose singles,
// it blind passes to hold on to what it has. It inspects only copy counts,
// never tile meanings.
type KeeperBot struct{}

func (b *KeeperBot) SelectPass(player *domain.Player, session *domain.Session, rules domain.Rules) ([]domain.Tile, *domain.BlindPass) {
	singles := passCandidates(player.Hand)

	blindRound := session.Phase == domain.PhasePassLeft || session.Phase == domain.PhasePassRight2 ||
		(rules.BlindPassAll && session.Phase.IsPassPhase())
	if blindRound && len(singles) < domain.PassSelectionSize {
		count := len(singles)
		if count > domain.MaxBlindCount {
			count = domain.MaxBlindCount
		}
		return singles[:count], &domain.BlindPass{Count: count}
	}

	if len(singles) >= domain.PassSelectionSize {
		return singles[:domain.PassSelectionSize], nil
	}

	// Not enough singles and no blind pass available: break up duplicates,
	// padding deterministically from the sorted hand.
	tiles := append([]domain.Tile(nil), singles...)
	rest := domain.RemoveTiles(sortedHand(player.Hand), tiles)
	for _, t := range rest {
		if len(tiles) == domain.PassSelectionSize {
			break
		}
		if t.IsJoker() {
			continue
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// Vote keeps the Charleston going while the hand is still loose and stops it
// once enough duplicates have assembled.
func (b *KeeperBot) Vote(player *domain.Player) domain.VoteChoice {
	counts := tileCounts(player.Hand)
	pairs := 0
	for t, n := range counts {
		if !t.IsJoker() && n >= 2 {
			pairs++
		}
	}
	if pairs >= 4 {
		return domain.VoteNo
	}
	return domain.VoteYes
}

func (b *KeeperBot) Courtesy(player *domain.Player) *domain.CourtesyOffer { return nil }

func tileCounts(hand []domain.Tile) map[domain.Tile]int {
	counts := make(map[domain.Tile]int, len(hand))
	for _, t := range hand {
		counts[t]++
	}
	return counts
}

// passCandidates returns the non-joker tiles held as single copies, ordered
// deterministically.
func passCandidates(hand []domain.Tile) []domain.Tile {
	counts := tileCounts(hand)
	var singles []domain.Tile
	for t, n := range counts {
		if n == 1 && !t.IsJoker() {
			singles = append(singles, t)
		}
	}
	sort.Slice(singles, func(i, j int) bool { return singles[i] < singles[j] })
	return singles
}

func sortedHand(hand []domain.Tile) []domain.Tile {
	out := append([]domain.Tile(nil), hand...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
