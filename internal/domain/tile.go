package domain

// Tile is a single tile token from the American mahjong set. The Charleston
// core treats tiles as opaque values except for joker detection; suit and
// rank semantics belong to the rule-card matcher, which lives outside this
// module.
type Tile string

// Joker is the only tile the Charleston ever inspects for meaning: jokers may
// never be passed or offered in a courtesy trade.
const Joker Tile = "J"

// IsJoker reports whether the tile is the joker symbol.
func (t Tile) IsJoker() bool { return t == Joker }

// ContainsJoker reports whether any tile in the slice is a joker.
func ContainsJoker(tiles []Tile) bool {
	for _, t := range tiles {
		if t.IsJoker() {
			return true
		}
	}
	return false
}

// WallSize is the number of tiles in a full American set.
const WallSize = 152

// HandSize is the number of tiles dealt to each seat before the Charleston.
// The dealer's extra pick happens in the play phase, after the Charleston,
// so all four hands stay the same size throughout the passing rounds.
const HandSize = 13

// NewWall returns the ordered 152-tile American set: craks, bams and dots
// 1-9 four times each, sixteen winds, twelve dragons, eight flowers and
// eight jokers. Shuffling is the caller's job so deals stay reproducible
// under an injected rng.
func NewWall() []Tile {
	wall := make([]Tile, 0, WallSize)

	suits := []byte{'C', 'B', 'D'}
	for _, s := range suits {
		for r := '1'; r <= '9'; r++ {
			t := Tile([]byte{byte(r), s})
			for i := 0; i < 4; i++ {
				wall = append(wall, t)
			}
		}
	}

	winds := []Tile{"N", "E", "W", "S"}
	for _, w := range winds {
		for i := 0; i < 4; i++ {
			wall = append(wall, w)
		}
	}

	dragons := []Tile{"RD", "GD", "WD"}
	for _, d := range dragons {
		for i := 0; i < 4; i++ {
			wall = append(wall, d)
		}
	}

	for i := 0; i < 8; i++ {
		wall = append(wall, "F")
	}
	for i := 0; i < 8; i++ {
		wall = append(wall, Joker)
	}

	return wall
}

// RemoveTiles removes each tile in toRemove from hand exactly once and
// returns the updated hand. Duplicates are honored per occurrence.
func RemoveTiles(hand []Tile, toRemove []Tile) []Tile {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Tile]int, len(toRemove))
	for _, t := range toRemove {
		removeCounts[t]++
	}

	updated := make([]Tile, 0, len(hand))
	for _, t := range hand {
		if count, ok := removeCounts[t]; ok && count > 0 {
			removeCounts[t] = count - 1
			continue
		}
		updated = append(updated, t)
	}

	return updated
}

// ContainsAll reports whether hand holds every tile in want, counting
// duplicate occurrences.
func ContainsAll(hand []Tile, want []Tile) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[Tile]int, len(hand))
	for _, t := range hand {
		have[t]++
	}
	for _, t := range want {
		if have[t] == 0 {
			return false
		}
		have[t]--
	}
	return true
}
