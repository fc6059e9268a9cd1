package domain

// ProposeCourtesy stores a seat's offer to trade up to three tiles with one
// specific other seat. Offers never move tiles by themselves; an offer with
// no reciprocal, equal-length counterpart simply lapses at execution.
func (s *Session) ProposeCourtesy(seat Seat, tiles []Tile, target Seat, hand []Tile) error {
	if err := s.active(); err != nil {
		return err
	}
	if !seat.Valid() {
		return ruleErr(CodeInvalidSeat, "seat %d is not at the table", seat)
	}
	if s.Phase != PhaseCourtesy {
		return ruleErr(CodeWrongPhase, "cannot offer a courtesy trade during %s", s.Phase)
	}
	if !target.Valid() || target == seat {
		return ruleErr(CodeInvalidSeat, "courtesy target %d is not another seat", target)
	}
	if s.Seats[seat].Ready {
		return ruleErr(CodeSeatReady, "seat %d already locked in", seat)
	}
	if len(tiles) == 0 || len(tiles) > PassSelectionSize {
		return ruleErr(CodeWrongSelectionCount, "courtesy offers 1 to %d tiles, got %d", PassSelectionSize, len(tiles))
	}
	if ContainsJoker(tiles) {
		return ruleErr(CodeJokerForbidden, "jokers cannot be traded")
	}
	if !ContainsAll(hand, tiles) {
		return ruleErr(CodeTileNotOwned, "offer contains tiles not in hand")
	}

	s.Seats[seat].Courtesy = &CourtesyOffer{
		Tiles:  append([]Tile(nil), tiles...),
		Target: target,
	}
	return nil
}

// CourtesyTrade records one executed bilateral swap.
type CourtesyTrade struct {
	Seats [2]Seat
	Tiles [2][]Tile // Tiles[i] is what Seats[i] gave away
}

// ExecuteCourtesy matches mutually targeting, equal-length offers and swaps
// the tile sets between the paired hands, exactly once per pair. Every
// unmatched offer lapses with no movement. The session completes afterwards
// regardless of how many trades ran. It is a no-op (nil, nil) outside the
// courtesy phase or before every seat is ready.
func ExecuteCourtesy(s *Session, hands *[NumSeats][]Tile) ([]CourtesyTrade, error) {
	if s == nil || s.Completed || s.Phase != PhaseCourtesy || !s.AllReady() {
		return nil, nil
	}

	var trades []CourtesyTrade
	nextHands := *hands
	for a := Seat(0); a < NumSeats; a++ {
		offerA := s.Seats[a].Courtesy
		if offerA == nil || offerA.Target <= a {
			continue // pairs are visited once, from the lower seat
		}
		b := offerA.Target
		offerB := s.Seats[b].Courtesy
		if offerB == nil || offerB.Target != a || len(offerA.Tiles) != len(offerB.Tiles) {
			continue
		}

		handA := RemoveTiles(nextHands[a], offerA.Tiles)
		handB := RemoveTiles(nextHands[b], offerB.Tiles)
		if len(handA) != len(nextHands[a])-len(offerA.Tiles) ||
			len(handB) != len(nextHands[b])-len(offerB.Tiles) {
			return nil, ErrSelectionLost
		}
		nextHands[a] = append(handA, offerB.Tiles...)
		nextHands[b] = append(handB, offerA.Tiles...)

		trades = append(trades, CourtesyTrade{
			Seats: [2]Seat{a, b},
			Tiles: [2][]Tile{offerA.Tiles, offerB.Tiles},
		})
	}

	*hands = nextHands
	s.complete()
	return trades, nil
}
