package domain

// Phase represents the lifecycle stage of a mahjong table.
type Phase string

const (
	// PhaseLobby is the pre-game state where players can join.
	PhaseLobby Phase = "lobby"
	// PhaseCharleston is the tile-passing ritual between the deal and play.
	PhaseCharleston Phase = "charleston"
	// PhasePlaying is the active game state after the Charleston completes.
	PhasePlaying Phase = "playing"
	// PhaseEnded is the state after a game concludes.
	PhaseEnded Phase = "ended"
)

// Player holds the domain state for a player at the table.
type Player struct {
	UserID string
	Seat   Seat
	Hand   []Tile
}

// Game captures the authoritative state for one table. The Charleston
// session is exclusively owned by the game record; entry points thread it
// through by value-snapshot, never through ambient globals.
type Game struct {
	Phase      Phase
	Players    map[string]*Player
	Seats      [NumSeats]string // seat index -> userID
	Charleston *Session
	Wall       []Tile // undealt remainder, consumed by the play phase
}

// Clone returns a deep copy of the game so a transition can be computed
// immutably and published with a single swap.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	out := &Game{
		Phase:      g.Phase,
		Players:    make(map[string]*Player, len(g.Players)),
		Seats:      g.Seats,
		Charleston: g.Charleston.Clone(),
		Wall:       append([]Tile(nil), g.Wall...),
	}
	for id, p := range g.Players {
		out.Players[id] = &Player{
			UserID: p.UserID,
			Seat:   p.Seat,
			Hand:   append([]Tile(nil), p.Hand...),
		}
	}
	return out
}

// PlayerAtSeat returns the player occupying a seat, or nil when empty.
func (g *Game) PlayerAtSeat(seat Seat) *Player {
	if !seat.Valid() {
		return nil
	}
	userID := g.Seats[seat]
	if userID == "" {
		return nil
	}
	return g.Players[userID]
}

// Hands assembles the four hands in seat order for the resolver. Seats
// without a player hold nil hands; the Charleston requires a full table, so
// callers validate occupancy before resolving.
func (g *Game) Hands() [NumSeats][]Tile {
	var hands [NumSeats][]Tile
	for seat := Seat(0); seat < NumSeats; seat++ {
		if p := g.PlayerAtSeat(seat); p != nil {
			hands[seat] = p.Hand
		}
	}
	return hands
}

// SetHands writes resolved hands back onto the seated players.
func (g *Game) SetHands(hands [NumSeats][]Tile) {
	for seat := Seat(0); seat < NumSeats; seat++ {
		if p := g.PlayerAtSeat(seat); p != nil {
			p.Hand = hands[seat]
		}
	}
}

// TotalTilesInHands sums the four hand sizes; the Charleston conserves it.
func (g *Game) TotalTilesInHands() int {
	total := 0
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	return total
}
