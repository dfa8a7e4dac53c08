package domain

// Step returns the seat n places away from seat in the current direction.
func (g *Game) Step(seat, n int) int {
	count := len(g.Players)
	if count == 0 {
		return 0
	}
	return ((seat+n*g.Direction)%count + count) % count
}

// Advance hands the turn to the next seat.
func (g *Game) Advance() {
	g.CurrentSeat = g.Step(g.CurrentSeat, 1)
}
