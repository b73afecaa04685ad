package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for _, m := range moves.Slice() {
		p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove()
	}
	return nodes
}

// Divide returns the perft count below each root move, keyed by coordinate notation.
func Divide(p *Position, depth int) map[string]uint64 {
	result := make(map[string]uint64)
	if depth < 1 {
		return result
	}
	for _, m := range p.GenerateMoves().Slice() {
		p.MakeMove(m)
		result[m.String()] = Perft(p, depth-1)
		p.UnmakeMove()
	}
	return result
}
