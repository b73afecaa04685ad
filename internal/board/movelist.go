package board

// MoveList is the legal move set of one position plus an origin/destination
// index for constant-time membership queries.
type MoveList struct {
	moves [256]Move
	count int

	origins Bitboard
	dests   [64]Bitboard

	// KingAttackers counts the pieces checking the side to move.
	KingAttackers int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move and indexes its squares.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
	ml.origins |= SquareBB(m.From())
	ml.dests[m.From()] |= SquareBB(m.To())
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// ValidOrigin reports whether some legal move starts on sq.
func (ml *MoveList) ValidOrigin(sq Square) bool {
	return sq < NoSquare && ml.origins.IsSet(sq)
}

// ValidDestination reports whether some legal move goes from from to to.
func (ml *MoveList) ValidDestination(from, to Square) bool {
	return from < NoSquare && to < NoSquare && ml.dests[from].IsSet(to)
}

// Destinations returns the legal targets of the piece on from.
func (ml *MoveList) Destinations(from Square) Bitboard {
	if from >= NoSquare {
		return Empty
	}
	return ml.dests[from]
}

// Contains reports whether m is one of the listed moves.
func (ml *MoveList) Contains(m Move) bool {
	if m == NoMove || !ml.ValidDestination(m.From(), m.To()) {
		return false
	}
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Find returns the listed move from -> to, choosing promo among promotions.
// NoMove if there is none.
func (ml *MoveList) Find(from, to Square, promo PieceType) Move {
	if !ml.ValidDestination(from, to) {
		return NoMove
	}
	for i := 0; i < ml.count; i++ {
		m := ml.moves[i]
		if m.From() != from || m.To() != to {
			continue
		}
		if !m.IsPromotion() || m.Promotion() == promo {
			return m
		}
	}
	return NoMove
}

// IsCheckmate reports no legal moves while in check.
func (ml *MoveList) IsCheckmate() bool {
	return ml.count == 0 && ml.KingAttackers > 0
}

// IsStalemate reports no legal moves while not in check.
func (ml *MoveList) IsStalemate() bool {
	return ml.count == 0 && ml.KingAttackers == 0
}
