package board

// Ray directions. The first four grow toward higher square indices, so the
// nearest blocker along them is the lowest set bit; the last four shrink, so
// the nearest blocker is the highest set bit.
const (
	North = iota
	NorthEast
	East
	NorthWest
	South
	SouthWest
	West
	SouthEast
)

var rayStep = [8][2]int{
	North:     {0, 1},
	NorthEast: {1, 1},
	East:      {1, 0},
	NorthWest: {-1, 1},
	South:     {0, -1},
	SouthWest: {-1, -1},
	West:      {-1, 0},
	SouthEast: {1, -1},
}

var (
	straightDirs = [4]int{North, East, South, West}
	diagonalDirs = [4]int{NorthEast, NorthWest, SouthWest, SouthEast}
)

// Pre-computed attack tables, occupancy independent.
var (
	rays          [8][64]Bitboard
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
	pawnPushes    [2][64]Bitboard // [Color][Square] - single push targets

	betweenBB [64][64]Bitboard // Squares strictly between two aligned squares
)

func init() {
	initRays()
	initKnightAttacks()
	initKingAttacks()
	initPawnAttacks()
	initBetweenBB()
}

func initRays() {
	for sq := A1; sq <= H8; sq++ {
		for dir, step := range rayStep {
			var ray Bitboard
			f, r := sq.File()+step[0], sq.Rank()+step[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				ray |= SquareBB(NewSquare(f, r))
				f += step[0]
				r += step[1]
			}
			rays[dir][sq] = ray
		}
	}
}

func initKnightAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		attacks := Empty
		attacks |= (bb << 17) & NotFileA
		attacks |= (bb << 15) & NotFileH
		attacks |= (bb >> 17) & NotFileH
		attacks |= (bb >> 15) & NotFileA
		attacks |= (bb << 10) & NotFileAB
		attacks |= (bb << 6) & NotFileGH
		attacks |= (bb >> 10) & NotFileGH
		attacks |= (bb >> 6) & NotFileAB

		knightAttacks[sq] = attacks
	}
}

func initKingAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		attacks := bb.North() | bb.South()
		attacks |= bb.East() | bb.West()
		attacks |= bb.NorthEast() | bb.NorthWest()
		attacks |= bb.SouthEast() | bb.SouthWest()

		kingAttacks[sq] = attacks
	}
}

func initPawnAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()

		pawnPushes[White][sq] = bb.North()
		pawnPushes[Black][sq] = bb.South()
	}
}

func initBetweenBB() {
	for sq := A1; sq <= H8; sq++ {
		for dir := range rayStep {
			ray := rays[dir][sq]
			for r := ray; r != 0; {
				target := r.PopLSB()
				// Squares on the ray from sq that are not on the ray from target,
				// minus target itself.
				betweenBB[sq][target] = ray &^ rays[dir][target] &^ SquareBB(target)
			}
		}
	}
}

// rayAttacks returns the squares seen from sq along dir, stopping at (and
// including) the first occupied square.
func rayAttacks(dir int, sq Square, occupied Bitboard) Bitboard {
	attacks := rays[dir][sq]
	blockers := attacks & occupied
	if blockers == 0 {
		return attacks
	}
	var first Square
	if dir < South {
		first = blockers.LSB()
	} else {
		first = blockers.MSB()
	}
	return attacks ^ rays[dir][first]
}

// firstBlocker returns the nearest occupied square along dir, NoSquare if none.
func firstBlocker(dir int, sq Square, occupied Bitboard) Square {
	blockers := rays[dir][sq] & occupied
	if dir < South {
		return blockers.LSB()
	}
	return blockers.MSB()
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq captures on.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// PawnPushes returns the single push target for a pawn of color c on sq.
func PawnPushes(sq Square, c Color) Bitboard {
	return pawnPushes[c][sq]
}

// BishopAttacks returns diagonal sliding attacks from sq given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(NorthEast, sq, occupied) |
		rayAttacks(NorthWest, sq, occupied) |
		rayAttacks(SouthEast, sq, occupied) |
		rayAttacks(SouthWest, sq, occupied)
}

// RookAttacks returns straight sliding attacks from sq given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(North, sq, occupied) |
		rayAttacks(East, sq, occupied) |
		rayAttacks(South, sq, occupied) |
		rayAttacks(West, sq, occupied)
}

// QueenAttacks returns the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the squares strictly between two squares.
// Empty if they do not share a rank, file or diagonal.
func Between(sq1, sq2 Square) Bitboard {
	return betweenBB[sq1][sq2]
}

// AttackersByColor returns the pieces of color c attacking sq under the given occupancy.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.Pieces(c, Pawn)) |
		(knightAttacks[sq] & p.Pieces(c, Knight)) |
		(kingAttacks[sq] & p.Pieces(c, King)) |
		(BishopAttacks(sq, occupied) & (p.Pieces(c, Bishop) | p.Pieces(c, Queen))) |
		(RookAttacks(sq, occupied) & (p.Pieces(c, Rook) | p.Pieces(c, Queen)))
}

// IsSquareAttacked reports whether color c attacks sq in the current position.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.AttackersByColor(sq, c, p.Occupied()) != 0
}

// attackedSquares returns every square color c attacks under the given occupancy.
func (p *Position) attackedSquares(c Color, occupied Bitboard) Bitboard {
	var attacked Bitboard

	pawns := p.Pieces(c, Pawn)
	if c == White {
		attacked |= pawns.NorthEast() | pawns.NorthWest()
	} else {
		attacked |= pawns.SouthEast() | pawns.SouthWest()
	}

	for bb := p.Pieces(c, Knight); bb != 0; {
		attacked |= knightAttacks[bb.PopLSB()]
	}
	for bb := p.Pieces(c, Bishop) | p.Pieces(c, Queen); bb != 0; {
		attacked |= BishopAttacks(bb.PopLSB(), occupied)
	}
	for bb := p.Pieces(c, Rook) | p.Pieces(c, Queen); bb != 0; {
		attacked |= RookAttacks(bb.PopLSB(), occupied)
	}
	for bb := p.Pieces(c, King); bb != 0; {
		attacked |= kingAttacks[bb.PopLSB()]
	}

	return attacked
}
