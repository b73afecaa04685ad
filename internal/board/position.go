package board

import (
	"fmt"
	"strings"
)

// CastlingRights is the 4-bit castling state: K=8, Q=4, k=2, q=1.
type CastlingRights uint8

const (
	BlackQueenSideCastle CastlingRights = 1 << iota // q
	BlackKingSideCastle                             // k
	WhiteQueenSideCastle                            // Q
	WhiteKingSideCastle                             // K
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// csep layout: castling rights in bits 7-10 (q=128, k=256, Q=512, K=1024),
// en passant target square in bits 0-6 with 64 meaning none.
const (
	csepEPMask uint16 = 0x7F
	csepNoEP   uint16 = uint16(NoSquare)
)

func castlingOf(csep uint16) CastlingRights {
	return CastlingRights(csep >> 7 & 0xF)
}

func epOf(csep uint16) Square {
	return Square(csep & csepEPMask)
}

func packCsep(cr CastlingRights, ep Square) uint16 {
	return uint16(cr)<<7 | uint16(ep)
}

// castleClear[sq] holds the castling rights lost when a piece leaves or lands on sq.
var castleClear [64]CastlingRights

func init() {
	castleClear[A1] = WhiteQueenSideCastle
	castleClear[H1] = WhiteKingSideCastle
	castleClear[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	castleClear[A8] = BlackQueenSideCastle
	castleClear[H8] = BlackKingSideCastle
	castleClear[E8] = BlackKingSideCastle | BlackQueenSideCastle
}

// undo is one history record: enough to reverse a MakeMove exactly.
type undo struct {
	move     Move
	moved    Piece
	captured Piece
	csep     uint16
	hash     uint64
	halfmove int
}

// Position is a chess position. The mailbox and the bitboards always agree:
// bitboards[pc] has bit sq set exactly when board[sq] == pc, and
// bitboards[c<<3] is the union of the color's six piece sets.
type Position struct {
	board     [64]Piece
	bitboards [16]Bitboard

	side     Color
	csep     uint16
	halfmove int
	fullmove int

	hash    uint64
	keys    *Keys
	history []undo
}

// NewPosition returns the standard starting position hashed with DefaultKeys.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

func newEmptyPosition(keys *Keys) *Position {
	if keys == nil {
		keys = DefaultKeys()
	}
	return &Position{
		csep:     csepNoEP,
		fullmove: 1,
		keys:     keys,
	}
}

// Copy returns a deep copy, history included.
func (p *Position) Copy() *Position {
	cp := *p
	cp.history = append([]undo(nil), p.history...)
	return &cp
}

// Equal reports whether two positions agree on every tracked field,
// including hash and history length.
func (p *Position) Equal(o *Position) bool {
	return p.board == o.board &&
		p.bitboards == o.bitboards &&
		p.side == o.side &&
		p.csep == o.csep &&
		p.halfmove == o.halfmove &&
		p.fullmove == o.fullmove &&
		p.hash == o.hash &&
		len(p.history) == len(o.history)
}

// PieceAt returns the piece on sq, NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.board[sq]
}

// Pieces returns the squares holding pieces of type pt and color c.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard {
	return p.bitboards[NewPiece(pt, c)]
}

// ColorBB returns all squares occupied by color c.
func (p *Position) ColorBB(c Color) Bitboard {
	return p.bitboards[Piece(c)<<3]
}

// Occupied returns all occupied squares.
func (p *Position) Occupied() Bitboard {
	return p.bitboards[0] | p.bitboards[colorFlag]
}

// KingSquare returns the king square of color c.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces(c, King).LSB()
}

func (p *Position) SideToMove() Color              { return p.side }
func (p *Position) CastlingRights() CastlingRights { return castlingOf(p.csep) }
func (p *Position) EnPassant() Square              { return epOf(p.csep) }
func (p *Position) HalfmoveClock() int             { return p.halfmove }
func (p *Position) FullmoveNumber() int            { return p.fullmove }
func (p *Position) Hash() uint64                   { return p.hash }
func (p *Position) Keys() *Keys                    { return p.keys }

// Ply returns the number of moves applied since the position was loaded.
func (p *Position) Ply() int {
	return len(p.history)
}

// LastMove returns the most recently applied move, NoMove if none.
func (p *Position) LastMove() Move {
	if len(p.history) == 0 {
		return NoMove
	}
	return p.history[len(p.history)-1].move
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsSquareAttacked(p.KingSquare(p.side), p.side.Other())
}

// setPiece places pc on an empty square (does not update hash).
func (p *Position) setPiece(pc Piece, sq Square) {
	bb := SquareBB(sq)
	p.board[sq] = pc
	p.bitboards[pc] |= bb
	p.bitboards[pc&colorFlag] |= bb
}

// removePiece clears sq and returns what stood there (does not update hash).
func (p *Position) removePiece(sq Square) Piece {
	pc := p.board[sq]
	if pc == NoPiece {
		return NoPiece
	}
	bb := SquareBB(sq)
	p.board[sq] = NoPiece
	p.bitboards[pc] &^= bb
	p.bitboards[pc&colorFlag] &^= bb
	return pc
}

// movePiece moves whatever stands on from to an empty square to (does not update hash).
func (p *Position) movePiece(from, to Square) {
	p.setPiece(p.removePiece(from), to)
}

// MakeMove applies m, which is assumed pseudo-legal for the side to move.
// Quiet moves, captures, double pushes, en passant, promotions and castling
// each update the mailbox, bitboards, csep and hash incrementally.
func (p *Position) MakeMove(m Move) {
	k := p.keys
	us := p.side
	from, to := m.From(), m.To()
	moved := p.board[from]
	pt := moved.Type()
	ep := epOf(p.csep)

	u := undo{
		move:     m,
		moved:    moved,
		csep:     p.csep,
		hash:     p.hash,
		halfmove: p.halfmove,
	}

	p.hash ^= k.csepKey(p.csep)

	if pt == Pawn && to == ep {
		capSq := epVictim(to, us)
		u.captured = p.removePiece(capSq)
		p.hash ^= k.piece[u.captured][capSq]
	} else if captured := p.removePiece(to); captured != NoPiece {
		u.captured = captured
		p.hash ^= k.piece[captured][to]
	}

	p.movePiece(from, to)
	p.hash ^= k.piece[moved][from] ^ k.piece[moved][to]

	switch {
	case pt == Pawn && (to.Rank() == 7 || to.Rank() == 0):
		promo := NewPiece(m.Promotion(), us)
		p.removePiece(to)
		p.setPiece(promo, to)
		p.hash ^= k.piece[moved][to] ^ k.piece[promo][to]
	case pt == King && (int(to)-int(from) == 2 || int(from)-int(to) == 2):
		rookFrom, rookTo := castleRookSquares(to)
		rook := p.board[rookFrom]
		p.movePiece(rookFrom, rookTo)
		p.hash ^= k.piece[rook][rookFrom] ^ k.piece[rook][rookTo]
	}

	cr := castlingOf(p.csep) &^ (castleClear[from] | castleClear[to])
	newEP := NoSquare
	if pt == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16) {
		newEP = Square((int(from) + int(to)) / 2)
	}
	p.csep = packCsep(cr, newEP)
	p.hash ^= k.csepKey(p.csep)

	if pt == Pawn || u.captured != NoPiece {
		p.halfmove = 0
	} else {
		p.halfmove++
	}
	if us == Black {
		p.fullmove++
	}

	p.side = us.Other()
	p.hash ^= k.sideToMove

	p.history = append(p.history, u)
}

// UnmakeMove reverses the most recent MakeMove. With an empty history it does nothing.
func (p *Position) UnmakeMove() {
	n := len(p.history)
	if n == 0 {
		return
	}
	u := p.history[n-1]
	p.history = p.history[:n-1]

	us := p.side.Other()
	from, to := u.move.From(), u.move.To()
	pt := u.moved.Type()

	p.removePiece(to)
	p.setPiece(u.moved, from)

	if pt == King && (int(to)-int(from) == 2 || int(from)-int(to) == 2) {
		rookFrom, rookTo := castleRookSquares(to)
		p.movePiece(rookTo, rookFrom)
	}

	if u.captured != NoPiece {
		if pt == Pawn && to == epOf(u.csep) {
			p.setPiece(u.captured, epVictim(to, us))
		} else {
			p.setPiece(u.captured, to)
		}
	}

	p.side = us
	p.csep = u.csep
	p.hash = u.hash
	p.halfmove = u.halfmove
	if us == Black {
		p.fullmove--
	}
}

// epVictim returns the square of the pawn taken by an en passant capture onto to.
func epVictim(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// castleRookSquares maps the king's castling destination to the rook's path.
func castleRookSquares(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// ComputeHash computes the Zobrist hash from scratch. It always equals Hash()
// for a consistent position.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for sq := A1; sq <= H8; sq++ {
		if pc := p.board[sq]; pc != NoPiece {
			hash ^= p.keys.piece[pc][sq]
		}
	}
	if p.side == Black {
		hash ^= p.keys.sideToMove
	}
	return hash ^ p.keys.csepKey(p.csep)
}

// PositionWeight sums the material of both sides
// (pawn 100, bishop 320, knight 300, rook 500, queen 900).
func (p *Position) PositionWeight() int {
	weight := 0
	for pt := Pawn; pt < King; pt++ {
		weight += (p.Pieces(White, pt).PopCount() + p.Pieces(Black, pt).PopCount()) * Weight[pt]
	}
	return weight
}

// InsufficientMaterial reports whether neither side can force mate: bare
// kings, a single minor against a bare king, minor against minor, or two
// knights against a bare king.
func (p *Position) InsufficientMaterial() bool {
	if p.Pieces(White, Pawn)|p.Pieces(Black, Pawn) != 0 {
		return false
	}

	count := func(c Color, pt PieceType) int { return p.Pieces(c, pt).PopCount() }
	wBishops, bBishops := count(White, Bishop), count(Black, Bishop)
	wKnights, bKnights := count(White, Knight), count(Black, Knight)
	wPieces := wBishops + wKnights + count(White, Rook) + count(White, Queen)
	bPieces := bBishops + bKnights + count(Black, Rook) + count(Black, Queen)

	switch {
	case wPieces+bPieces == 0:
		return true
	case wPieces == 1 && bPieces == 0:
		return wBishops+wKnights == 1
	case wPieces == 0 && bPieces == 1:
		return bBishops+bKnights == 1
	case wPieces == 1 && bPieces == 1:
		return wBishops+wKnights == 1 && bBishops+bKnights == 1
	case wPieces+bPieces == 2:
		// Two knights cannot force mate against a lone king.
		return wKnights == 2 || bKnights == 2
	}
	return false
}

// String renders the board with the state fields, rank 8 first.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			if pc := p.board[NewSquare(file, rank)]; pc == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(pc.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.side)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights())
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant())
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.halfmove)
	fmt.Fprintf(&sb, "Full move: %d\n", p.fullmove)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.hash)
	return sb.String()
}
