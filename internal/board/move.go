package board

import (
	"errors"
	"fmt"
)

// Move packs a move into 21 bits:
// bits 0-5:   from square
// bits 6-11:  to square
// bits 12-14: moved piece type
// bits 15-17: captured piece type (0 if none, Pawn for en passant)
// bits 18-19: promotion selector (0=Bishop, 1=Knight, 2=Rook, 3=Queen), read only on promotion
// bit 20:     color of the mover (1 = white)
// The zero value is the null move.
type Move uint32

// NoMove represents an invalid or null move.
const NoMove Move = 0

// ErrIllegalMove is returned when a move string names no legal move.
var ErrIllegalMove = errors.New("illegal move")

// NewMove encodes a move. promo is ignored unless it is Bishop, Knight, Rook or Queen.
func NewMove(from, to Square, moved, captured, promo PieceType, c Color) Move {
	m := Move(from) | Move(to)<<6 | Move(moved)<<12 | Move(captured)<<15
	if promo >= Bishop && promo <= Queen {
		m |= Move(promo-Bishop) << 18
	}
	if c == White {
		m |= 1 << 20
	}
	return m
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square(m >> 6 & 0x3F)
}

// Piece returns the type of the moving piece.
func (m Move) Piece() PieceType {
	return PieceType(m >> 12 & 7)
}

// Captured returns the type of the captured piece, NoPieceType for quiet moves.
func (m Move) Captured() PieceType {
	return PieceType(m >> 15 & 7)
}

// Promotion returns the piece a pawn becomes. Only meaningful when IsPromotion.
func (m Move) Promotion() PieceType {
	return PieceType(m>>18&3) + Bishop
}

// Color returns the side that made the move.
func (m Move) Color() Color {
	if m>>20&1 == 1 {
		return White
	}
	return Black
}

// IsPromotion reports whether a pawn reaches the last rank.
func (m Move) IsPromotion() bool {
	r := m.To().Rank()
	return m.Piece() == Pawn && (r == 0 || r == 7)
}

// IsCastling reports whether this is a king's two-square castling step.
func (m Move) IsCastling() bool {
	d := int(m.To()) - int(m.From())
	return m.Piece() == King && (d == 2 || d == -2)
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured() != NoPieceType
}

// IsIrreversible reports whether the move is a pawn move or a capture.
func (m Move) IsIrreversible() bool {
	return m.Piece() == Pawn || m.IsCapture()
}

// String returns coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("bnrq"[m>>18&3])
	}
	return s
}

// ParseMove resolves coordinate notation against the legal moves of pos.
// A missing promotion letter selects a queen.
func ParseMove(pos *Position, s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	promo := Queen
	if len(s) == 5 {
		switch s[4] {
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: invalid promotion piece %q", ErrIllegalMove, s[4])
		}
	}

	m := pos.GenerateMoves().Find(from, to, promo)
	if m == NoMove {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	}
	return m, nil
}
