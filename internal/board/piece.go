package board

// Color is the side owning a piece or to move.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PieceType numbers the six kinds of piece from 1; 0 is "none". The same
// 3-bit values are stored in the moved/captured fields of a Move.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Bishop
	Knight
	Rook
	Queen
	King
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Weight is the material value used by PositionWeight.
var Weight = [7]int{0, 100, 320, 300, 500, 900, 0}

// colorFlag marks black pieces in a Piece code.
const colorFlag = 8

// Piece is a board cell: pieceType | colorFlag for black, 0 for an empty square.
// Piece codes also index Position.bitboards directly; code 0 (white) and 8
// (black) hold the all-pieces masks.
type Piece uint8

const NoPiece Piece = 0

const (
	WhitePawn Piece = Piece(Pawn) + iota
	WhiteBishop
	WhiteKnight
	WhiteRook
	WhiteQueen
	WhiteKing
)

const (
	BlackPawn Piece = colorFlag + Piece(Pawn) + iota
	BlackBishop
	BlackKnight
	BlackRook
	BlackQueen
	BlackKing
)

// NewPiece combines a type and a color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType {
		return NoPiece
	}
	return Piece(pt) | Piece(c)<<3
}

// Type returns the piece type, NoPieceType for an empty cell.
func (p Piece) Type() PieceType {
	return PieceType(p & 7)
}

// Color returns the owner. Meaningless for NoPiece.
func (p Piece) Color() Color {
	return Color(p >> 3 & 1)
}

const pieceChars = " PBNRQK  pbnrqk"

// String returns the FEN character: uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p == NoPiece || int(p) >= len(pieceChars) {
		return " "
	}
	return string(pieceChars[p])
}

// PieceFromChar converts a FEN character to a Piece, NoPiece if unknown.
func PieceFromChar(c byte) Piece {
	if c == ' ' {
		return NoPiece
	}
	for i := 0; i < len(pieceChars); i++ {
		if pieceChars[i] == c {
			return Piece(i)
		}
	}
	return NoPiece
}
