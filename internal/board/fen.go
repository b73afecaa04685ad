package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrMalformedFEN is wrapped by every FEN parsing failure.
var ErrMalformedFEN = errors.New("malformed FEN")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFEN, fmt.Sprintf(format, args...))
}

// ParseFEN parses a six-field FEN string into a Position hashed with DefaultKeys.
func ParseFEN(fen string) (*Position, error) {
	return ParseFENWithKeys(fen, DefaultKeys())
}

// ParseFENWithKeys parses a six-field FEN string into a Position hashed with keys.
func ParseFENWithKeys(fen string, keys *Keys) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, malformed("need 6 fields, got %d", len(parts))
	}

	pos := newEmptyPosition(keys)

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.side = White
	case "b":
		pos.side = Black
	default:
		return nil, malformed("invalid side to move %q", parts[1])
	}

	cr, err := parseCastlingRights(parts[2])
	if err != nil {
		return nil, err
	}

	ep := NoSquare
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, malformed("invalid en passant square %q", parts[3])
		}
		if err := checkEnPassant(pos, sq); err != nil {
			return nil, err
		}
		ep = sq
	}
	pos.csep = packCsep(cr, ep)

	hmc, err := strconv.Atoi(parts[4])
	if err != nil || hmc < 0 {
		return nil, malformed("invalid half-move clock %q", parts[4])
	}
	pos.halfmove = hmc

	fmn, err := strconv.Atoi(parts[5])
	if err != nil || fmn < 1 {
		return nil, malformed("invalid full-move number %q", parts[5])
	}
	pos.fullmove = fmn

	for _, c := range [2]Color{White, Black} {
		if n := pos.Pieces(c, King).PopCount(); n != 1 {
			return nil, malformed("%s has %d kings", c, n)
		}
	}

	pos.hash = pos.ComputeHash()
	return pos, nil
}

// parsePiecePlacement parses the piece placement field: 8 ranks of exactly 8 files.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return malformed("need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0
		prevDigit := false

		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				if prevDigit {
					return malformed("rank %d has consecutive digits", rank+1)
				}
				prevDigit = true
				file += int(c - '0')
				if file > 8 {
					return malformed("rank %d has more than 8 files", rank+1)
				}
				continue
			}
			prevDigit = false
			pc := PieceFromChar(c)
			if pc == NoPiece {
				return malformed("invalid piece character %q", c)
			}
			if file > 7 {
				return malformed("rank %d has more than 8 files", rank+1)
			}
			pos.setPiece(pc, NewSquare(file, rank))
			file++
		}

		if file != 8 {
			return malformed("rank %d has %d files", rank+1, file)
		}
	}

	return nil
}

// checkEnPassant accepts ep only as the square just crossed by an enemy
// double push: on the mover's sixth rank, empty, with the pushed pawn
// behind it.
func checkEnPassant(pos *Position, ep Square) error {
	us := pos.side
	wantRank := 5
	if us == Black {
		wantRank = 2
	}
	if ep.Rank() != wantRank {
		return malformed("en passant square %s does not fit %s to move", ep, us)
	}
	if pos.PieceAt(ep) != NoPiece {
		return malformed("en passant square %s is occupied", ep)
	}
	if pos.PieceAt(epVictim(ep, us)) != NewPiece(Pawn, us.Other()) {
		return malformed("no pawn behind en passant square %s", ep)
	}
	return nil
}

// parseCastlingRights parses "-" or a subset of "KQkq".
func parseCastlingRights(castling string) (CastlingRights, error) {
	if castling == "-" {
		return NoCastling, nil
	}

	var cr CastlingRights
	for i := 0; i < len(castling); i++ {
		var bit CastlingRights
		switch castling[i] {
		case 'K':
			bit = WhiteKingSideCastle
		case 'Q':
			bit = WhiteQueenSideCastle
		case 'k':
			bit = BlackKingSideCastle
		case 'q':
			bit = BlackQueenSideCastle
		default:
			return 0, malformed("invalid castling character %q", castling[i])
		}
		if cr&bit != 0 {
			return 0, malformed("repeated castling character %q", castling[i])
		}
		cr |= bit
	}
	return cr, nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.side == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights().String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant().String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.halfmove))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.fullmove))

	return sb.String()
}
