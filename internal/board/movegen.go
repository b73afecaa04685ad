package board

// GenerateMoves returns the legal moves for the side to move.
//
// Squares attacked by the opponent are computed with our king lifted off the
// board so that sliders x-ray through it. With two checkers only king moves
// are generated; with one, other pieces are restricted to capturing the
// checker or blocking its line. Pinned pieces and en passant captures are
// verified by make/unmake; every other move is legal by construction.
// The position is left unchanged.
func (p *Position) GenerateMoves() *MoveList {
	ml := NewMoveList()

	us := p.side
	them := us.Other()
	ksq := p.KingSquare(us)
	occupied := p.Occupied()

	attacked := p.attackedSquares(them, occupied&^SquareBB(ksq))
	checkers := p.AttackersByColor(ksq, them, occupied)
	ml.KingAttackers = checkers.PopCount()

	if ml.KingAttackers < 2 {
		valid := Universe
		if ml.KingAttackers == 1 {
			valid = checkers | Between(checkers.LSB(), ksq)
		}
		pinned := p.pinnedPieces(us, ksq)

		p.generatePawnMoves(ml, us, valid, pinned, checkers)
		for _, pt := range [4]PieceType{Bishop, Knight, Rook, Queen} {
			p.generatePieceMoves(ml, us, pt, valid, pinned)
		}
	}

	p.generateKingMoves(ml, us, ksq, attacked)
	if ml.KingAttackers == 0 {
		p.generateCastlingMoves(ml, us, attacked)
	}

	return ml
}

// pinnedPieces scans outward from the king in all eight directions and
// returns the friendly pieces that are the only blocker between the king and
// an enemy slider moving along that line.
func (p *Position) pinnedPieces(us Color, ksq Square) Bitboard {
	occupied := p.Occupied()
	var pinned Bitboard

	for dir := North; dir <= SouthEast; dir++ {
		first := firstBlocker(dir, ksq, occupied)
		if first == NoSquare || p.board[first].Color() != us {
			continue
		}
		second := firstBlocker(dir, first, occupied)
		if second == NoSquare {
			continue
		}
		pc := p.board[second]
		if pc.Color() == us {
			continue
		}
		switch pc.Type() {
		case Queen:
			pinned |= SquareBB(first)
		case Rook:
			if isStraight(dir) {
				pinned |= SquareBB(first)
			}
		case Bishop:
			if !isStraight(dir) {
				pinned |= SquareBB(first)
			}
		}
	}

	return pinned
}

func isStraight(dir int) bool {
	return dir == North || dir == East || dir == South || dir == West
}

// isLegal plays m and checks the mover's king is not left attacked.
func (p *Position) isLegal(m Move) bool {
	us := p.side
	p.MakeMove(m)
	ok := !p.IsSquareAttacked(p.KingSquare(us), us.Other())
	p.UnmakeMove()
	return ok
}

// addChecked adds m, simulating it first when the moving piece is pinned.
func (p *Position) addChecked(ml *MoveList, m Move, pinned Bitboard) {
	if pinned.IsSet(m.From()) && !p.isLegal(m) {
		return
	}
	ml.Add(m)
}

// generatePawnMoves generates pushes, double pushes, captures, promotions
// and en passant for every pawn of color us.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, valid, pinned, checkers Bitboard) {
	occupied := p.Occupied()
	enemies := p.ColorBB(us.Other())
	ep := p.EnPassant()

	startRank := 1
	if us == Black {
		startRank = 6
	}

	for pawns := p.Pieces(us, Pawn); pawns != 0; {
		from := pawns.PopLSB()

		targets := pawnPushes[us][from] &^ occupied
		if targets != 0 && from.Rank() == startRank {
			targets |= pawnPushes[us][targets.LSB()] &^ occupied
		}
		targets |= pawnAttacks[us][from] & enemies
		targets &= valid

		for targets != 0 {
			to := targets.PopLSB()
			captured := p.board[to].Type()
			if to.Rank() == 0 || to.Rank() == 7 {
				for _, promo := range [4]PieceType{Queen, Rook, Bishop, Knight} {
					p.addChecked(ml, NewMove(from, to, Pawn, captured, promo, us), pinned)
				}
				continue
			}
			p.addChecked(ml, NewMove(from, to, Pawn, captured, NoPieceType, us), pinned)
		}

		// Removing the captured pawn can open a line the pin scan never saw,
		// so en passant is always simulated.
		if ep != NoSquare && pawnAttacks[us][from].IsSet(ep) {
			if valid.IsSet(ep) || checkers.IsSet(epVictim(ep, us)) {
				m := NewMove(from, ep, Pawn, Pawn, NoPieceType, us)
				if p.isLegal(m) {
					ml.Add(m)
				}
			}
		}
	}
}

// generatePieceMoves generates moves for knights and sliders of type pt.
func (p *Position) generatePieceMoves(ml *MoveList, us Color, pt PieceType, valid, pinned Bitboard) {
	occupied := p.Occupied()
	own := p.ColorBB(us)

	for pieces := p.Pieces(us, pt); pieces != 0; {
		from := pieces.PopLSB()

		var targets Bitboard
		switch pt {
		case Knight:
			targets = knightAttacks[from]
		case Bishop:
			targets = BishopAttacks(from, occupied)
		case Rook:
			targets = RookAttacks(from, occupied)
		case Queen:
			targets = QueenAttacks(from, occupied)
		}
		targets &^= own
		targets &= valid

		for targets != 0 {
			to := targets.PopLSB()
			p.addChecked(ml, NewMove(from, to, pt, p.board[to].Type(), NoPieceType, us), pinned)
		}
	}
}

// generateKingMoves generates king steps onto squares the opponent does not attack.
func (p *Position) generateKingMoves(ml *MoveList, us Color, ksq Square, attacked Bitboard) {
	targets := kingAttacks[ksq] &^ p.ColorBB(us) &^ attacked
	for targets != 0 {
		to := targets.PopLSB()
		ml.Add(NewMove(ksq, to, King, p.board[to].Type(), NoPieceType, us))
	}
}

type castleRule struct {
	right   CastlingRights
	king    Square
	to      Square
	rook    Square
	empty   Bitboard // squares between king and rook
	transit Bitboard // squares the king crosses or lands on
}

var castleRules = [2][2]castleRule{
	White: {
		{WhiteKingSideCastle, E1, G1, H1, SquareBB(F1) | SquareBB(G1), SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSideCastle, E1, C1, A1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(C1) | SquareBB(D1)},
	},
	Black: {
		{BlackKingSideCastle, E8, G8, H8, SquareBB(F8) | SquareBB(G8), SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSideCastle, E8, C8, A8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(C8) | SquareBB(D8)},
	},
}

// generateCastlingMoves requires the right, king and rook on their home
// squares, an empty path and no attacked square under the king's path. The
// caller guarantees the king is not in check.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color, attacked Bitboard) {
	rights := p.CastlingRights()
	occupied := p.Occupied()
	rook := NewPiece(Rook, us)
	king := NewPiece(King, us)

	for _, r := range castleRules[us] {
		if rights&r.right == 0 || p.board[r.king] != king || p.board[r.rook] != rook {
			continue
		}
		if occupied&r.empty != 0 || attacked&r.transit != 0 {
			continue
		}
		ml.Add(NewMove(r.king, r.to, King, NoPieceType, NoPieceType, us))
	}
}
