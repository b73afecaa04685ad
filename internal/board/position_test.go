package board

import (
	"math/rand"
	"testing"
)

var walkFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
}

// TestMakeUnmakeInverse applies every legal move of every position reached
// on a random walk and checks unmake restores the position exactly.
func TestMakeUnmakeInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, fen := range walkFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}

		for ply := 0; ply < 80; ply++ {
			moves := pos.GenerateMoves()
			if moves.Len() == 0 {
				break
			}

			before := pos.Copy()
			for _, m := range moves.Slice() {
				pos.MakeMove(m)
				if pos.Hash() != pos.ComputeHash() {
					t.Fatalf("%s: hash drift after %v", before.ToFEN(), m)
				}
				pos.UnmakeMove()
				if !pos.Equal(before) {
					t.Fatalf("%s: make/unmake %v not inverse:\n%s", before.ToFEN(), m, pos)
				}
			}

			pos.MakeMove(moves.Get(rng.Intn(moves.Len())))
		}
	}
}

// TestNoKingExposure checks no generated move leaves the mover in check.
func TestNoKingExposure(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for _, fen := range walkFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for ply := 0; ply < 120; ply++ {
			moves := pos.GenerateMoves()
			if moves.Len() == 0 {
				break
			}
			us := pos.SideToMove()
			for _, m := range moves.Slice() {
				pos.MakeMove(m)
				if pos.IsSquareAttacked(pos.KingSquare(us), us.Other()) {
					t.Errorf("%v leaves %s king attacked", m, us)
				}
				pos.UnmakeMove()
			}
			pos.MakeMove(moves.Get(rng.Intn(moves.Len())))
		}
	}
}

func TestUnmakeOnEmptyHistory(t *testing.T) {
	pos := NewPosition()
	before := pos.Copy()
	pos.UnmakeMove()
	if !pos.Equal(before) {
		t.Error("UnmakeMove with empty history changed the position")
	}
}

func TestBoardAndBitboardsAgree(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"e1g1", "h3g2", "a2a4", "b4a3", "f3f6", "g2f1q"} {
		m, err := ParseMove(pos, s)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		pos.MakeMove(m)
	}

	var union [2]Bitboard
	for sq := A1; sq <= H8; sq++ {
		pc := pos.PieceAt(sq)
		if pc == NoPiece {
			if pos.Occupied().IsSet(sq) {
				t.Errorf("%s empty in mailbox but occupied", sq)
			}
			continue
		}
		if !pos.Pieces(pc.Color(), pc.Type()).IsSet(sq) {
			t.Errorf("%s holds %s but its bitboard disagrees", sq, pc)
		}
		union[pc.Color()] |= SquareBB(sq)
	}
	for _, c := range []Color{White, Black} {
		if union[c] != pos.ColorBB(c) {
			t.Errorf("%s color mask mismatch", c)
		}
	}
}

func TestMakeMoveSpecialCases(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		moves []string
		want  string
	}{
		{
			name:  "double push sets en passant",
			fen:   StartFEN,
			moves: []string{"e2e4"},
			want:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		},
		{
			name:  "en passant removes passed pawn",
			fen:   "rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
			moves: []string{"e5d6"},
			want:  "rnbqkbnr/ppp1pppp/3P4/8/8/8/PPPP1PPP/RNBQKBNR b KQkq - 0 3",
		},
		{
			name:  "castling moves rook and clears rights",
			fen:   "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 3 10",
			moves: []string{"e1c1"},
			want:  "r3k2r/8/8/8/8/8/8/2KR3R b kq - 4 10",
		},
		{
			name:  "capturing a rook clears its right",
			fen:   "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			moves: []string{"a1a8"},
			want:  "R3k2r/8/8/8/8/8/8/4K2R b Kk - 0 1",
		},
		{
			name:  "promotion with capture",
			fen:   "1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1",
			moves: []string{"a7b8n"},
			want:  "1N2k3/8/8/8/8/8/8/4K3 b - - 0 1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			for _, s := range tc.moves {
				m, err := ParseMove(pos, s)
				if err != nil {
					t.Fatalf("%s: %v", s, err)
				}
				pos.MakeMove(m)
			}
			if got := pos.ToFEN(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if pos.Hash() != pos.ComputeHash() {
				t.Error("incremental hash differs from ComputeHash")
			}
		})
	}
}

func TestPositionWeight(t *testing.T) {
	if got := NewPosition().PositionWeight(); got != 7880 {
		t.Errorf("start weight = %d, want 7880", got)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want bool
	}{
		{"bare kings", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},
		{"king and bishop", "4k3/8/8/8/8/8/8/2B1K3 w - - 0 1", true},
		{"king and knight", "4k3/8/8/8/8/8/8/1N2K3 w - - 0 1", true},
		{"black knight", "4k3/8/5n2/8/8/8/8/4K3 w - - 0 1", true},
		{"minor vs minor", "4k3/8/5n2/8/8/8/8/2B1K3 w - - 0 1", true},
		{"two knights", "4k3/8/8/8/8/8/8/1N2K1N1 w - - 0 1", true},
		{"king and rook", "4k3/8/8/8/8/8/8/R3K3 w - - 0 1", false},
		{"pawn", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false},
		{"two bishops", "4k3/8/8/8/8/8/8/2B1KB2 w - - 0 1", false},
		{"knight and bishop", "4k3/8/8/8/8/8/8/1NB1K3 w - - 0 1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := pos.InsufficientMaterial(); got != tc.want {
				t.Errorf("InsufficientMaterial() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKeysDeterministic(t *testing.T) {
	a, b := NewKeys(DefaultSeed), NewKeys(DefaultSeed)
	if *a != *b {
		t.Fatal("same seed produced different key tables")
	}
	if DefaultKeys() != DefaultKeys() {
		t.Fatal("DefaultKeys is not a singleton")
	}

	other := NewKeys(1237)
	pos, err := ParseFENWithKeys(StartFEN, other)
	if err != nil {
		t.Fatal(err)
	}
	if pos.Hash() == NewPosition().Hash() {
		t.Error("different key tables produced the same start hash")
	}
	if pos.Hash() != pos.ComputeHash() {
		t.Error("hash mismatch with custom keys")
	}
}

func TestMoveEncoding(t *testing.T) {
	m := NewMove(E7, F8, Pawn, Rook, Knight, White)
	if m.From() != E7 || m.To() != F8 {
		t.Fatalf("squares = %v %v", m.From(), m.To())
	}
	if m.Piece() != Pawn || m.Captured() != Rook || m.Promotion() != Knight {
		t.Errorf("fields = %v %v %v", m.Piece(), m.Captured(), m.Promotion())
	}
	if m.Color() != White || !m.IsPromotion() || !m.IsCapture() {
		t.Errorf("flags wrong for %v", m)
	}
	if m.String() != "e7f8n" {
		t.Errorf("String() = %q", m.String())
	}
	if NoMove.String() != "0000" {
		t.Errorf("NoMove.String() = %q", NoMove.String())
	}
	if black := NewMove(A7, A5, Pawn, NoPieceType, NoPieceType, Black); black == NoMove || black.Color() != Black {
		t.Errorf("black move encoding %v", black)
	}
}

func TestMoveListIndex(t *testing.T) {
	ml := NewPosition().GenerateMoves()
	if !ml.ValidOrigin(G1) || ml.ValidOrigin(E1) {
		t.Error("origin index wrong")
	}
	if !ml.ValidDestination(G1, F3) || ml.ValidDestination(G1, E2) {
		t.Error("destination index wrong")
	}
	if ml.Destinations(E2) != SquareBB(E3)|SquareBB(E4) {
		t.Errorf("e2 destinations:\n%s", ml.Destinations(E2))
	}
	if ml.Find(B1, C3, Queen) == NoMove {
		t.Error("Find b1c3 failed")
	}
	if ml.Contains(NewMove(E2, E5, Pawn, NoPieceType, NoPieceType, White)) {
		t.Error("Contains accepted an illegal move")
	}
}
