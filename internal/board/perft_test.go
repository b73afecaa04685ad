package board

import "testing"

func runPerftTable(t *testing.T, fen string, want []uint64) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	before := pos.Copy()

	for i, expected := range want {
		depth := i + 1
		got := Perft(pos, depth)
		if got != expected {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected)
		}
	}

	if !pos.Equal(before) {
		t.Errorf("position changed during perft:\n%s\nwant:\n%s", pos, before)
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	// Depth 5 (4865609) takes a few seconds, enable for thorough testing.
	runPerftTable(t, StartFEN, []uint64{20, 400, 8902, 197281})
}

// TestPerftKiwipete covers castling through attacked squares, pins and promotions.
func TestPerftKiwipete(t *testing.T) {
	runPerftTable(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		[]uint64{48, 2039, 97862})
}

// TestPerftPosition3 tests en passant edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerftTable(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		[]uint64{14, 191, 2812, 43238})
}

// TestPerftPosition4 tests promotions and checks from a mirrored castling setup.
func TestPerftPosition4(t *testing.T) {
	runPerftTable(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		[]uint64{6, 264, 9467})
}

func TestPerftPosition5(t *testing.T) {
	runPerftTable(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		[]uint64{44, 1486, 62379})
}

// TestPerftEnPassantPin tests the horizontal pin that only appears once both
// pawns leave the rank.
// Black pawn on e4 can capture en passant on d3, but that would expose the
// black king on a4 to the white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	moves := pos.GenerateMoves()
	for _, m := range moves.Slice() {
		if m.From() == E4 && m.To() == D3 {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}

	// Depth 1: Ka3, Ka5, Kb3, Kb4, Kb5, e3 = 6 moves
	runPerftTable(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []uint64{6, 94})
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := NewPosition()
	var total uint64
	for _, n := range Divide(pos, 3) {
		total += n
	}
	if total != 8902 {
		t.Errorf("divide total = %d, want 8902", total)
	}
}
