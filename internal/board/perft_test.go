package board

import "testing"

// perft counts the number of leaf nodes of the full-width legal move
// tree at the given depth. This is the standard oracle for move
// generation correctness.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}

	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		p.MakeMove(moves.Get(i))
		nodes += perft(p, depth-1)
		p.UndoMove()
	}
	return nodes
}

func runPerft(t *testing.T, fen string, expected []int64) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	for i, want := range expected {
		depth := i + 1
		got := perft(pos, depth)
		if got != want {
			t.Errorf("perft(%d) = %d, want %d", depth, got, want)
		}
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	runPerft(t, StartFEN, []int64{20, 400, 8902, 197281})
	// Depth 5 is 4865609; enable for thorough testing.
}

// TestPerftKiwipete tests the Kiwipete position, dense with castling,
// pin, and promotion edge cases.
func TestPerftKiwipete(t *testing.T) {
	runPerft(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		[]int64{48, 2039, 97862})
	// Depth 5 is 193690690.
}

// TestPerftPosition3 tests en passant edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerft(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		[]int64{14, 191, 2812, 43238, 674624})
}

// TestPerftPosition4 tests promotion-heavy play.
func TestPerftPosition4(t *testing.T) {
	runPerft(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		[]int64{6, 264, 9467, 422333})
	// Depth 5 is 15833292.
}

// TestPerftPosition5 covers the underpromotion/check tangle around f2.
func TestPerftPosition5(t *testing.T) {
	runPerft(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		[]int64{44, 1486, 62379})
	// Depth 5 is 89941194.
}

// TestPerftPosition6 is a quiet middlegame with broad mobility.
func TestPerftPosition6(t *testing.T) {
	runPerft(t, "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
		[]int64{46, 2079, 89890})
	// Depth 5 is 164075551.
}

// TestPerftEnPassantPin checks the horizontal-pin en passant case: the
// capture removes two pawns from the rank and exposes the king.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).IsEnPassant() {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", moves.Get(i))
		}
	}

	runPerft(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []int64{6, 94})
}
