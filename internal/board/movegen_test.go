package board

import "testing"

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestStartingPositionMoves(t *testing.T) {
	pos := NewPosition()
	moves := pos.GenerateLegalMoves()

	if moves.Len() != 20 {
		t.Fatalf("starting position has %d legal moves, want 20", moves.Len())
	}

	pawnMoves, knightMoves, other := 0, 0, 0
	for i := 0; i < moves.Len(); i++ {
		switch pos.Board[moves.Get(i).From()].Type() {
		case Pawn:
			pawnMoves++
		case Knight:
			knightMoves++
		default:
			other++
		}
	}
	if pawnMoves != 16 || knightMoves != 4 || other != 0 {
		t.Errorf("move mix = %d pawn, %d knight, %d other; want 16/4/0", pawnMoves, knightMoves, other)
	}
}

func TestQueenMobilityWithBlockers(t *testing.T) {
	// Queen on e5, own pawn on d4, enemy pawn on d6.
	pos := mustParse(t, "8/8/3p4/4Q3/3P4/8/8/8 w - - 0 1")
	moves := pos.GenerateLegalMoves()

	if moves.Len() < 16 {
		t.Errorf("queen generates %d moves, want at least 16", moves.Len())
	}
	if !moves.Contains(NewMove(E5, D6)) {
		t.Error("queen should capture the pawn on d6")
	}
	if moves.Contains(NewMove(E5, D4)) {
		t.Error("queen must not land on its own pawn")
	}
	if moves.Contains(NewMove(E5, C3)) {
		t.Error("queen must not slide through its own pawn on d4")
	}
}

func TestCastlingGeneration(t *testing.T) {
	pos := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	moves := pos.GenerateLegalMoves()

	castles := 0
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).IsCastling() {
			castles++
		}
	}
	if castles != 2 {
		t.Errorf("got %d castling moves, want 2", castles)
	}
	if !moves.Contains(NewCastling(E1, G1)) || !moves.Contains(NewCastling(E1, C1)) {
		t.Error("expected both e1g1 and e1c1")
	}
}

func TestCastlingBlockedByAttack(t *testing.T) {
	// Enemy rook on d2 covers d1 (queenside crossing) and the rook on g8
	// covers g1 (kingside destination); both castles must disappear.
	pos := mustParse(t, "r3k1r1/8/8/8/8/8/3r4/R3K2R w KQ - 1 1")
	moves := pos.GenerateLegalMoves()

	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).IsCastling() {
			t.Errorf("castling move %v generated while the crossing squares are attacked", moves.Get(i))
		}
	}
}

func TestEnPassantCapture(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")
	moves := pos.GenerateLegalMoves()

	var ep []Move
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).IsEnPassant() {
			ep = append(ep, moves.Get(i))
		}
	}
	if len(ep) != 1 {
		t.Fatalf("got %d en passant moves, want exactly 1", len(ep))
	}
	if ep[0] != NewEnPassant(E5, F6) {
		t.Fatalf("en passant move = %v, want e5f6", ep[0])
	}

	pos.MakeMove(ep[0])
	if pos.Board[F5] != NoPiece {
		t.Error("f5 should be empty after the en passant capture")
	}
	if pos.Board[F6] != WhitePawn {
		t.Error("the capturing pawn should stand on f6")
	}
}

func TestPromotionGeneration(t *testing.T) {
	pos := mustParse(t, "8/P7/8/8/8/8/8/8 w - - 0 1")
	moves := pos.GenerateLegalMoves()

	promos := map[PieceType]bool{}
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if !m.IsPromotion() {
			t.Errorf("unexpected non-promotion move %v", m)
			continue
		}
		if m.From() != A7 || m.To() != A8 {
			t.Errorf("promotion %v should run a7a8", m)
		}
		promos[m.Promotion()] = true
	}
	if len(promos) != 4 || !promos[Queen] || !promos[Rook] || !promos[Bishop] || !promos[Knight] {
		t.Errorf("promotion pieces = %v, want Q, R, B, N", promos)
	}
}

func TestCheckmatePosition(t *testing.T) {
	pos := mustParse(t, "R6k/8/7K/8/8/8/8/8 b - - 0 1")

	if !pos.InCheck() {
		t.Error("black should be in check")
	}
	if moves := pos.GenerateLegalMoves(); moves.Len() != 0 {
		t.Errorf("mated side has %d legal moves, want 0", moves.Len())
	}
	if !pos.IsCheckmate() {
		t.Error("position should be checkmate")
	}
}

func TestStalematePosition(t *testing.T) {
	pos := mustParse(t, "k7/8/1K6/8/8/8/8/8 b - - 0 1")

	if pos.InCheck() {
		t.Error("black should not be in check")
	}
	if moves := pos.GenerateLegalMoves(); moves.Len() != 0 {
		t.Errorf("stalemated side has %d legal moves, want 0", moves.Len())
	}
	if pos.IsCheckmate() {
		t.Error("two bare kings cannot be checkmate")
	}
}

func TestLegalMovesNeverLeaveKingAttacked(t *testing.T) {
	fens := []string{
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	for _, fen := range fens {
		pos := mustParse(t, fen)
		us := pos.SideToMove
		them := us.Other()
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			pos.MakeMove(m)
			if pos.IsSquareAttacked(pos.KingSquare(us), them) {
				t.Errorf("%q: legal move %v leaves the king attacked", fen, m)
			}
			pos.UndoMove()
		}
	}
}
