package engine

import (
	"github.com/nicolasnotcage/luna/internal/board"
)

// Move ordering scores, searched highest first.
const (
	TTMoveScore         = 15000
	WinningCaptureScore = 10000
	PromotionScore      = 9500
	KillerMove1Score    = 8000
	KillerMove2Score    = 7000
)

// mvvLvaOffset[attacker][victim] is added to WinningCaptureScore.
// The victim is the dominant dimension: every capture of a queen
// outranks every capture of a rook, and within a victim the cheapest
// attacker goes first.
var mvvLvaOffset = [6][6]int{
	// Victim:      P    N    B    R    Q    K
	/* P */ {105, 205, 305, 405, 505, 605},
	/* N */ {104, 204, 304, 404, 504, 604},
	/* B */ {103, 203, 303, 403, 503, 603},
	/* R */ {102, 202, 302, 402, 502, 602},
	/* Q */ {101, 201, 301, 401, 501, 601},
	/* K */ {100, 200, 300, 400, 500, 600},
}

// MoveOrderer scores moves for the search. Killers are quiet moves
// that caused a beta cutoff, indexed by the search's own ply.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
}

// NewMoveOrderer creates an empty move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear forgets all killer moves. Called at every new search so killers
// from one iteration cannot leak stale plies into the next.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
}

// ScoreMoves assigns an ordering score to every move in the list.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove && m != board.NoMove {
		return TTMoveScore
	}

	if m.IsCapture(pos) {
		attacker := pos.Board[m.From()].Type()

		victim := board.Pawn // En passant always captures a pawn
		if !m.IsEnPassant() {
			victim = pos.Board[m.To()].Type()
		}

		return WinningCaptureScore + mvvLvaOffset[attacker][victim]
	}

	if m.IsPromotion() {
		return PromotionScore + pieceValues[m.Promotion()]
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return KillerMove1Score
		}
		if m == mo.killers[ply][1] {
			return KillerMove2Score
		}
	}

	return 0
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// PickMove moves the best remaining move to position index, so the
// list is sorted lazily as far as the search actually walks it.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}
