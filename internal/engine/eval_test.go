package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolasnotcage/luna/internal/board"
)

func parse(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	require.NoError(t, err, "ParseFEN(%q)", fen)
	return pos
}

func TestEvaluateTwoKingsIsDraw(t *testing.T) {
	for _, fen := range []string{
		"k7/8/1K6/8/8/8/8/8 b - - 0 1",
		"k7/8/1K6/8/8/8/8/8 w - - 0 1",
		"8/8/4k3/8/8/3K4/8/8 w - - 0 1",
	} {
		assert.Zero(t, Evaluate(parse(t, fen)), "two bare kings must evaluate to 0: %s", fen)
	}
}

func TestEvaluateStartingPositionIsSymmetric(t *testing.T) {
	white := parse(t, board.StartFEN)
	black := parse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")

	assert.Zero(t, Evaluate(white))
	assert.Zero(t, Evaluate(black))
}

func TestEvaluateSignFollowsSideToMove(t *testing.T) {
	// White is a queen up.
	up := parse(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	down := parse(t, "4k3/8/8/8/8/8/8/Q3K3 b - - 0 1")

	scoreWhite := Evaluate(up)
	scoreBlack := Evaluate(down)

	assert.Greater(t, scoreWhite, QueenValue/2, "side to move owns the extra queen")
	assert.Less(t, scoreBlack, -QueenValue/2, "same position is bad for the queenless mover")
	assert.Equal(t, scoreWhite, -scoreBlack)
}

func TestEvaluateMaterialCounts(t *testing.T) {
	pos := parse(t, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	assert.Equal(t, RookValue, evaluateMaterial(pos))
}

func TestEndgamePhaseSwitch(t *testing.T) {
	assert.False(t, IsEndgame(parse(t, board.StartFEN)))
	// A rook each is 1000cp of non-pawn material, below the threshold.
	assert.True(t, IsEndgame(parse(t, "4k3/8/8/8/8/8/r7/R3K3 w - - 0 1")))
}

func TestDoubledAndIsolatedPawns(t *testing.T) {
	// White: doubled, isolated pawns on the e-file. Black: healthy d+e duo.
	white := parse(t, "4k3/3pp3/8/8/8/4P3/4P3/4K3 w - - 0 1")
	assert.Negative(t, evaluatePawnStructure(white), "doubled isolated pawns should score below the connected pair")
}

func TestPassedPawnBonusGrowsWithAdvance(t *testing.T) {
	near := parse(t, "4k3/8/8/8/8/4P3/8/4K3 w - - 0 1")  // e3
	far := parse(t, "4k3/8/4P3/8/8/8/8/4K3 w - - 0 1")   // e6

	assert.Greater(t, evaluatePawnStructure(far), evaluatePawnStructure(near))
}

func TestRookBonuses(t *testing.T) {
	// Rook on the 7th rank and an open file.
	pos := parse(t, "4k3/R7/8/8/8/8/8/4K3 w - - 0 1")
	assert.Equal(t, rookOnSeventhBonus+rookOnOpenFileBonus, evaluatePieceBonuses(pos))

	pair := parse(t, "4k3/8/8/8/8/8/8/2B1KB2 w - - 0 1")
	assert.Equal(t, bishopPairBonus, evaluatePieceBonuses(pair))
}

func TestKingSafetyCastlingRights(t *testing.T) {
	withRights := parse(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	noRights := parse(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w - - 0 1")

	// Symmetric rights cancel; the difference shows when one side loses them.
	oneSided := parse(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w kq - 0 1")
	assert.Equal(t, evaluateKingSafety(withRights), evaluateKingSafety(noRights))
	assert.Equal(t, -castlingRightsBonus, evaluateKingSafety(oneSided)-evaluateKingSafety(withRights))
}

func TestCenterControl(t *testing.T) {
	empty := parse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	center := parse(t, "4k3/8/8/8/3P4/8/8/4K3 w - - 0 1") // Pawn on d4

	assert.Equal(t, centerControlBonus, evaluateMobility(center)-evaluateMobility(empty))
}
