package engine

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/nicolasnotcage/luna/internal/board"
	"github.com/nicolasnotcage/luna/internal/variant"
)

// Search constants.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 64

	// The deadline is sampled once per CheckFrequency visited nodes,
	// not per node; the stop flag itself is read at every node.
	CheckFrequency = 2048

	DefaultSearchDepth = 12
	MaxSearchDepth     = 30
)

// openingMoves is the engine's entire book: on the exact initial
// position it plays one of these four at random.
var openingMoves = []string{"e2e4", "d2d4", "g1f3", "c2c4"}

// SearchInfo reports the state of a finished iteration.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Best  board.Move
}

// Searcher runs the iterative-deepening negamax search. A Searcher owns
// its position clone and the transposition table for the duration of a
// search; only the stop flag is shared with other goroutines.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer
	tm      *TimeManager
	rules   *variant.Rules

	nodes    uint64
	stopFlag atomic.Bool

	// Best move of the in-progress root iteration, used when the very
	// first iteration is cut short.
	rootBest board.Move

	// OnIteration is called after every completed depth.
	OnIteration func(SearchInfo)
}

// NewSearcher creates a searcher over a shared transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
		tm:      NewTimeManager(),
		rules:   variant.NewRules(),
	}
}

// SetRules installs the variant rule engine consulted for terminal wins.
func (s *Searcher) SetRules(r *variant.Rules) {
	s.rules = r
}

// Stop requests the search to unwind at its next poll point.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Nodes returns the number of nodes visited by the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

func (s *Searcher) stopped() bool {
	return s.stopFlag.Load()
}

// checkTime polls the deadline once every CheckFrequency nodes and
// latches the stop flag when it has passed.
func (s *Searcher) checkTime() {
	if s.nodes&(CheckFrequency-1) == 0 && s.tm.ShouldStop() {
		s.stopFlag.Store(true)
	}
}

// Search finds the best move within the given depth cap and time budget
// in milliseconds. It operates on a clone of pos; the caller's position
// is never mutated.
func (s *Searcher) Search(pos *board.Position, maxDepth int, timeMS int) (board.Move, SearchInfo) {
	if maxDepth <= 0 {
		maxDepth = DefaultSearchDepth
	}
	if maxDepth > MaxSearchDepth {
		maxDepth = MaxSearchDepth
	}

	s.pos = pos.Copy()
	s.nodes = 0
	s.stopFlag.Store(false)
	s.rootBest = board.NoMove
	s.tm.StartSearch(timeMS)

	// The four-move book: only for the exact initial position.
	if m, ok := s.bookMove(); ok {
		info := SearchInfo{Depth: 1, Score: 0, Best: m, Time: s.tm.Elapsed()}
		if s.OnIteration != nil {
			s.OnIteration(info)
		}
		return m, info
	}

	var bestMove board.Move
	var bestInfo SearchInfo

	for depth := 1; depth <= maxDepth; depth++ {
		s.tt.NewSearch()
		s.orderer.Clear()

		move, score := s.searchRoot(depth)

		// Results of an interrupted iteration are discarded; the best
		// move from the last completed depth stands.
		if s.stopped() {
			break
		}

		bestMove = move
		bestInfo = SearchInfo{
			Depth: depth,
			Score: score,
			Nodes: s.nodes,
			Time:  s.tm.Elapsed(),
			Best:  move,
		}
		if s.OnIteration != nil {
			s.OnIteration(bestInfo)
		}

		// A forced mate does not get better with depth.
		if score > MateScore-MaxPly || score < -(MateScore-MaxPly) {
			break
		}
		if s.tm.ShouldStop() {
			break
		}
	}

	if bestMove == board.NoMove {
		// Only the first iteration ran and was cut short: fall back to
		// its in-progress best.
		bestMove = s.rootBest
		bestInfo.Best = bestMove
		bestInfo.Nodes = s.nodes
		bestInfo.Time = s.tm.Elapsed()
	}

	return bestMove, bestInfo
}

// bookMove picks uniformly among the legal subset of the four opening
// moves when the position is exactly the initial one.
func (s *Searcher) bookMove() (board.Move, bool) {
	if s.pos.ToFEN() != board.StartFEN {
		return board.NoMove, false
	}

	var candidates []board.Move
	for _, uci := range openingMoves {
		if m, err := board.ParseMove(uci, s.pos); err == nil {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return board.NoMove, false
	}
	return candidates[rand.Intn(len(candidates))], true
}

// searchRoot is the root specialisation of negamax: full window, tracks
// the best move for iterative deepening to keep.
func (s *Searcher) searchRoot(depth int) (board.Move, int) {
	alpha, beta := -Infinity, Infinity
	s.nodes++

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if s.pos.InCheck() {
			return board.NoMove, -MateScore
		}
		return board.NoMove, 0
	}

	var ttMove board.Move
	if entry, ok := s.tt.Probe(s.pos.Hash, 0); ok {
		ttMove = entry.BestMove
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, 0, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		s.pos.MakeMove(m)
		score := -s.negamax(depth-1, 1, -beta, -alpha)
		s.pos.UndoMove()

		if s.stopped() {
			return bestMove, bestScore
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			s.rootBest = m
			if score > alpha {
				alpha = score
			}
		}
	}

	s.tt.Store(s.pos.Hash, bestScore, depth, BoundExact, bestMove, 0)

	return bestMove, bestScore
}

// negamax is the interior alpha-beta search.
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	s.checkTime()
	if s.stopped() {
		return 0
	}
	s.nodes++

	if ply >= MaxPly {
		return Evaluate(s.pos)
	}

	// Variant terminal state: a king already on the hill ended the game
	// one move ago.
	if winner, ok := s.rules.HillWinner(s.pos); ok {
		if winner == s.pos.SideToMove {
			return MateScore - ply
		}
		return -MateScore + ply
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if s.pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	alphaOrig := alpha

	// Transposition table probe
	var ttMove board.Move
	if entry, ok := s.tt.Probe(s.pos.Hash, ply); ok {
		ttMove = entry.BestMove
		if int(entry.Depth) >= depth {
			score := int(entry.Score)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
				if score > alpha {
					alpha = score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)
		isCapture := m.IsCapture(s.pos)

		s.pos.MakeMove(m)
		score := -s.negamax(depth-1, ply+1, -beta, -alpha)
		s.pos.UndoMove()

		if s.stopped() {
			// Unwinding: no table writes for the abandoned iteration.
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
			}
		}
		if score >= beta {
			if !isCapture {
				s.orderer.UpdateKillers(m, ply)
			}
			break
		}
	}

	bound := BoundExact
	if bestScore <= alphaOrig {
		bound = BoundUpper
	} else if bestScore >= beta {
		bound = BoundLower
	}
	s.tt.Store(s.pos.Hash, bestScore, depth, bound, bestMove, ply)

	return bestScore
}

// quiescence extends the search at depth 0 through noisy moves only, so
// the evaluation never lands in the middle of a capture sequence. It is
// bounded by the tree, not by a depth counter.
func (s *Searcher) quiescence(ply, alpha, beta int) int {
	s.checkTime()
	if s.stopped() {
		return 0
	}
	s.nodes++

	if ply >= MaxPly {
		return Evaluate(s.pos)
	}

	if winner, ok := s.rules.HillWinner(s.pos); ok {
		if winner == s.pos.SideToMove {
			return MateScore - ply
		}
		return -MateScore + ply
	}

	// Stand pat
	eval := Evaluate(s.pos)
	if eval >= beta {
		return beta
	}
	if eval > alpha {
		alpha = eval
	}

	moves := s.pos.GenerateNoisyMoves()
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		s.pos.MakeMove(m)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UndoMove()

		if s.stopped() {
			return 0
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
