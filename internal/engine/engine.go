package engine

import (
	"github.com/nicolasnotcage/luna/internal/board"
	"github.com/nicolasnotcage/luna/internal/variant"
)

// SearchLimits constrains one search.
type SearchLimits struct {
	Depth    int  // Maximum depth (0 = engine default)
	MoveTime int  // Budget for this move in milliseconds (0 = engine default)
	Infinite bool // Search until stopped
}

// Engine coordinates the searcher, evaluator, transposition table, and
// variant rules behind one facade.
type Engine struct {
	tt       *TranspositionTable
	searcher *Searcher
	rules    *variant.Rules
	maxDepth int

	// OnInfo is called after every completed search iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with the given hash table size in MB.
func NewEngine(hashSizeMB int) *Engine {
	tt := NewTranspositionTable(hashSizeMB)
	e := &Engine{
		tt:       tt,
		searcher: NewSearcher(tt),
		rules:    variant.NewRules(),
		maxDepth: DefaultSearchDepth,
	}
	e.searcher.SetRules(e.rules)
	return e
}

// Rules returns the engine's variant rule engine.
func (e *Engine) Rules() *variant.Rules {
	return e.rules
}

// SetMaxDepth sets the default depth cap, clamped to the engine limits.
func (e *Engine) SetMaxDepth(depth int) {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxSearchDepth {
		depth = MaxSearchDepth
	}
	e.maxDepth = depth
}

// ResizeHash reallocates the transposition table. Only valid when no
// search is in flight.
func (e *Engine) ResizeHash(sizeMB int) {
	e.tt.Resize(sizeMB)
}

// NewGame resets per-game search state. The table keeps its entries but
// advances its age so stale results lose replacement fights.
func (e *Engine) NewGame() {
	e.tt.NewSearch()
}

// FindBestMove searches the position within the given limits and
// returns the best move with the final iteration's info. It operates on
// a clone of pos.
func (e *Engine) FindBestMove(pos *board.Position, limits SearchLimits) (board.Move, SearchInfo) {
	depth := limits.Depth
	if depth <= 0 {
		depth = e.maxDepth
	}

	timeMS := limits.MoveTime
	if limits.Infinite {
		// Effectively unbounded; an external stop ends the search.
		timeMS = 1 << 30
	} else if timeMS <= 0 {
		timeMS = DefaultSearchTimeMS
	}

	e.searcher.OnIteration = e.OnInfo
	move, info := e.searcher.Search(pos, depth, timeMS)

	// Pathological fallback: no move survived the search at all.
	if move == board.NoMove {
		if legal := pos.GenerateLegalMoves(); legal.Len() > 0 {
			move = legal.Get(0)
			info.Best = move
		}
	}

	return move, info
}

// Stop requests the current search to unwind.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Nodes returns the node count of the last search.
func (e *Engine) Nodes() uint64 {
	return e.searcher.Nodes()
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// Perft counts leaf nodes of the legal move tree, for generator checks.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		pos.MakeMove(moves.Get(i))
		nodes += e.Perft(pos, depth-1)
		pos.UndoMove()
	}

	return nodes
}
