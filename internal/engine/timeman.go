package engine

import (
	"time"

	"github.com/nicolasnotcage/luna/internal/board"
)

// Default search time when the caller gives no budget.
const (
	DefaultSearchTimeMS = 5000
	MinSearchTimeMS     = 100
)

// TimeManager is a sampled deadline: a monotonic start timestamp plus
// an allocated duration. It has no interaction with scheduling; the
// search polls it once every CheckFrequency nodes.
type TimeManager struct {
	start     time.Time
	allocated time.Duration
}

// NewTimeManager creates an idle time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// StartSearch samples the clock and stores the budget in milliseconds.
func (tm *TimeManager) StartSearch(ms int) {
	tm.start = time.Now()
	tm.allocated = time.Duration(ms) * time.Millisecond
}

// ShouldStop reports whether the allocated time has elapsed.
func (tm *TimeManager) ShouldStop() bool {
	return time.Since(tm.start) >= tm.allocated
}

// Elapsed returns the time since the search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// ElapsedMs returns the elapsed time in milliseconds.
func (tm *TimeManager) ElapsedMs() int64 {
	return tm.Elapsed().Milliseconds()
}

// AllocateTime turns a remaining-time clock into a budget for one move.
// movesToGo is the moves until the next time control; when zero, the
// estimate follows the piece count: fewer pieces, fewer expected moves.
func AllocateTime(pos *board.Position, remaining, increment time.Duration, movesToGo int) time.Duration {
	movesRemaining := movesToGo
	if movesRemaining <= 0 {
		movesRemaining = 20
		switch pieces := pos.AllOccupied.PopCount(); {
		case pieces > 24:
			movesRemaining = 40
		case pieces > 12:
			movesRemaining = 30
		}
	}

	moveTime := remaining/time.Duration(movesRemaining) + increment*90/100

	// Commit at most 90% of what is left on the clock; the floor below
	// takes precedence when the clock is nearly empty.
	if maxTime := remaining * 90 / 100; moveTime > maxTime {
		moveTime = maxTime
	}
	if moveTime < MinSearchTimeMS*time.Millisecond {
		moveTime = MinSearchTimeMS * time.Millisecond
	}

	return moveTime
}
