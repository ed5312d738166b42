package engine

import (
	"github.com/nicolasnotcage/luna/internal/board"
)

// Bound indicates the type of score stored in a table entry.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundExact       // Exact score (PV node)
	BoundLower       // Beta cutoff (fail-high)
	BoundUpper       // Alpha never improved (fail-low)
)

// Hash table size limits in megabytes.
const (
	DefaultHashSizeMB = 64
	MinHashSizeMB     = 1
	MaxHashSizeMB     = 1024
)

// TTEntry is one slot of the transposition table. Probes verify the
// full 64-bit key, so rare index collisions between distinct positions
// are detected rather than trusted. Kept at 16 bytes.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int16 // -1 marks an empty slot
	Bound    Bound
	Age      uint8
}

// TranspositionTable is a fixed-size open-addressed cache of search
// results, owned exclusively by the search thread during a search.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	age     uint8
}

// NewTranspositionTable creates a table from a megabyte budget, clamped
// to [MinHashSizeMB, MaxHashSizeMB]. The entry count is rounded down to
// a power of two for mask indexing.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table for a new megabyte budget. Only valid
// when no search is in flight.
func (tt *TranspositionTable) Resize(sizeMB int) {
	if sizeMB < MinHashSizeMB {
		sizeMB = MinHashSizeMB
	}
	if sizeMB > MaxHashSizeMB {
		sizeMB = MaxHashSizeMB
	}

	const entrySize = 16
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)

	tt.entries = make([]TTEntry, numEntries)
	tt.mask = numEntries - 1
	tt.age = 0
	for i := range tt.entries {
		tt.entries[i].Depth = -1
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// SizeEntries returns the number of slots in the table.
func (tt *TranspositionTable) SizeEntries() uint64 {
	return uint64(len(tt.entries))
}

// NewSearch starts a new search generation. Ages wrap freely.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{Depth: -1}
	}
	tt.age = 0
}

// Probe looks up a position. The returned score has its mate offset
// undone so it reads as mate-in-N from the probing node.
func (tt *TranspositionTable) Probe(key uint64, ply int) (TTEntry, bool) {
	entry := tt.entries[key&tt.mask]
	if entry.Depth < 0 || entry.Key != key {
		return TTEntry{}, false
	}
	entry.Score = int16(scoreFromTT(int(entry.Score), ply))
	return entry, true
}

// Store saves a search result. Replacement favors empty slots, entries
// from earlier searches, and equal-or-deeper results.
func (tt *TranspositionTable) Store(key uint64, score, depth int, bound Bound, bestMove board.Move, ply int) {
	entry := &tt.entries[key&tt.mask]

	if entry.Depth >= 0 && entry.Age == tt.age && depth < int(entry.Depth) {
		return
	}

	entry.Key = key
	entry.BestMove = bestMove
	entry.Score = int16(scoreToTT(score, ply))
	entry.Depth = int16(depth)
	entry.Bound = bound
	entry.Age = tt.age
}

// Mate scores are stored relative to the storing node so that a probe
// from a different ply still reads mate-in-N correctly.

func scoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -(MateScore - MaxPly) {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -(MateScore - MaxPly) {
		return score + ply
	}
	return score
}
