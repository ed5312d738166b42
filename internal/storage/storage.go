package storage

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyOptions = "options"
	keyStats   = "stats"
)

// EngineOptions stores the tunables the UCI layer exposes, so a GUI's
// setoption choices survive restarts.
type EngineOptions struct {
	HashSizeMB int       `json:"hash_size_mb"`
	MaxDepth   int       `json:"max_depth"`
	Variant    string    `json:"variant"`
	LastUsed   time.Time `json:"last_used"`
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() *EngineOptions {
	return &EngineOptions{
		HashSizeMB: 64,
		MaxDepth:   12,
		Variant:    "standard",
	}
}

// MatchStats accumulates results of games the engine has played.
type MatchStats struct {
	GamesPlayed   int            `json:"games_played"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	Draws         int            `json:"draws"`
	WinsByVariant map[string]int `json:"wins_by_variant"`
	TotalNodes    uint64         `json:"total_nodes"`
}

// NewMatchStats returns empty statistics.
func NewMatchStats() *MatchStats {
	return &MatchStats{
		WinsByVariant: make(map[string]int),
	}
}

// GameRecord describes one finished game.
type GameRecord struct {
	Won     bool
	Draw    bool
	Variant string
	Nodes   uint64
}

// Storage wraps BadgerDB for persistent engine state.
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) the database in the given directory.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Protocol output owns stdout; keep Badger quiet

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// OpenDefault opens the database in the platform data directory.
func OpenDefault() (*Storage, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOptions persists the engine options.
func (s *Storage) SaveOptions(opts *EngineOptions) error {
	opts.LastUsed = time.Now()

	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// LoadOptions loads the engine options, returning defaults if none are stored.
func (s *Storage) LoadOptions() (*EngineOptions, error) {
	opts := DefaultOptions()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, opts)
		})
	})

	return opts, err
}

// SaveStats persists match statistics.
func (s *Storage) SaveStats(stats *MatchStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads match statistics, returning empty stats if none are stored.
func (s *Storage) LoadStats() (*MatchStats, error) {
	stats := NewMatchStats()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil // Use empty stats
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})

	return stats, err
}

// RecordGame folds one finished game into the statistics.
func (s *Storage) RecordGame(rec GameRecord) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalNodes += rec.Nodes

	switch {
	case rec.Draw:
		stats.Draws++
	case rec.Won:
		stats.Wins++
		stats.WinsByVariant[rec.Variant]++
	default:
		stats.Losses++
	}

	return s.SaveStats(stats)
}

// WinRate returns the win rate as a percentage (0-100).
func (st *MatchStats) WinRate() float64 {
	if st.GamesPlayed == 0 {
		return 0
	}
	return float64(st.Wins) / float64(st.GamesPlayed) * 100
}
