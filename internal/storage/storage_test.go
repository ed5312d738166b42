package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOptionsRoundTrip(t *testing.T) {
	s := openTestStorage(t)

	opts, err := s.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, 64, opts.HashSizeMB, "defaults come back from an empty store")

	opts.HashSizeMB = 256
	opts.Variant = "king_of_the_hill"
	require.NoError(t, s.SaveOptions(opts))

	loaded, err := s.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, 256, loaded.HashSizeMB)
	assert.Equal(t, "king_of_the_hill", loaded.Variant)
	assert.False(t, loaded.LastUsed.IsZero())
}

func TestRecordGame(t *testing.T) {
	s := openTestStorage(t)

	require.NoError(t, s.RecordGame(GameRecord{Won: true, Variant: "standard", Nodes: 1000}))
	require.NoError(t, s.RecordGame(GameRecord{Draw: true, Variant: "standard"}))
	require.NoError(t, s.RecordGame(GameRecord{Variant: "standard", Nodes: 500}))

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, uint64(1500), stats.TotalNodes)
	assert.Equal(t, 1, stats.WinsByVariant["standard"])
	assert.InDelta(t, 33.3, stats.WinRate(), 0.1)
}
