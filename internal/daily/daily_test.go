package daily

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/labs/internal/db"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	ts := time.Date(2026, 3, 2, 5, 0, 0, 0, loc) // 2026-03-01 19:00 UTC
	assert.Equal(t, "2026-03-01", DateKey(ts))
}

func TestDisks_DeterministicAndInRange(t *testing.T) {
	day := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	first := Disks(day, "salt", 3, 7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Disks(day.Add(time.Duration(i)*time.Hour), "salt", 3, 7))
	}
	for d := 0; d < 60; d++ {
		n := Disks(day.AddDate(0, 0, d), "salt", 3, 7)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 7)
	}
}

func TestDisks_DegenerateRanges(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 4, Disks(day, "s", 4, 4))
	assert.Equal(t, 1, Disks(day, "s", -5, 1))
	n := Disks(day, "s", 6, 2)
	assert.GreaterOrEqual(t, n, 2)
	assert.LessOrEqual(t, n, 6)
}

func TestStore_ResultsAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMigrated(db.MemoryDSN)
	require.NoError(t, err)
	defer conn.Close()

	s := NewStore(conn)
	played, err := s.AlreadyPlayed(ctx, "u1", "2026-10-18")
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-10-18", Disks: 3, Moves: 9, ElapsedMs: 1000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u2", Date: "2026-10-18", Disks: 3, Moves: 7, ElapsedMs: 5000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u3", Date: "2026-10-18", Disks: 3, Moves: 7, ElapsedMs: 2000}))
	// ignored: u1 already has a row for the day
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-10-18", Disks: 3, Moves: 7, ElapsedMs: 1}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-10-19", Disks: 4, Moves: 15, ElapsedMs: 1}))

	played, err = s.AlreadyPlayed(ctx, "u1", "2026-10-18")
	require.NoError(t, err)
	assert.True(t, played)

	rows, err := s.Leaderboard(ctx, "2026-10-18", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "u3", rows[0].UserID)
	assert.Equal(t, "u2", rows[1].UserID)
	assert.Equal(t, LBRow{UserID: "u1", Moves: 9, ElapsedMs: 1000}, rows[2])

	rows, err = s.Leaderboard(ctx, "2026-10-18", 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
