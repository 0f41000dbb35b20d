package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/labs/internal/db"
	"github.com/robalobadob/labs/internal/wallet"
)

func TestStore_AppendListReplay(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMigrated(db.MemoryDSN)
	require.NoError(t, err)
	defer conn.Close()

	s := NewStore(conn)
	for _, e := range []Entry{
		{WalletID: "w1", Kind: KindOpen, Amount: 0, BalanceAfter: 0},
		{WalletID: "w1", Kind: KindDeposit, Amount: 10, BalanceAfter: 10},
		{WalletID: "w2", Kind: KindOpen, Amount: 100, BalanceAfter: 100},
		{WalletID: "w1", Kind: KindWithdraw, Amount: 3, BalanceAfter: 7},
	} {
		got, err := s.Append(ctx, e)
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.False(t, got.CreatedAt.IsZero())
	}

	entries, err := s.List(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []Kind{KindOpen, KindDeposit, KindWithdraw},
		[]Kind{entries[0].Kind, entries[1].Kind, entries[2].Kind})

	w, err := Replay(entries)
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.Balance())

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_RejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMigrated(db.MemoryDSN)
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewStore(conn).Append(ctx, Entry{WalletID: "w", Kind: KindDeposit, Amount: 1, BalanceAfter: -1})
	assert.Error(t, err)
}

func TestReplay_Guards(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr error
	}{
		{
			name: "overdraw",
			entries: []Entry{
				{Kind: KindOpen, Amount: 100, BalanceAfter: 100},
				{Kind: KindWithdraw, Amount: 150, BalanceAfter: 0},
			},
			wantErr: wallet.ErrInsufficientFunds,
		},
		{
			name: "negative deposit",
			entries: []Entry{
				{Kind: KindDeposit, Amount: -5, BalanceAfter: 0},
			},
			wantErr: wallet.ErrInvalidAmount,
		},
		{
			name: "negative open",
			entries: []Entry{
				{Kind: KindOpen, Amount: -1, BalanceAfter: 0},
			},
			wantErr: wallet.ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay(tt.entries)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReplay_Mismatch(t *testing.T) {
	_, err := Replay([]Entry{
		{Kind: KindOpen, Amount: 5, BalanceAfter: 5},
		{Kind: KindDeposit, Amount: 5, BalanceAfter: 11},
	})
	assert.ErrorContains(t, err, "ledger says 11")

	_, err = Replay([]Entry{
		{Kind: KindDeposit, Amount: 5, BalanceAfter: 5},
		{Kind: KindOpen, Amount: 5, BalanceAfter: 5},
	})
	assert.ErrorContains(t, err, "open must come first")

	_, err = Replay([]Entry{{Kind: "transfer", Amount: 1, BalanceAfter: 1}})
	assert.ErrorContains(t, err, "unknown kind")
}
