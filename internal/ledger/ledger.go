// internal/ledger/ledger.go
//
// Persisted audit trail of wallet operations.
// The wallet itself lives in memory; the ledger records every successful
// open/deposit/withdraw so a wallet can be rebuilt with Replay.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/labs/internal/wallet"
)

// Kind is the operation recorded by an Entry.
type Kind string

const (
	KindOpen     Kind = "open"
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// Entry is one ledger row.
type Entry struct {
	ID           string    `json:"id"`
	WalletID     string    `json:"walletId"`
	Kind         Kind      `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Append inserts e, filling ID and CreatedAt when empty.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wallet_ledger (id, wallet_id, kind, amount, balance_after, created_at)
		 VALUES (?,?,?,?,?,?)`,
		e.ID, e.WalletID, string(e.Kind), e.Amount, e.BalanceAfter, e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append ledger entry: %w", err)
	}
	return e, nil
}

// List returns the entries of a wallet in insertion order.
func (s *Store) List(ctx context.Context, walletID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, wallet_id, kind, amount, balance_after, created_at
		 FROM wallet_ledger WHERE wallet_id=? ORDER BY rowid ASC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			kind    string
			created string
		)
		if err := rows.Scan(&e.ID, &e.WalletID, &kind, &e.Amount, &e.BalanceAfter, &created); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Replay rebuilds a wallet by running entries through the wallet guards.
// A balance mismatch against BalanceAfter is reported as an error.
func Replay(entries []Entry) (*wallet.Wallet, error) {
	w, err := wallet.New(0)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		switch e.Kind {
		case KindOpen:
			if i != 0 {
				return nil, fmt.Errorf("entry %d: open must come first", i)
			}
			if w, err = wallet.New(e.Amount); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
		case KindDeposit:
			err = w.Deposit(e.Amount)
		case KindWithdraw:
			err = w.Withdraw(e.Amount)
		default:
			return nil, fmt.Errorf("entry %d: unknown kind %q", i, e.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if w.Balance() != e.BalanceAfter {
			return nil, fmt.Errorf("entry %d: balance %d, ledger says %d", i, w.Balance(), e.BalanceAfter)
		}
	}
	return w, nil
}
