// Package wallet tracks a single non-negative integer balance.
package wallet

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidAmount is returned for a non-positive amount or a negative seed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Wallet stores an integer balance that never goes negative.
// The zero value is an empty wallet.
type Wallet struct {
	balance int64
}

// New returns a wallet seeded with initial.
func New(initial int64) (*Wallet, error) {
	if initial < 0 {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidAmount)
	}
	return &Wallet{balance: initial}, nil
}

// Balance returns the current balance.
func (w *Wallet) Balance() int64 { return w.balance }

// Deposit adds a positive amount. A sum past math.MaxInt64 is rejected.
func (w *Wallet) Deposit(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAmount)
	}
	if amount > math.MaxInt64-w.balance {
		return fmt.Errorf("%w: deposit would overflow balance", ErrInvalidAmount)
	}
	w.balance += amount
	return nil
}

// Withdraw removes a positive amount no larger than the balance.
func (w *Wallet) Withdraw(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: withdraw amount must be positive", ErrInvalidAmount)
	}
	if amount > w.balance {
		return fmt.Errorf("%w: not enough balance in wallet", ErrInsufficientFunds)
	}
	w.balance -= amount
	return nil
}

func (w *Wallet) String() string {
	return fmt.Sprintf("Wallet(balance=%d)", w.balance)
}
