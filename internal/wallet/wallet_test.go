package wallet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := New(0)
	require.NoError(t, err)
	return w
}

func walletWith100(t *testing.T) *Wallet {
	t.Helper()
	w, err := New(100)
	require.NoError(t, err)
	return w
}

func TestDefaultBalanceIsZero(t *testing.T) {
	assert.Equal(t, int64(0), emptyWallet(t).Balance())

	var zero Wallet
	assert.Equal(t, int64(0), zero.Balance())
}

func TestInitialBalance(t *testing.T) {
	assert.Equal(t, int64(100), walletWith100(t).Balance())
}

func TestNew_NegativeInitial(t *testing.T) {
	w, err := New(-1)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDeposit(t *testing.T) {
	tests := []struct {
		amount, want int64
	}{
		{10, 10},
		{25, 25},
		{50, 50},
	}
	for _, tt := range tests {
		w := emptyWallet(t)
		require.NoError(t, w.Deposit(tt.amount))
		assert.Equal(t, tt.want, w.Balance())
	}
}

func TestDeposit_NonPositive(t *testing.T) {
	for _, amount := range []int64{-5, 0} {
		w := emptyWallet(t)
		assert.ErrorIs(t, w.Deposit(amount), ErrInvalidAmount)
		assert.Equal(t, int64(0), w.Balance())
	}
}

func TestWithdraw(t *testing.T) {
	for _, amount := range []int64{1, 50, 100} {
		w := walletWith100(t)
		require.NoError(t, w.Withdraw(amount))
		assert.Equal(t, 100-amount, w.Balance())
	}
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	for _, amount := range []int64{101, 150, 200} {
		w := walletWith100(t)
		assert.ErrorIs(t, w.Withdraw(amount), ErrInsufficientFunds)
		assert.Equal(t, int64(100), w.Balance())
	}
}

func TestWithdraw_NonPositive(t *testing.T) {
	for _, amount := range []int64{-10, 0} {
		w := walletWith100(t)
		err := w.Withdraw(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.NotErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, int64(100), w.Balance())
	}
}

func TestDepositThenWithdraw(t *testing.T) {
	w := emptyWallet(t)
	require.NoError(t, w.Deposit(10))
	require.NoError(t, w.Withdraw(3))
	assert.Equal(t, int64(7), w.Balance())
	assert.Equal(t, "Wallet(balance=7)", w.String())
}

func TestDeposit_OverflowRejected(t *testing.T) {
	w, err := New(math.MaxInt64)
	require.NoError(t, err)

	err = w.Deposit(1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, int64(math.MaxInt64), w.Balance())

	w, err = New(math.MaxInt64 - 10)
	require.NoError(t, err)
	require.NoError(t, w.Deposit(10))
	assert.Equal(t, int64(math.MaxInt64), w.Balance())
	assert.ErrorIs(t, w.Deposit(math.MaxInt64), ErrInvalidAmount)
	assert.GreaterOrEqual(t, w.Balance(), int64(0))
}
