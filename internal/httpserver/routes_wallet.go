// internal/httpserver/routes_wallet.go
//
// HTTP routes for in-memory wallets.
//   - POST /wallet/new          → open a wallet with an optional initial balance
//   - POST /wallet/deposit      → add a positive amount
//   - POST /wallet/withdraw     → remove a positive amount no larger than the balance
//   - GET  /wallet/{id}         → current balance
//   - GET  /wallet/{id}/ledger  → persisted operation history
//   - GET  /wallet/{id}/verify  → replay the ledger and compare with the live balance
//
// Every successful operation is appended to the ledger before the in-memory
// balance changes, so a failed write leaves the wallet as it was.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/labs/internal/ledger"
	"github.com/robalobadob/labs/internal/wallet"
)

// mountWallet registers all /wallet routes.
func (s *Server) mountWallet(r chi.Router) {
	r.Route("/wallet", func(r chi.Router) {
		r.Post("/new", s.handleWalletNew)
		r.Post("/deposit", s.walletOp(ledger.KindDeposit))
		r.Post("/withdraw", s.walletOp(ledger.KindWithdraw))
		r.Get("/{id}", s.handleWalletGet)
		r.Get("/{id}/ledger", s.handleWalletLedger)
		r.Get("/{id}/verify", s.handleWalletVerify)
	})
}

type walletNewReq struct {
	Initial int64 `json:"initial"`
}

type walletOpReq struct {
	WalletID string `json:"walletId"`
	Amount   int64  `json:"amount"`
}

type walletRes struct {
	WalletID string `json:"walletId"`
	Balance  int64  `json:"balance"`
}

// handleWalletNew opens a wallet and records the opening balance.
func (s *Server) handleWalletNew(w http.ResponseWriter, r *http.Request) {
	var req walletNewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	wal, err := wallet.New(req.Initial)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	id := uuid.NewString()
	if _, err := s.ledger.Append(r.Context(), ledger.Entry{
		WalletID: id, Kind: ledger.KindOpen, Amount: req.Initial, BalanceAfter: wal.Balance(),
	}); err != nil {
		writeDomainErr(w, r, err)
		return
	}
	if err := s.wallets.Save(r.Context(), id, wal); err != nil {
		writeDomainErr(w, r, err)
		return
	}
	log.Info().Str("walletId", id).Int64("initial", req.Initial).Msg("wallet opened")
	writeJSON(w, http.StatusCreated, walletRes{WalletID: id, Balance: wal.Balance()})
}

// applyWalletOp runs a deposit/withdraw on a copy, persists it, then commits
// the copy back. Runs under the store lock.
func (s *Server) applyWalletOp(ctx context.Context, id string, kind ledger.Kind, amount int64) (int64, error) {
	var balance int64
	err := s.wallets.Update(ctx, id, func(wal *wallet.Wallet) error {
		next := *wal
		var err error
		if kind == ledger.KindDeposit {
			err = next.Deposit(amount)
		} else {
			err = next.Withdraw(amount)
		}
		if err != nil {
			return err
		}
		if _, err := s.ledger.Append(ctx, ledger.Entry{
			WalletID: id, Kind: kind, Amount: amount, BalanceAfter: next.Balance(),
		}); err != nil {
			return err
		}
		*wal = next
		balance = wal.Balance()
		return nil
	})
	return balance, err
}

// walletOp builds the handler for a deposit or withdraw route.
func (s *Server) walletOp(kind ledger.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req walletOpReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad_json", "")
			return
		}
		balance, err := s.applyWalletOp(r.Context(), req.WalletID, kind, req.Amount)
		if err != nil {
			writeDomainErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, walletRes{WalletID: req.WalletID, Balance: balance})
	}
}

// walletBalance reads the balance under the store lock.
func (s *Server) walletBalance(ctx context.Context, id string) (int64, error) {
	var balance int64
	err := s.wallets.Update(ctx, id, func(wal *wallet.Wallet) error {
		balance = wal.Balance()
		return nil
	})
	return balance, err
}

func (s *Server) handleWalletGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	balance, err := s.walletBalance(r.Context(), id)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, walletRes{WalletID: id, Balance: balance})
}

func (s *Server) handleWalletLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.walletBalance(r.Context(), id); err != nil {
		writeDomainErr(w, r, err)
		return
	}
	entries, err := s.ledger.List(r.Context(), id)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type verifyRes struct {
	WalletID string `json:"walletId"`
	Balance  int64  `json:"balance"`
	Replayed int64  `json:"replayed"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// handleWalletVerify rebuilds the wallet from its ledger.
func (s *Server) handleWalletVerify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	balance, err := s.walletBalance(r.Context(), id)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	entries, err := s.ledger.List(r.Context(), id)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	res := verifyRes{WalletID: id, Balance: balance}
	replayed, err := ledger.Replay(entries)
	if err != nil {
		res.Error = err.Error()
		log.Warn().Err(err).Str("walletId", id).Msg("ledger replay failed")
	} else {
		res.Replayed = replayed.Balance()
		res.OK = res.Replayed == balance
	}
	writeJSON(w, http.StatusOK, res)
}
