// internal/httpserver/server.go
//
// HTTP server wiring for the labs backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Puzzle endpoints (optional auth): /hanoi/new, /hanoi/move, /hanoi/{id}, /hanoi/{id}/ws.
//   - Wallet endpoints (optional auth): mounted under /wallet.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Sessions (puzzles, wallets) live in memory; every mutation goes through
//     store.Update so concurrent requests on one session are serialized.
//   - Engine errors are mapped to status codes with errors.Is.
//   - The websocket route sits outside the request timeout.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/labs/internal/hanoi"
	"github.com/robalobadob/labs/internal/ledger"
	"github.com/robalobadob/labs/internal/store"
	"github.com/robalobadob/labs/internal/wallet"
)

// Config carries the environment-driven settings of the server.
type Config struct {
	JWTSecret      string
	JWTExpiry      time.Duration
	CookieName     string
	AnonCookieName string
	ClientOrigin   string
	Production     bool
	DailySalt      string
	DailyMinDisks  int
	DailyMaxDisks  int
	MaxDisks       int
	RequestTimeout time.Duration
}

// ConfigFromEnv reads Config from the process environment with dev defaults.
func ConfigFromEnv() Config {
	return Config{
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiry:      time.Duration(getEnvInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:     getEnv("COOKIE_NAME", "labs_token"),
		AnonCookieName: "labs_anon",
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("NODE_ENV") == "production",
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		DailyMinDisks:  getEnvInt("DAILY_MIN_DISKS", 3),
		DailyMaxDisks:  getEnvInt("DAILY_MAX_DISKS", 7),
		MaxDisks:       getEnvInt("MAX_DISKS", 20),
		RequestTimeout: 10 * time.Second,
	}
}

// Server bundles router, in-memory session stores, and DB handle.
type Server struct {
	r       *chi.Mux
	cfg     Config
	games   store.Store[*hanoi.Game]
	wallets store.Store[*wallet.Wallet]
	ledger  *ledger.Store
	db      *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, games store.Store[*hanoi.Game], wallets store.Store[*wallet.Wallet], db *sql.DB) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		games:   games,
		wallets: wallets,
		ledger:  ledger.NewStore(db),
		db:      db,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)   // zerolog access log
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	// Websocket play channel, long-lived so no request timeout.
	s.r.With(s.withOptionalAuth()).Get("/hanoi/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout)) // bound handler time
		r.Use(jsonContentType)                   // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"labs-go","endpoints":["/health","POST /hanoi/new","POST /hanoi/move","/wallet/*","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Puzzle endpoints: OPTIONAL AUTH (guests can play)
		opt := r.With(s.withOptionalAuth())
		opt.Post("/hanoi/new", s.handleNewGame)
		opt.Post("/hanoi/move", s.handleMove)
		opt.Get("/hanoi/{id}", s.handleGetGame)
		opt.Delete("/hanoi/{id}", s.handleAbort)

		// Wallet and Daily Challenge: OPTIONAL AUTH
		s.mountWallet(opt)
		s.mountDaily(opt)

		// Auth + profile/stats (require auth)
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs method, path, status, bytes and duration per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("dur", time.Since(start)).
			Str("reqId", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------ errors -------------------------------------

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr sends {"error": code, "message": msg}.
func writeErr(w http.ResponseWriter, status int, code, msg string) {
	body := map[string]string{"error": code}
	if msg != "" {
		body["message"] = msg
	}
	writeJSON(w, status, body)
}

// errorStatus maps domain errors to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, hanoi.ErrInvalidConfiguration):
		return http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, hanoi.ErrIllegalMove):
		return http.StatusConflict, "illegal_move"
	case errors.Is(err, hanoi.ErrGameFinished):
		return http.StatusConflict, "game_finished"
	case errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "server_error"
}

// writeDomainErr maps err and writes it; 5xx errors are logged.
func writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeErr(w, status, code, "")
		return
	}
	writeErr(w, status, code, err.Error())
}

// ------------------------------ PUZZLE -------------------------------------

// gameView is the JSON shape of a puzzle session.
type gameView struct {
	GameID   string                  `json:"gameId"`
	Disks    int                     `json:"disks"`
	Towers   map[string][]hanoi.Disk `json:"towers"`
	Moves    int                     `json:"moves"`
	MinMoves int                     `json:"minMoves"`
	State    string                  `json:"state"`
}

func viewOf(g *hanoi.Game) gameView {
	return gameView{
		GameID:   g.ID,
		Disks:    g.Disks,
		Towers:   g.Towers.Map(),
		Moves:    g.Moves,
		MinMoves: hanoi.MinMoves(g.Disks),
		State:    g.State(),
	}
}

// newGameReq is the payload for POST /hanoi/new. Disks defaults to 3.
type newGameReq struct {
	Disks *int `json:"disks"`
}

// checkDisks applies the server-side cap on top of the engine's own rule.
func (s *Server) checkDisks(n int) error {
	if s.cfg.MaxDisks > 0 && n > s.cfg.MaxDisks {
		return fmt.Errorf("%w: at most %d disks", hanoi.ErrInvalidConfiguration, s.cfg.MaxDisks)
	}
	return nil
}

// handleNewGame creates a new in-memory puzzle and persists an owner row
// (either user_id or anonymous_id) for history/stats.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	disks := 3
	if req.Disks != nil {
		disks = *req.Disks
	}
	if err := s.checkDisks(disks); err != nil {
		writeDomainErr(w, r, err)
		return
	}
	g, err := hanoi.NewGame(disks)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	if err := s.games.Save(r.Context(), g.ID, g); err != nil {
		writeDomainErr(w, r, err)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if me := userFrom(r); me != nil {
		_, err = s.db.ExecContext(r.Context(), `INSERT INTO games (id, user_id, disks, started_at, status, moves)
		                     VALUES (?,?,?,?,?,0)`, g.ID, me.ID, disks, now, hanoi.StatePlaying)
	} else {
		anon := s.ensureAnonID(w, r)
		_, err = s.db.ExecContext(r.Context(), `INSERT INTO games (id, anonymous_id, disks, started_at, status, moves)
		                     VALUES (?,?,?,?,?,0)`, g.ID, anon, disks, now, hanoi.StatePlaying)
	}
	if err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}

	writeJSON(w, http.StatusCreated, viewOf(g))
}

// moveReq is the payload for POST /hanoi/move.
type moveReq struct {
	GameID string `json:"gameId"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// applyMove runs one move under the store lock and records progress.
func (s *Server) applyMove(ctx context.Context, id, from, to string) (gameView, error) {
	var view gameView
	err := s.games.Update(ctx, id, func(g *hanoi.Game) error {
		if _, err := g.Move(from, to); err != nil {
			return err
		}
		view = viewOf(g)
		return nil
	})
	if err != nil {
		return gameView{}, err
	}
	s.recordProgress(ctx, view.GameID, view.Moves, view.State)
	return view, nil
}

// handleMove applies a move; illegal moves leave the session untouched.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	view, err := s.applyMove(r.Context(), req.GameID, req.From, req.To)
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetGame returns the current board.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	var view gameView
	err := s.games.Update(r.Context(), chi.URLParam(r, "id"), func(g *hanoi.Game) error {
		view = viewOf(g)
		return nil
	})
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleAbort ends an unsolved session. The abort is decided under the store
// lock, so a concurrent move either lands before it (and the abort gets 409)
// or fails with ErrGameFinished.
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var moves int
	err := s.games.Update(r.Context(), id, func(g *hanoi.Game) error {
		if err := g.Abort(); err != nil {
			return err
		}
		moves = g.Moves
		return nil
	})
	if err != nil {
		writeDomainErr(w, r, err)
		return
	}
	_ = s.games.Delete(r.Context(), id)
	s.recordProgress(r.Context(), id, moves, hanoi.StateAborted)
	writeJSON(w, http.StatusOK, map[string]string{"gameId": id, "state": hanoi.StateAborted})
}

// recordProgress persists counters/history (best effort, non-fatal if it fails).
// Terminal states also bump the owner's stats.
func (s *Server) recordProgress(ctx context.Context, id string, moves int, state string) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin progress tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET moves=? WHERE id=?`, moves, id); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("update moves")
	}
	if state == hanoi.StateSolved || state == hanoi.StateAborted {
		if _, err := tx.ExecContext(ctx, `UPDATE games SET status=?, finished_at=? WHERE id=?`,
			state, time.Now().UTC().Format(time.RFC3339), id); err != nil {
			log.Warn().Err(err).Str("gameId", id).Msg("finish game")
		}
		var uid sql.NullString
		_ = tx.QueryRowContext(ctx, `SELECT user_id FROM games WHERE id=?`, id).Scan(&uid)
		if uid.Valid && uid.String != "" {
			if err := s.bumpStats(ctx, tx, uid.String, state == hanoi.StateSolved); err != nil {
				log.Warn().Err(err).Str("user", uid.String).Msg("bump stats")
			}
		}
		log.Info().Str("gameId", id).Int("moves", moves).Str("state", state).Msg("game finished")
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("commit progress")
	}
}

// bumpStats increments games played; updates wins and streak based on result (within tx).
func (s *Server) bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses k as an int, returning def when unset or malformed.
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
