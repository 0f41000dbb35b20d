// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily puzzle (creates or reuses session)
//   - POST /daily/move        → submit a move for today's daily puzzle
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on solve.
// The disk count is derived from date + salt.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/labs/internal/daily"
	"github.com/robalobadob/labs/internal/hanoi"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	sessions map[string]*dailySession // unsolved sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions and their games
}

// dailySession holds transient in-memory state for an in-progress daily puzzle.
type dailySession struct {
	Game   *hanoi.Game
	UserID string
	Date   string
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/move", dd.handleMove)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// dateKeyNow returns today's date key and disk count.
func (d *dailyServer) dateKeyNow() (date string, disks int) {
	now := time.Now().UTC()
	cfg := d.srv.cfg
	return daily.DateKey(now), daily.Disks(now, cfg.DailySalt, cfg.DailyMinDisks, cfg.DailyMaxDisks)
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string                  `json:"gameId"`
	Date   string                  `json:"date"`
	Disks  int                     `json:"disks"`
	Played bool                    `json:"played"`
	Towers map[string][]hanoi.Disk `json:"towers,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	date, disks := d.dateKeyNow()

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Disks: disks, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(date)
	sess, ok := d.sessions[key]
	if !ok {
		g, err := hanoi.NewGame(disks)
		if err != nil {
			writeDomainErr(w, r, err)
			return
		}
		sess = &dailySession{Game: g, UserID: uid, Date: date}
		d.sessions[key] = sess
	}
	writeJSON(w, http.StatusOK, dailyNewRes{
		GameID: sess.Game.ID, Date: date, Disks: disks, Towers: sess.Game.Towers.Map(),
	})
}

// pruneLocked drops sessions left over from earlier days. d.mu must be held.
func (d *dailyServer) pruneLocked(today string) {
	for k, sess := range d.sessions {
		if sess.Date != today {
			delete(d.sessions, k)
		}
	}
}

// -----------------------------------------------------------------------------
// /daily/move

// dailyMoveReq is the request payload for /daily/move.
type dailyMoveReq struct {
	GameID string `json:"gameId"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// dailyMoveRes is the response payload for /daily/move.
type dailyMoveRes struct {
	Towers map[string][]hanoi.Disk `json:"towers"`
	Moves  int                     `json:"moves"`
	State  string                  `json:"state"` // playing | solved
}

// handleMove validates and applies a move for today's daily session.
// - Rejects if no session for this user/date or the game ID differs.
// - Illegal moves return 409 and leave the board unchanged.
// - Persists the result to DB once solved.
func (d *dailyServer) handleMove(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)

	var p dailyMoveReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.GameID == "" {
		writeErr(w, http.StatusBadRequest, "bad_request", "")
		return
	}

	date, _ := d.dateKeyNow()
	key := uid + "|" + date

	d.mu.Lock()
	sess, ok := d.sessions[key]
	if !ok || sess.Game.ID != p.GameID {
		d.mu.Unlock()
		writeErr(w, http.StatusConflict, "no_session", "")
		return
	}
	g := sess.Game
	state, err := g.Move(p.From, p.To)
	res := dailyMoveRes{Towers: g.Towers.Map(), Moves: g.Moves, State: state}
	elapsed := int(time.Since(g.StartedAt).Milliseconds())
	if state == hanoi.StateSolved {
		// The persisted result blocks replays from here on.
		delete(d.sessions, key)
	}
	d.mu.Unlock()

	if err != nil {
		writeDomainErr(w, r, err)
		return
	}

	// Persist on the solving move only; the session is gone after it.
	if state == hanoi.StateSolved {
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, Disks: g.Disks, Moves: res.Moves, ElapsedMs: elapsed,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _ = d.dateKeyNow()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
