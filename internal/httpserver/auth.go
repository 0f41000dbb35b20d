// internal/httpserver/auth.go
//
// Accounts, JWT cookies and the auth middleware.
// Guests can play everything; an account adds stats and a game history.
// Tokens are HS256 and travel either as "Authorization: Bearer" or in the
// CookieName cookie. Guest games are keyed by the AnonCookieName cookie and
// move to the account on signup or login.

package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUsernameTaken = errors.New("username taken")
	errInvalidToken  = errors.New("invalid token")
)

// credentials is the body of /auth/signup and /auth/login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is the caller identity stored in the request context.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// userFrom returns the authenticated user, or nil for guests.
func userFrom(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

func withUser(r *http.Request, u *authUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
}

// mountAuthRoutes registers /auth/* plus the account-only /stats/me and /games/mine.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	gated := r.With(s.requireAuth())
	gated.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userFrom(r))
	})
	gated.Get("/stats/me", s.handleMyStats)
	gated.Get("/games/mine", s.handleMyGames)
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.findUser(r.Context(), "id=?", userFrom(r).ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"solved":      u.Wins,
		"streak":      u.Streak,
	})
}

// gameRow is one entry of /games/mine.
type gameRow struct {
	ID         string `json:"id"`
	Disks      int    `json:"disks"`
	Status     string `json:"status"`
	Moves      int    `json:"moves"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// handleMyGames lists the caller's 50 most recent puzzles.
func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, disks, status, moves, started_at, COALESCE(finished_at,'')
		   FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, userFrom(r).ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	defer rows.Close()

	out := []gameRow{}
	for rows.Next() {
		var g gameRow
		if err := rows.Scan(&g.ID, &g.Disks, &g.Status, &g.Moves, &g.StartedAt, &g.FinishedAt); err != nil {
			log.Warn().Err(err).Msg("scan game row")
			continue
		}
		out = append(out, g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.createUser(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, errUsernameTaken):
		writeErr(w, http.StatusConflict, "username_taken", "")
		return
	case err != nil:
		writeErr(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	}
	tok, ok := s.startSession(w, r, u)
	if !ok {
		return
	}
	log.Info().Str("user", u.ID).Msg("signup")
	writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt, "token": tok})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.findUser(r.Context(), "lower(username)=lower(?)", normalizeUsername(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		writeErr(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}
	tok, ok := s.startSession(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "token": tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setAuthCookie(w, "", time.Time{})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// startSession signs a token for u, sets the cookie and moves the caller's
// guest games to u. On failure it has already written the response.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *userRow) (string, bool) {
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeErr(w, http.StatusInternalServerError, "sign_failed", "")
		return "", false
	}
	s.setAuthCookie(w, tok, exp)
	s.claimAnonGames(r.Context(), anonID(r, s.cfg.AnonCookieName), u.ID)
	return tok, true
}

// --------------------------- middleware -------------------------------------

// parseToken checks signature and expiry and returns the identity claims.
func (s *Server) parseToken(raw string) (*authUser, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, errInvalidToken
	}
	id, _ := claims["id"].(string)
	name, _ := claims["username"].(string)
	if id == "" || name == "" {
		return nil, errInvalidToken
	}
	return &authUser{ID: id, Username: name}, nil
}

// currentUser resolves the request token to a user that still exists.
func (s *Server) currentUser(r *http.Request) (*authUser, error) {
	raw := s.bearerOrCookie(r)
	if raw == "" {
		return nil, nil
	}
	claimed, err := s.parseToken(raw)
	if err != nil {
		return nil, err
	}
	u, err := s.findUser(r.Context(), "id=?", claimed.ID)
	if err != nil {
		return nil, errInvalidToken
	}
	return &authUser{ID: u.ID, Username: u.Username}, nil
}

// withOptionalAuth attaches the user when the token checks out and lets
// guests through otherwise.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := s.currentUser(r); err == nil && u != nil {
				r = withUser(r, u)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth answers 401 unless the request carries a valid token.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.currentUser(r)
			switch {
			case err != nil:
				writeErr(w, http.StatusUnauthorized, "invalid_token", "")
			case u == nil:
				writeErr(w, http.StatusUnauthorized, "unauthorized", "")
			default:
				next.ServeHTTP(w, withUser(r, u))
			}
		})
	}
}

// anonID returns the guest cookie value, or "" when absent.
func anonID(r *http.Request, name string) string {
	if c, err := r.Cookie(name); err == nil {
		return c.Value
	}
	return ""
}

// ensureAnonID returns the guest id, issuing a 180-day cookie on first use.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if id := anonID(r, s.cfg.AnonCookieName); id != "" {
		return id
	}
	id := genID()
	http.SetCookie(w, s.cookie(s.cfg.AnonCookieName, id, time.Now().Add(180*24*time.Hour)))
	return id
}

func (s *Server) claimAnonGames(ctx context.Context, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
}

// ------------------------------ users ---------------------------------------

type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	GamesPlayed  int
	Wins         int
	Streak       int
}

func (s *Server) createUser(ctx context.Context, username, pw string) (*userRow, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	if _, err := s.findUser(ctx, "lower(username)=lower(?)", username); err == nil {
		return nil, errUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &userRow{ID: genID(), Username: username, PasswordHash: string(h), CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return u, nil
}

// findUser loads the single user matching where, e.g. "id=?".
func (s *Server) findUser(ctx context.Context, where string, arg any) (*userRow, error) {
	var (
		u       userRow
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, games_played, wins, streak FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.Wins, &u.Streak)
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func normalizeUsername(u string) string { return strings.TrimSpace(u) }

// validateSignup: 3-24 chars of [A-Za-z0-9_], password 8-72 bytes (bcrypt's limit).
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}

// genID returns 16 random bytes as unpadded base64url (22 chars).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// -------------------------- tokens & cookies --------------------------------

func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.JWTExpiry)
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}).SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// cookie builds an HttpOnly cookie. A zero exp deletes it.
// Production cookies are Secure and SameSite=None so a separate client origin
// can send them.
func (s *Server) cookie(name, value string, exp time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	}
	if s.cfg.Production {
		c.SameSite = http.SameSiteNoneMode
	}
	if exp.IsZero() {
		c.MaxAge = -1
	}
	return c
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(s.cfg.CookieName, token, exp))
}

// bearerOrCookie prefers the Authorization header over the cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
