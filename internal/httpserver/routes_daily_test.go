package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/labs/internal/daily"
	"github.com/robalobadob/labs/internal/db"
	"github.com/robalobadob/labs/internal/hanoi"
	"github.com/robalobadob/labs/internal/store"
	"github.com/robalobadob/labs/internal/wallet"
)

func newDailyServer(t *testing.T) *dailyServer {
	t.Helper()
	conn, err := db.OpenMigrated(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cfg := Config{
		JWTSecret:      "test",
		JWTExpiry:      time.Hour,
		CookieName:     "labs_token",
		AnonCookieName: "labs_anon",
		DailySalt:      "s",
		DailyMinDisks:  2,
		DailyMaxDisks:  2,
		RequestTimeout: 5 * time.Second,
	}
	s := New(cfg, store.NewMemoryStore[*hanoi.Game](), store.NewMemoryStore[*wallet.Wallet](), conn)
	return &dailyServer{srv: s, store: daily.NewStore(conn), sessions: make(map[string]*dailySession)}
}

func TestDailySessionDroppedOnSolve(t *testing.T) {
	d := newDailyServer(t)

	rec := httptest.NewRecorder()
	d.handleNew(rec, httptest.NewRequest(http.MethodPost, "/daily/new", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var started dailyNewRes
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&started))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Len(t, d.sessions, 1)

	for _, s := range hanoi.Solve(started.Disks) {
		body := `{"gameId":"` + started.GameID + `","from":"` + s.From.String() + `","to":"` + s.To.String() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/daily/move", strings.NewReader(body))
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		d.handleMove(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, d.sessions)
}

func TestDailyPruneKeepsToday(t *testing.T) {
	d := &dailyServer{sessions: map[string]*dailySession{
		"u1|2026-10-17": {UserID: "u1", Date: "2026-10-17"},
		"u1|2026-10-18": {UserID: "u1", Date: "2026-10-18"},
		"u2|2026-10-16": {UserID: "u2", Date: "2026-10-16"},
	}}
	d.pruneLocked("2026-10-18")
	require.Len(t, d.sessions, 1)
	assert.Contains(t, d.sessions, "u1|2026-10-18")
}
