package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/apps/go-server/assets"
	"github.com/robalobadob/memory/apps/go-server/internal/config"
	"github.com/robalobadob/memory/apps/go-server/internal/db"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/metrics"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/stream"
	"github.com/robalobadob/memory/apps/go-server/internal/testutil"
)

type harness struct {
	t     *testing.T
	srv   *Server
	clock *testutil.ManualClock

	mu  sync.Mutex
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn, assets.Migrations()))

	h := &harness{
		t:     t,
		clock: testutil.NewManualClock(),
		now:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	h.srv = New(Options{
		Config: config.Config{
			ClientOrigin:   "http://localhost:5173",
			JWTSecret:      "test_secret",
			JWTExpiresDays: 1,
			CookieName:     "memory_token",
			DailySalt:      "test_salt",
			PreviewDwell:   3 * time.Second,
			CompareDelay:   time.Second,
			TickInterval:   time.Second,
		},
		Store:    store.NewMemoryStore(store.WithNow(h.Now)),
		Hub:      stream.NewHub(),
		DB:       conn,
		Alphabet: []string{"🍕", "🎮"},
		Clock:    h.clock,
		Now:      h.Now,
	})
	return h
}

func (h *harness) Now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) shift(d time.Duration) {
	h.mu.Lock()
	h.now = h.now.Add(d)
	h.mu.Unlock()
}

func (h *harness) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) newGame() newGameRes {
	rec := h.do(http.MethodPost, "/game/new", nil)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeAs[newGameRes](h.t, rec)
}

func (h *harness) click(id string, tile int) clickRes {
	rec := h.do(http.MethodPost, "/game/"+id+"/click", map[string]int{"tileId": tile})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeAs[clickRes](h.t, rec)
}

// pairs reads the live board and groups tile ids by symbol.
func (h *harness) pairs(id string) [][2]int {
	sess, err := h.srv.store.Get(context.Background(), id)
	require.NoError(h.t, err)
	bySymbol := map[string][]int{}
	var order []string
	for _, tile := range sess.Engine.State().Board {
		if _, ok := bySymbol[tile.Symbol]; !ok {
			order = append(order, tile.Symbol)
		}
		bySymbol[tile.Symbol] = append(bySymbol[tile.Symbol], tile.ID)
	}
	var out [][2]int
	for _, sym := range order {
		ids := bySymbol[sym]
		require.Len(h.t, ids, 2)
		out = append(out, [2]int{ids[0], ids[1]})
	}
	return out
}

// solve plays the current board to a win, one matching pair per move.
func (h *harness) solve(id string) {
	h.t.Helper()
	h.clock.Advance(3 * time.Second)
	for _, p := range h.pairs(id) {
		require.True(h.t, h.click(id, p[0]).Accepted)
		require.True(h.t, h.click(id, p[1]).Accepted)
		h.clock.Advance(time.Second)
	}
}

func (h *harness) dial(ts *httptest.Server, id string) *websocket.Conn {
	h.t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(h.t, err)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = h.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayToWin(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()
	require.NotEmpty(t, g.GameID)
	assert.Equal(t, game.PhasePreview, g.State.Phase)
	assert.Len(t, g.State.Tiles, 4)
	assert.Equal(t, 4, g.State.Visible())

	res := h.click(g.GameID, 0)
	assert.False(t, res.Accepted)
	assert.Equal(t, "preview", res.Verdict)

	h.clock.Advance(3 * time.Second)
	rec := h.do(http.MethodGet, "/game/"+g.GameID, nil)
	snap := decodeAs[game.Snapshot](t, rec)
	assert.Equal(t, game.PhasePlaying, snap.Phase)
	assert.Zero(t, snap.Visible())
	assert.Equal(t, 3, snap.Elapsed)

	for i, p := range h.pairs(g.GameID) {
		first := h.click(g.GameID, p[0])
		require.True(t, first.Accepted, first.Verdict)
		second := h.click(g.GameID, p[1])
		require.True(t, second.Accepted, second.Verdict)
		assert.Equal(t, game.PhaseEvaluating, second.State.Phase)
		assert.Equal(t, i+1, second.State.Moves)

		busy := h.click(g.GameID, p[0])
		assert.Equal(t, "busy", busy.Verdict)

		h.clock.Advance(time.Second)
	}

	rec = h.do(http.MethodGet, "/game/"+g.GameID, nil)
	snap = decodeAs[game.Snapshot](t, rec)
	assert.Equal(t, game.PhaseWon, snap.Phase)
	assert.Equal(t, 2, snap.Moves)
	assert.Equal(t, 5, snap.Elapsed)

	after := h.click(g.GameID, 0)
	assert.Equal(t, "won", after.Verdict)

	require.Eventually(t, func() bool {
		rows := decodeAs[[]scores.Result](t, h.do(http.MethodGet, "/scores/top", nil))
		return len(rows) == 1 && rows[0].GameID == g.GameID && rows[0].Moves == 2 && rows[0].ElapsedSeconds == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMismatchFlipsBack(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()
	h.clock.Advance(3 * time.Second)

	p := h.pairs(g.GameID)
	h.click(g.GameID, p[0][0])
	res := h.click(g.GameID, p[1][0])
	assert.Equal(t, 2, res.State.Visible())

	h.clock.Advance(time.Second)
	snap := decodeAs[game.Snapshot](t, h.do(http.MethodGet, "/game/"+g.GameID, nil))
	assert.Equal(t, game.PhasePlaying, snap.Phase)
	assert.Zero(t, snap.Visible())
	assert.Equal(t, 1, snap.Moves)
}

func TestClickErrors(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()

	rec := h.do(http.MethodPost, "/game/"+g.GameID+"/click", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/game/"+g.GameID+"/click", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/game/missing/click", map[string]int{"tileId": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.clock.Advance(3 * time.Second)
	res := h.click(g.GameID, 99)
	assert.Equal(t, "unknown_tile", res.Verdict)
}

func TestRestartAndDelete(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()
	h.clock.Advance(3 * time.Second)
	h.click(g.GameID, 0)

	rec := h.do(http.MethodPost, "/game/"+g.GameID+"/restart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeAs[game.Snapshot](t, rec)
	assert.Equal(t, g.State.Generation+1, snap.Generation)
	assert.Equal(t, game.PhasePreview, snap.Phase)
	assert.Zero(t, snap.Moves)
	assert.Zero(t, snap.Elapsed)

	h.clock.Advance(3 * time.Second)
	rec = h.do(http.MethodPost, "/game/"+g.GameID+"/click",
		map[string]any{"tileId": 0, "generation": g.State.Generation})
	res := decodeAs[clickRes](t, rec)
	assert.Equal(t, "stale", res.Verdict)

	rec = h.do(http.MethodDelete, "/game/"+g.GameID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/game/"+g.GameID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodDelete, "/game/"+g.GameID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, h.clock.Pending(), "closed engine leaves no timers")
}

func TestDailyBoardIsShared(t *testing.T) {
	h := newHarness(t)

	symbols := func(id string) []string {
		sess, err := h.srv.store.Get(context.Background(), id)
		require.NoError(t, err)
		var out []string
		for _, tile := range sess.Engine.State().Board {
			out = append(out, tile.Symbol)
		}
		return out
	}

	recA := h.do(http.MethodPost, "/daily/new", nil)
	require.Equal(t, http.StatusOK, recA.Code)
	a := decodeAs[dailyNewRes](t, recA)
	b := decodeAs[dailyNewRes](t, h.do(http.MethodPost, "/daily/new", nil))
	assert.Equal(t, "2026-03-14", a.Date)
	assert.NotEqual(t, a.GameID, b.GameID)
	assert.Equal(t, symbols(a.GameID), symbols(b.GameID))

	// Same guest gets the live session back.
	again := decodeAs[dailyNewRes](t, h.do(http.MethodPost, "/daily/new", nil, recA.Result().Cookies()...))
	assert.Equal(t, a.GameID, again.GameID)

	h.shift(24 * time.Hour)
	c := decodeAs[dailyNewRes](t, h.do(http.MethodPost, "/daily/new", nil))
	assert.Equal(t, "2026-03-15", c.Date)

	rec := h.do(http.MethodGet, "/daily/leaderboard?date=2026-03-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lb := decodeAs[lbRes](t, rec)
	assert.Equal(t, "2026-03-14", lb.Date)
	assert.Empty(t, lb.Top)

	rec = h.do(http.MethodGet, "/daily/leaderboard?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/auth/signup", credentials{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()

	rec = h.do(http.MethodPost, "/auth/signup", credentials{Username: "ALICE", Password: "password1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "password1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/auth/me", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = h.do(http.MethodGet, "/scores/mine", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = h.do(http.MethodPost, "/auth/login", credentials{Username: "alice", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/auth/login", credentials{Username: "alice", Password: "password1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/auth/logout", nil, cookies...)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTopScoresRejectsUnknownMode(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/scores/top?mode=speedrun", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	h := newHarness(t)
	idle := h.newGame()
	h.shift(20 * time.Minute)
	fresh := h.newGame()
	h.shift(15 * time.Minute)

	assert.Equal(t, 1, h.srv.Sweep(context.Background(), 30*time.Minute))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/game/"+idle.GameID, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/game/"+fresh.GameID, nil).Code)
}

func TestStreamPushesState(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()

	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()

	conn := h.dial(ts, g.GameID)
	defer conn.Close()

	var first stream.Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, stream.MsgState, first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, game.PhasePreview, first.State.Phase)

	require.NoError(t, conn.WriteJSON(stream.Inbound{Type: stream.MsgClick, TileID: 0}))
	var verdict stream.Message
	require.NoError(t, conn.ReadJSON(&verdict))
	assert.Equal(t, stream.MsgVerdict, verdict.Type)
	assert.Equal(t, "preview", verdict.Verdict)

	_, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/game/missing/ws", nil)
	assert.Error(t, err)
}

func TestClassicWinIsDatedWhenWon(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()

	h.shift(48 * time.Hour)
	h.solve(g.GameID)

	require.Eventually(t, func() bool {
		rows := decodeAs[[]scores.Result](t, h.do(http.MethodGet, "/scores/top?date=2026-03-16", nil))
		return len(rows) == 1 && rows[0].Date == "2026-03-16"
	}, 2*time.Second, 10*time.Millisecond)

	rows := decodeAs[[]scores.Result](t, h.do(http.MethodGet, "/scores/top?date=2026-03-14", nil))
	assert.Empty(t, rows)
}

func TestDailyWinKeepsSeedDate(t *testing.T) {
	h := newHarness(t)
	d := decodeAs[dailyNewRes](t, h.do(http.MethodPost, "/daily/new", nil))

	h.shift(24 * time.Hour)
	h.solve(d.GameID)

	require.Eventually(t, func() bool {
		rec := h.do(http.MethodGet, "/daily/leaderboard?date=2026-03-14", nil)
		lb := decodeAs[lbRes](t, rec)
		return len(lb.Top) == 1 && lb.Top[0].GameID == d.GameID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRestartIsRecordedForEveryTransport(t *testing.T) {
	h := newHarness(t)
	g := h.newGame()

	before := promtest.ToFloat64(metrics.Restarts)
	rec := h.do(http.MethodPost, "/game/"+g.GameID+"/restart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.Restarts))

	ts := httptest.NewServer(h.srv.Router())
	defer ts.Close()
	conn := h.dial(ts, g.GameID)
	defer conn.Close()

	var first stream.Message
	require.NoError(t, conn.ReadJSON(&first))

	// Only the restart itself can keep the session alive past the sweep.
	h.shift(40 * time.Minute)
	require.NoError(t, conn.WriteJSON(stream.Inbound{Type: stream.MsgRestart}))

	require.Eventually(t, func() bool {
		return promtest.ToFloat64(metrics.Restarts) == before+2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, h.srv.Sweep(context.Background(), 30*time.Minute))
}
