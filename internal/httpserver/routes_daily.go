// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Board" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start (or resume) today's board
//   - GET  /daily/leaderboard → fewest moves for today (or ?date=YYYY-MM-DD)
//
// Every player gets the same first board on a given UTC day: the shuffle is
// seeded from HMAC(DAILY_SALT, date). An owner asking twice on the same day
// gets their live session back while it is still in memory.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/auth"
	"github.com/robalobadob/memory/apps/go-server/internal/daily"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
)

// dailyServer tracks live daily sessions per owner and date.
type dailyServer struct {
	srv      *Server
	mu       sync.Mutex
	sessions map[string]string // owner|date → gameId
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{srv: s, sessions: make(map[string]string)}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string        `json:"gameId"`
	Date   string        `json:"date"`
	Played bool          `json:"played"` // owner already has a result for today
	State  game.Snapshot `json:"state"`
}

// owner returns the user ID when logged in, otherwise the anonymous cookie ID.
func (d *dailyServer) owner(w http.ResponseWriter, r *http.Request) (userID, anonID string) {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID, ""
	}
	return "", d.srv.cookies.AnonID(w, r)
}

// handleNew resumes the owner's live daily session or starts a new one.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	now := d.srv.now().UTC()
	date := daily.DateKey(now)
	userID, anonID := d.owner(w, r)
	key := userID + anonID + "|" + date

	played, err := d.srv.scores.Played(r.Context(), scores.ModeDaily, date, userID, anonID)
	if err != nil {
		log.Warn().Err(err).Msg("daily played lookup")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.sessions[key]; ok {
		if sess, err := d.srv.store.Get(r.Context(), id); err == nil {
			_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: id, Date: date, Played: played, State: sess.Engine.Snapshot()})
			return
		}
		delete(d.sessions, key)
	}

	sess, err := d.srv.startSession(w, r, scores.ModeDaily, game.NewSeededRand(daily.Seed(now, d.srv.salt)))
	if err != nil {
		log.Error().Err(err).Msg("start daily session")
		http.Error(w, `{"error":"start_failed"}`, http.StatusInternalServerError)
		return
	}
	d.sessions[key] = sess.ID()
	d.prune(date)
	_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: sess.ID(), Date: date, Played: played, State: sess.Engine.Snapshot()})
}

// prune forgets entries from previous days. Caller holds d.mu.
func (d *dailyServer) prune(today string) {
	suffix := "|" + today
	for k := range d.sessions {
		if len(k) < len(suffix) || k[len(k)-len(suffix):] != suffix {
			delete(d.sessions, k)
		}
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string          `json:"date"`
	Top  []scores.Result `json:"top"`
}

// handleLeaderboard returns the daily leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date, err := daily.ParseDateKey(r.URL.Query().Get("date"), d.srv.now())
	if err != nil {
		http.Error(w, `{"error":"bad_date"}`, http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := d.srv.scores.Top(r.Context(), scores.ModeDaily, date, limit)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
