// internal/httpserver/routes_game.go
//
// Game session endpoints:
//   - POST   /game/new          → create a session, returns {gameId, state}
//   - GET    /game/{id}         → current snapshot
//   - POST   /game/{id}/click   → offer a tile click to the input gate
//   - POST   /game/{id}/restart → new board, new generation
//   - DELETE /game/{id}         → close the session
//   - GET    /game/{id}/ws      → live state/cue stream (see internal/stream)
//
// Guests are tracked by the anonymous cookie; logged-in users by their ID.

package httpserver

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/auth"
	"github.com/robalobadob/memory/apps/go-server/internal/daily"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/metrics"
	"github.com/robalobadob/memory/apps/go-server/internal/scores"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/stream"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.handleGetGame)
	r.Post("/game/{id}/click", s.handleClick)
	r.Post("/game/{id}/restart", s.handleRestart)
	r.Delete("/game/{id}", s.handleDeleteGame)
}

type newGameRes struct {
	GameID string        `json:"gameId"`
	State  game.Snapshot `json:"state"`
}

type clickReq struct {
	TileID     *int   `json:"tileId"`
	Generation uint64 `json:"generation"`
}

type clickRes struct {
	Accepted bool          `json:"accepted"`
	Verdict  string        `json:"verdict"`
	State    game.Snapshot `json:"state"`
}

// startSession builds an engine wired to the session's stream room and the
// results recorder, then registers it in the store.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, mode string, rng *rand.Rand) (*store.Session, error) {
	now := s.now().UTC()
	id := uuid.Must(uuid.NewV7()).String()

	sess := &store.Session{Mode: mode, Date: daily.DateKey(now), Created: now}
	if me := auth.FromContext(r.Context()); me != nil {
		sess.UserID = me.ID
	} else {
		sess.AnonymousID = s.cookies.AnonID(w, r)
	}
	sess.Touch(now)

	room := s.hub.Room(id)
	lg := log.With().Str("mode", mode).Logger()
	e, err := game.New(id, game.Options{
		Alphabet: s.alphabet,
		Rand:     rng,
		Timing:   s.timing,
		Clock:    s.clock,
		Renderer: game.Renderers(room, s.recorder(sess)),
		Audio:    room,
		Logger:   &lg,
	})
	if err != nil {
		s.hub.Close(id)
		return nil, err
	}
	sess.Engine = e

	if err := s.store.Save(r.Context(), sess); err != nil {
		e.Close()
		s.hub.Close(id)
		return nil, err
	}
	metrics.SessionsStarted.WithLabelValues(mode).Inc()
	metrics.ActiveSessions.Set(float64(s.store.Len()))
	lg.Info().Str("gameId", id).Int("tiles", len(s.alphabet)*2).Msg("session started")
	return sess, nil
}

// handleNewGame starts a classic session with a freshly seeded board.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.startSession(w, r, scores.ModeClassic, game.NewRand())
	if err != nil {
		log.Error().Err(err).Msg("start session")
		http.Error(w, `{"error":"start_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: sess.ID(), State: sess.Engine.Snapshot()})
}

// session resolves {id} or answers 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Msg("load session")
		}
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Engine.Snapshot())
}

// handleClick offers a tile click to the gate. Rejections are reported in
// the body with 200; only malformed requests are errors.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.TileID == nil {
		http.Error(w, `{"error":"tileId_required"}`, http.StatusBadRequest)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v := sess.Engine.ClickIn(req.Generation, *req.TileID)
	s.clicked(sess, v)
	_ = json.NewEncoder(w).Encode(clickRes{
		Accepted: v.Accepted(),
		Verdict:  v.String(),
		State:    sess.Engine.Snapshot(),
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Engine.Restart(); err != nil {
		http.Error(w, `{"error":"restart_failed"}`, http.StatusConflict)
		return
	}
	s.restarted(sess)
	_ = json.NewEncoder(w).Encode(sess.Engine.Snapshot())
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	s.hub.Close(id)
	metrics.ActiveSessions.Set(float64(s.store.Len()))
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleStream upgrades to a WebSocket bound to the session's room.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Debug().Err(err).Str("gameId", sess.ID()).Msg("ws upgrade")
		return
	}
	lg := log.With().Str("gameId", sess.ID()).Logger()
	stream.Serve(conn, s.hub.Room(sess.ID()), sess.Engine, stream.Hooks{
		OnVerdict: func(v game.Verdict) { s.clicked(sess, v) },
		OnRestart: func() { s.restarted(sess) },
	}, lg)
}

// clicked and restarted record player input the same way for HTTP and WebSocket.
func (s *Server) clicked(sess *store.Session, v game.Verdict) {
	sess.Touch(s.now())
	metrics.Clicks.WithLabelValues(v.String()).Inc()
}

func (s *Server) restarted(sess *store.Session) {
	sess.Touch(s.now())
	metrics.Restarts.Inc()
}
